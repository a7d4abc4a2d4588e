package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ferry/internal/event"
)

func TestVerifyCopy_Matching(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(src, []byte("same content"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("same content"), 0644))

	assert.NoError(t, VerifyCopy(src, dst))
}

func TestVerifyCopy_Corrupted(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(src, []byte("original"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("corrupted"), 0644))

	err := VerifyCopy(src, dst)
	var verr *VerifyError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, src, verr.Path)
	assert.Equal(t, dst, verr.Target)
	assert.NotEqual(t, verr.SrcHash, verr.DstHash)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestVerifyCopy_MissingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	err := VerifyCopy(src, filepath.Join(dir, "missing"))
	require.Error(t, err)
	var verr *VerifyError
	assert.NotErrorAs(t, err, &verr)
}

func TestEngineVerify_StatsAndEvents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))
	require.NoError(t, os.WriteFile(good, []byte("payload"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("payloaD"), 0644))

	events := make(chan event.Event, 8)
	e, err := New(Config{Events: events})
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	require.NoError(t, e.Verify(ctx, src, good))
	require.Error(t, e.Verify(ctx, src, bad))
	close(events)

	var types []event.Type
	for ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []event.Type{event.VerifyOK, event.VerifyFailed}, types)

	snap := e.Stats().Snapshot()
	assert.Equal(t, int64(1), snap.Verified)
	assert.Equal(t, int64(1), snap.VerifyFailed)
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	require.NoError(t, os.WriteFile(a, []byte("hello world"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("hello world"), 0644))
	require.NoError(t, os.WriteFile(c, []byte("hello world!"), 0644))

	ha, err := HashFile(a)
	require.NoError(t, err)
	assert.Len(t, ha, 64)

	hb, err := HashFile(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	hc, err := HashFile(c)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)

	_, err = HashFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
