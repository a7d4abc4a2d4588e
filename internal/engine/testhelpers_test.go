package engine

import (
	"bytes"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/stats"
)

// faults wraps the real dispatcher and lets a test override single calls.
// A nil hook delegates to platform.Unix.
type faults struct {
	platform.Unix
	rename        func(from, to string) error
	unlink        func(path string) error
	futimens      func(fd int) error
	utimens       func(path string) error
	read          func(fd int, p []byte) (int, error)
	write         func(fd int, p []byte) (int, error)
	copyFileRange func(srcFd, dstFd, n int) (int, error)
}

func (f *faults) Rename(from, to string) error {
	if f.rename != nil {
		return f.rename(from, to)
	}
	return f.Unix.Rename(from, to)
}

func (f *faults) Unlink(path string) error {
	if f.unlink != nil {
		return f.unlink(path)
	}
	return f.Unix.Unlink(path)
}

func (f *faults) Futimens(fd int, atime, mtime time.Time) error {
	if f.futimens != nil {
		if err := f.futimens(fd); err != nil {
			return err
		}
	}
	return f.Unix.Futimens(fd, atime, mtime)
}

func (f *faults) Utimens(path string, atime, mtime time.Time, follow bool) error {
	if f.utimens != nil {
		if err := f.utimens(path); err != nil {
			return err
		}
	}
	return f.Unix.Utimens(path, atime, mtime, follow)
}

func (f *faults) Read(fd int, p []byte) (int, error) {
	if f.read != nil {
		return f.read(fd, p)
	}
	return f.Unix.Read(fd, p)
}

func (f *faults) Write(fd int, p []byte) (int, error) {
	if f.write != nil {
		return f.write(fd, p)
	}
	return f.Unix.Write(fd, p)
}

func (f *faults) CopyFileRange(srcFd, dstFd, n int) (int, error) {
	if f.copyFileRange != nil {
		return f.copyFileRange(srcFd, dstFd, n)
	}
	return f.Unix.CopyFileRange(srcFd, dstFd, n)
}

func errnoErr(op string, errno unix.Errno) error {
	return &platform.Error{Op: op, Errno: errno}
}

// crossDevice makes every rename fail as if the paths were on different
// filesystems.
func crossDevice(from, to string) error {
	return &platform.Error{Op: "rename", Path: from, Path2: to, Errno: unix.EXDEV}
}

// noFastPath refuses copy_file_range for this call only.
func noFastPath(int, int, int) (int, error) {
	return 0, errnoErr("copy_file_range", unix.EXDEV)
}

type testEngine struct {
	*Engine
	stats  *stats.Collector
	events chan event.Event
}

func newTestEngine(t *testing.T, d platform.Dispatcher, opts ...func(*Config)) *testEngine {
	t.Helper()
	te := &testEngine{stats: stats.NewCollector(), events: make(chan event.Event, 4096)}
	cfg := Config{Dispatcher: d, Stats: te.stats, Events: te.events}
	for _, o := range opts {
		o(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	te.Engine = e
	return te
}

// drain returns the event types received so far, skipping progress.
func (te *testEngine) drain() []event.Type {
	var types []event.Type
	for {
		select {
		case ev := <-te.events:
			if ev.Type != event.TransferProgress {
				types = append(types, ev.Type)
			}
		default:
			return types
		}
	}
}

// resetFastPath restores the process-wide fast path after a test that
// disables it.
func resetFastPath(t *testing.T) {
	t.Helper()
	fastPathDisabled.Store(false)
	t.Cleanup(func() { fastPathDisabled.Store(false) })
}

func writeRandom(t *testing.T, path string, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return data
}

func requireMissing(t *testing.T, path string) {
	t.Helper()
	_, err := os.Lstat(path)
	require.ErrorIs(t, err, os.ErrNotExist, "%s should not exist", path)
}

func requireContent(t *testing.T, path string, want []byte) {
	t.Helper()
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, len(want), len(got))
	require.True(t, bytes.Equal(want, got), "%s content differs", path)
}
