package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/platform"
	"github.com/chainguard-dev/clog"
	"github.com/zeebo/blake3"
)

// HashFile returns the hex-encoded BLAKE3 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, 4*platform.MinBufferSize)); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyError records a checksum mismatch between a source and its copy.
type VerifyError struct {
	Path    string
	Target  string
	SrcHash string
	DstHash string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify %s -> %s: checksum mismatch (%.12s != %.12s)", e.Path, e.Target, e.SrcHash, e.DstHash)
}

// VerifyCopy compares the BLAKE3 digests of two regular files. A mismatch
// is reported as *VerifyError.
func VerifyCopy(src, dst string) error {
	srcHash, err := HashFile(src)
	if err != nil {
		return err
	}
	dstHash, err := HashFile(dst)
	if err != nil {
		return err
	}
	if srcHash != dstHash {
		return &VerifyError{Path: src, Target: dst, SrcHash: srcHash, DstHash: dstHash}
	}
	return nil
}

// Verify runs VerifyCopy and reports the outcome to the engine's stats and
// event stream.
func (e *Engine) Verify(ctx context.Context, src, dst string) error {
	err := VerifyCopy(src, dst)
	ev := event.Event{Timestamp: time.Now(), Op: "verify", Path: src, Target: dst, Kind: "regular"}
	if err != nil {
		clog.FromContext(ctx).Warn("verification failed", "src", src, "dst", dst, "error", err)
		e.stats.AddVerifyFailed(1)
		ev.Type = event.VerifyFailed
		ev.Error = err
	} else {
		e.stats.AddVerified(1)
		ev.Type = event.VerifyOK
	}
	if e.events != nil {
		select {
		case e.events <- ev:
		default:
		}
	}
	return err
}
