package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/bamsammich/ferry/internal/platform"
)

// BenchmarkResult holds throughput measurements for one directory.
type BenchmarkResult struct {
	ReadBytesPerSec  float64
	WriteBytesPerSec float64
	BufferSize       int
	SuggestedJobs    int
}

// RunBenchmark writes size bytes to a scratch file in dir, fsyncs it, reads
// it back and removes it. Writes and reads use the buffer size a copy
// within dir would use.
func RunBenchmark(ctx context.Context, d platform.Dispatcher, dir string, size int64) (BenchmarkResult, error) {
	result := BenchmarkResult{BufferSize: platform.BufferSize(d, dir, dir)}
	buf := make([]byte, result.BufferSize)
	path := filepath.Join(dir, ".ferry-bench-"+uuid.NewString()[:8])

	fd, err := d.Open(path, unix.O_WRONLY|unix.O_CREAT|unix.O_EXCL, 0o600)
	if err != nil {
		return result, fmt.Errorf("write benchmark: %w", err)
	}
	defer d.Unlink(path) //nolint:errcheck // scratch file

	start := time.Now()
	var total int64
	for total < size {
		if err := ctx.Err(); err != nil {
			d.Close(fd)
			return result, err
		}
		chunk := buf[:min(int64(len(buf)), size-total)]
		if err := writeFull(d, fd, chunk); err != nil {
			d.Close(fd)
			return result, fmt.Errorf("write benchmark: %w", err)
		}
		total += int64(len(chunk))
	}
	if err := d.Fsync(fd); err != nil {
		d.Close(fd)
		return result, fmt.Errorf("write benchmark: %w", err)
	}
	result.WriteBytesPerSec = throughput(total, time.Since(start))
	if err := d.Close(fd); err != nil {
		return result, fmt.Errorf("write benchmark: %w", err)
	}

	fd, err = d.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return result, fmt.Errorf("read benchmark: %w", err)
	}
	defer d.Close(fd)

	start = time.Now()
	total = 0
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		n, err := d.Read(fd, buf)
		if err != nil {
			return result, fmt.Errorf("read benchmark: %w", err)
		}
		if n == 0 {
			break
		}
		total += int64(n)
	}
	result.ReadBytesPerSec = throughput(total, time.Since(start))
	result.SuggestedJobs = suggestJobs(result.ReadBytesPerSec, result.WriteBytesPerSec)
	return result, nil
}

func throughput(n int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		elapsed = time.Microsecond
	}
	return float64(n) / elapsed.Seconds()
}

// suggestJobs picks a concurrency from the slower of the two directions.
func suggestJobs(readBPS, writeBPS float64) int {
	bottleneck := min(readBPS, writeBPS)
	cpus := runtime.NumCPU()

	switch {
	case bottleneck >= 2e9: // NVMe
		return min(cpus*2, 32)
	case bottleneck >= 200e6: // SSD
		return min(cpus, 16)
	default: // spinning disk
		return min(4, cpus)
	}
}
