package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks copy/move statistics using lock-free atomic counters.
type Collector struct {
	startTime time.Time

	filesCopied    atomic.Int64
	dirsCreated    atomic.Int64
	symlinksCopied atomic.Int64
	specialsCopied atomic.Int64
	bytesCopied    atomic.Int64
	renames        atomic.Int64
	copyMoves      atomic.Int64
	sameFile       atomic.Int64
	rollbacks      atomic.Int64
	failures       atomic.Int64
	cancellations  atomic.Int64
	fallbacks      atomic.Int64
	verified       atomic.Int64
	verifyFailed   atomic.Int64

	// Ring buffer, written only by Tick.
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per tick
	ringIdx    int
	ringCount  int // samples written, capped at ringSize
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesCopied    int64
	DirsCreated    int64
	SymlinksCopied int64
	SpecialsCopied int64
	BytesCopied    int64
	Renames        int64
	CopyMoves      int64
	SameFile       int64
	Rollbacks      int64
	Failures       int64
	Cancellations  int64
	Fallbacks      int64
	Verified       int64
	VerifyFailed   int64
	Elapsed        time.Duration
}

func (c *Collector) AddFilesCopied(n int64)    { c.filesCopied.Add(n) }
func (c *Collector) AddDirsCreated(n int64)    { c.dirsCreated.Add(n) }
func (c *Collector) AddSymlinksCopied(n int64) { c.symlinksCopied.Add(n) }
func (c *Collector) AddSpecialsCopied(n int64) { c.specialsCopied.Add(n) }
func (c *Collector) AddBytesCopied(n int64)    { c.bytesCopied.Add(n) }
func (c *Collector) AddRenames(n int64)        { c.renames.Add(n) }
func (c *Collector) AddCopyMoves(n int64)      { c.copyMoves.Add(n) }
func (c *Collector) AddSameFile(n int64)       { c.sameFile.Add(n) }
func (c *Collector) AddRollbacks(n int64)      { c.rollbacks.Add(n) }
func (c *Collector) AddFailures(n int64)       { c.failures.Add(n) }
func (c *Collector) AddCancellations(n int64)  { c.cancellations.Add(n) }
func (c *Collector) AddFallbacks(n int64)      { c.fallbacks.Add(n) }
func (c *Collector) AddVerified(n int64)       { c.verified.Add(n) }
func (c *Collector) AddVerifyFailed(n int64)   { c.verifyFailed.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesCopied:    c.filesCopied.Load(),
		DirsCreated:    c.dirsCreated.Load(),
		SymlinksCopied: c.symlinksCopied.Load(),
		SpecialsCopied: c.specialsCopied.Load(),
		BytesCopied:    c.bytesCopied.Load(),
		Renames:        c.renames.Load(),
		CopyMoves:      c.copyMoves.Load(),
		SameFile:       c.sameFile.Load(),
		Rollbacks:      c.rollbacks.Load(),
		Failures:       c.failures.Load(),
		Cancellations:  c.cancellations.Load(),
		Fallbacks:      c.fallbacks.Load(),
		Verified:       c.verified.Load(),
		VerifyFailed:   c.verifyFailed.Load(),
		Elapsed:        c.Elapsed(),
	}
}

// Tick snapshots the byte delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesCopied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = currentBytes - c.lastBytes
	c.lastBytes = currentBytes
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Entities is the number of filesystem entities created by copies.
func (s Snapshot) Entities() int64 {
	return s.FilesCopied + s.DirsCreated + s.SymlinksCopied + s.SpecialsCopied
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"files=%d dirs=%d symlinks=%d specials=%d bytes=%d renames=%d copy-moves=%d rollbacks=%d failed=%d",
		s.FilesCopied, s.DirsCreated, s.SymlinksCopied, s.SpecialsCopied,
		s.BytesCopied, s.Renames, s.CopyMoves, s.Rollbacks, s.Failures,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
