// Package engine copies and moves single filesystem entities with attribute
// replication, cross-device fallback, cancellation and rollback.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bamsammich/ferry/internal/attr"
	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/stats"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config wires an Engine to its collaborators. The zero value is usable.
type Config struct {
	Dispatcher platform.Dispatcher  // default platform.Unix{}
	NonPosix   attr.NonPosixCopier  // default attr.Xattrs{}
	Stats      *stats.Collector     // default: a private collector
	Events     chan<- event.Event   // optional; sends never block
	BWLimit    int64                // bytes/sec across all transfers, 0 = unlimited
	UseIOURing bool
}

// Engine performs copies and moves. It is safe for concurrent use; calls
// share only the buffer pool, the bandwidth limiter and the io_uring ring.
type Engine struct {
	d        platform.Dispatcher
	nonPosix attr.NonPosixCopier
	stats    *stats.Collector
	events   chan<- event.Event
	limiter  *rate.Limiter
	ring     *platform.Ring
	pool     *platform.BufferPool
	inflight inflight
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	e := &Engine{
		d:        cfg.Dispatcher,
		nonPosix: cfg.NonPosix,
		stats:    cfg.Stats,
		events:   cfg.Events,
		pool:     platform.NewBufferPool(),
	}
	if e.d == nil {
		e.d = platform.Unix{}
	}
	if e.nonPosix == nil {
		e.nonPosix = attr.Xattrs{}
	}
	if e.stats == nil {
		e.stats = stats.NewCollector()
	}
	if cfg.BWLimit > 0 {
		e.limiter = NewBWLimiter(cfg.BWLimit)
	}
	if cfg.UseIOURing {
		ring, err := platform.NewRing(64)
		if err != nil {
			return nil, fmt.Errorf("init io_uring: %w", err)
		}
		e.ring = ring // nil if the kernel is too old
	}
	return e, nil
}

// Close removes any entity still being created and releases the ring.
func (e *Engine) Close() error {
	e.inflight.cleanup(e.d)
	return e.ring.Close()
}

// Stats returns the collector the engine reports into.
func (e *Engine) Stats() *stats.Collector { return e.stats }

// Copy copies the entity at src to dst. Directories are copied without
// their contents.
func (e *Engine) Copy(ctx context.Context, src, dst string, opts ...Option) error {
	flags, err := CopyFlags(opts...)
	if err != nil {
		return err
	}
	o := e.begin(ctx, "copy", src, dst, flags)
	return o.end(o.copy())
}

// Move moves the entity at src to dst, renaming when possible and copying
// then deleting the source otherwise.
func (e *Engine) Move(ctx context.Context, src, dst string, opts ...Option) error {
	flags, err := MoveFlags(opts...)
	if err != nil {
		return err
	}
	o := e.begin(ctx, "move", src, dst, flags)
	return o.end(o.move())
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, _ := New(Config{}) // cannot fail without io_uring
	return e
})

// Copy copies src to dst with a process-wide default engine.
func Copy(ctx context.Context, src, dst string, opts ...Option) error {
	return defaultEngine().Copy(ctx, src, dst, opts...)
}

// Move moves src to dst with a process-wide default engine.
func Move(ctx context.Context, src, dst string, opts ...Option) error {
	return defaultEngine().Move(ctx, src, dst, opts...)
}

// operation is the state of one Copy or Move call.
type operation struct {
	start time.Time
	ctx   context.Context
	e     *Engine
	log   *clog.Logger
	token *CancelToken // from WithCancelToken, never written
	name  string
	id    string
	src   string
	dst   string
	flags Flags
}

func (e *Engine) begin(ctx context.Context, name, src, dst string, flags Flags) *operation {
	id := uuid.NewString()[:8]
	log := clog.FromContext(ctx).With("op", name, "id", id, "src", src, "dst", dst)
	o := &operation{
		start: time.Now(),
		ctx:   clog.WithLogger(ctx, log),
		e:     e,
		log:   log,
		token: tokenFrom(ctx),
		name:  name,
		id:    id,
		src:   src,
		dst:   dst,
		flags: flags,
	}
	o.emit(event.Event{Type: event.OpStarted})
	return o
}

func (o *operation) end(err error) error {
	if err == nil {
		o.log.Debug("done", "elapsed", time.Since(o.start))
		o.emit(event.Event{Type: event.OpCompleted})
		return nil
	}

	err = translate(err)
	if errors.Is(err, Cancelled) {
		o.e.stats.AddCancellations(1)
	} else {
		o.e.stats.AddFailures(1)
	}
	o.log.Debug("failed", "error", err)
	o.emit(event.Event{Type: event.OpFailed, Error: err})
	return err
}

func (o *operation) emit(ev event.Event) {
	if o.e.events == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.Op = o.name
	ev.ID = o.id
	if ev.Path == "" {
		ev.Path = o.src
	}
	if ev.Target == "" {
		ev.Target = o.dst
	}
	select {
	case o.e.events <- ev:
	default:
	}
}

// created records a committed entity.
func (o *operation) created(kind attr.Kind, path string, size int64, method string) {
	switch kind {
	case attr.Regular:
		o.e.stats.AddFilesCopied(1)
	case attr.Directory:
		o.e.stats.AddDirsCreated(1)
	case attr.Symlink:
		o.e.stats.AddSymlinksCopied(1)
	case attr.Special:
		o.e.stats.AddSpecialsCopied(1)
	}
	o.emit(event.Event{Type: event.EntityCreated, Target: path, Kind: kind.String(), Size: size, Method: method})
}

func (o *operation) sameFile() {
	o.log.Debug("source and target are the same file")
	o.e.stats.AddSameFile(1)
	o.emit(event.Event{Type: event.SameFile})
}

// remove deletes path according to kind.
func (o *operation) remove(path string, kind attr.Kind) error {
	if kind == attr.Directory {
		return o.e.d.Rmdir(path)
	}
	return o.e.d.Unlink(path)
}

// rollback removes a partially created entity. Failures are logged and
// swallowed so the caller reports the original error.
func (o *operation) rollback(path string, kind attr.Kind) {
	if err := o.remove(path, kind); err != nil {
		o.log.Debug("rollback failed", "path", path, "error", err)
		return
	}
	o.log.Debug("rolled back", "path", path, "kind", kind)
	o.e.stats.AddRollbacks(1)
	o.emit(event.Event{Type: event.RolledBack, Target: path, Kind: kind.String()})
}
