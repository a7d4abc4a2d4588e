package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/ferry/internal/config"
	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/metrics"
	"github.com/bamsammich/ferry/internal/stats"
	"github.com/bamsammich/ferry/internal/ui"
)

// pair is one source and the target it goes to.
type pair struct {
	src string
	dst string
}

// plan maps the positional arguments to source/target pairs. Several sources
// require dst to be an existing directory. A single source goes inside dst
// when dst is a directory, unless noTargetDir is set.
func plan(args []string, noTargetDir bool) ([]pair, error) {
	sources, dst := args[:len(args)-1], args[len(args)-1]

	info, err := os.Stat(dst)
	isDir := err == nil && info.IsDir()

	if len(sources) > 1 {
		if noTargetDir {
			return nil, errors.New("extra operand: -T takes exactly one source")
		}
		if !isDir {
			return nil, fmt.Errorf("target %s is not a directory", dst)
		}
	}

	pairs := make([]pair, 0, len(sources))
	for _, src := range sources {
		target := dst
		if isDir && !noTargetDir {
			target = filepath.Join(dst, filepath.Base(filepath.Clean(src)))
		}
		pairs = append(pairs, pair{src: src, dst: target})
	}
	return pairs, nil
}

// lockedWriter serializes writes from the logger, the presenter and the
// per-operation failure reports.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// session holds what one cp or mv invocation shares across operations.
type session struct {
	v       *viper.Viper
	stdout  io.Writer
	stderr  io.Writer
	tty     bool
	logger  *slog.Logger
	closers []io.Closer

	stats   *stats.Collector
	metrics *metrics.Metrics
	events  chan event.Event
	engine  *engine.Engine
}

func newSession(v *viper.Viper, stdout, stderr io.Writer, engCfg engine.Config) (*session, error) {
	s := &session{v: v, stdout: stdout, stderr: &lockedWriter{w: stderr}, stats: stats.NewCollector()}
	if f, ok := stderr.(*os.File); ok {
		s.tty = ui.IsTTY(f.Fd())
	}

	if err := s.setupLogging(); err != nil {
		return nil, err
	}

	m, err := metrics.New()
	if err != nil {
		s.close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	s.metrics = m

	s.events = make(chan event.Event, 256)
	engCfg.Stats = s.stats
	engCfg.Events = s.events
	e, err := engine.New(engCfg)
	if err != nil {
		s.close()
		return nil, err
	}
	s.engine = e
	return s, nil
}

func (s *session) setupLogging() error {
	level, err := ui.ParseLevel(s.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	switch {
	case s.v.GetBool("verbose"):
		level = slog.LevelDebug
	case s.v.GetBool("quiet"):
		level = slog.LevelWarn
	}

	var h slog.Handler = ui.NewConsoleHandler(s.stderr, level, s.tty)

	if path := s.v.GetString("log"); path != "" {
		lf, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		s.closers = append(s.closers, lf)
		h = ui.NewMultiHandler(h, slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	s.logger = slog.New(h)
	return nil
}

func (s *session) close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

// opFunc is engine.Engine.Copy or engine.Engine.Move with its options bound.
type opFunc func(ctx context.Context, p pair) error

// execute runs op for every pair with at most jobs in flight, then reports.
// Failures of individual operations do not stop the others. Each failure is
// printed from the error op returns, since events may be dropped.
func (s *session) execute(ctx context.Context, name string, pairs []pair, jobs int, op opFunc) error {
	defer s.close()
	ctx = clog.WithLogger(ctx, clog.New(s.logger.Handler()))

	presenter := ui.NewPresenter(ui.Config{
		Writer:    s.stdout,
		ErrWriter: s.stderr,
		Stats:     s.stats,
		Quiet:     s.v.GetBool("quiet"),
		Verbose:   s.v.GetBool("verbose"),
	})

	var wg sync.WaitGroup
	presented := make(chan event.Event, 256)
	logEvents := s.v.GetString("log") != ""
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(presented)
		for ev := range s.events {
			s.metrics.Observe(ev)
			if logEvents && ev.Type != event.TransferProgress {
				ui.LogEvent(ctx, s.logger, ev)
			}
			presented <- ev
		}
	}()
	go func() {
		defer wg.Done()
		if err := presenter.Run(presented); err != nil {
			fmt.Fprintf(s.stderr, "presenter: %v\n", err)
		}
	}()

	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, p := range pairs {
		g.Go(func() error {
			start := time.Now()
			err := gctx.Err()
			if err != nil {
				err = &engine.Error{Kind: engine.Cancelled, Err: err}
			} else {
				err = op(gctx, p)
			}
			s.metrics.Finish(name, err, time.Since(start))
			if err != nil {
				failed.Add(1)
				fmt.Fprintln(s.stderr, ui.FailureLine(name, p.src, p.dst, err))
			}
			return nil
		})
	}
	_ = g.Wait() // failures are counted, never returned

	_ = s.engine.Close()
	close(s.events)
	wg.Wait()

	if s.v.GetBool("verbose") {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(s.stderr, summary)
		}
	}
	s.logger.Debug("finished", "stats", s.stats.Snapshot().String())

	if path := s.v.GetString("metrics-file"); path != "" {
		if err := s.metrics.WriteTextfile(path); err != nil {
			s.logger.Warn("writing metrics failed", "path", path, "error", err)
		}
	}

	switch n := failed.Load(); {
	case n == 0:
		return nil
	case n < int64(len(pairs)):
		return &exitError{code: 1}
	default:
		return &exitError{code: 2}
	}
}

// bwlimit reads the bandwidth limit setting.
func bwlimit(v *viper.Viper) (int64, error) {
	s := v.GetString("bwlimit")
	if s == "" {
		return 0, nil
	}
	n, err := config.ParseSize(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --bwlimit: %w", err)
	}
	return n, nil
}
