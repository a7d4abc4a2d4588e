package ui

import (
	"io"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Stats     *stats.Collector
	Quiet     bool
	Verbose   bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // callers only need the Presenter methods
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return quietPresenter{}
	}
	return &plainPresenter{
		w:       cfg.Writer,
		errW:    cfg.ErrWriter,
		stats:   cfg.Stats,
		verbose: cfg.Verbose,
	}
}

// quietPresenter consumes events but produces no output.
type quietPresenter struct{}

func (quietPresenter) Run(events <-chan event.Event) error {
	for range events {
	}
	return nil
}

func (quietPresenter) Summary() string { return "" }
