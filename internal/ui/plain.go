package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/stats"
)

const progressInterval = 5 * time.Second

// plainPresenter reports failures to stderr, and in verbose mode one line
// per created entity to stdout. Long transfers print periodic progress.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   *stats.Collector
	verbose bool

	lastBytes int64
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	var ticks int

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-tick.C:
			p.stats.Tick()
			ticks++
			if ticks%int(progressInterval/time.Second) == 0 {
				p.printProgress()
			}
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.EntityCreated:
		if !p.verbose {
			return
		}
		line := fmt.Sprintf("%s  %s", FormatTransfer(ev.Path, ev.Target), ev.Kind)
		if ev.Kind == "regular" {
			line += fmt.Sprintf("  %s  %s", FormatBytes(ev.Size), ev.Method)
		}
		fmt.Fprintln(p.w, line)
	case event.RenameFallback:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  cross-device, copying\n", FormatTransfer(ev.Path, ev.Target))
		}
	case event.SameFile:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  same file, skipped\n", FormatTransfer(ev.Path, ev.Target))
		}
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	if snap.BytesCopied == p.lastBytes {
		return
	}
	p.lastBytes = snap.BytesCopied
	fmt.Fprintf(p.errW, "progress: %s copied  %s\n",
		FormatBytes(snap.BytesCopied),
		FormatRate(p.stats.RollingSpeed(int(progressInterval/time.Second))),
	)
}

func (p *plainPresenter) Summary() string {
	return completionSummary(p.stats.Snapshot())
}

// FailureLine formats a failed operation for stderr.
func FailureLine(op, src, dst string, err error) string {
	return fmt.Sprintf("ferry: %s %s: %v", op, FormatTransfer(src, dst), err)
}
