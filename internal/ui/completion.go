package ui

import (
	"fmt"

	"github.com/bamsammich/ferry/internal/stats"
)

// completionSummary builds a final summary line from a snapshot.
// Format: done ✓  entities 3  size 2.1 GiB  avg 641 MB/s  time 3s  errors 0
func completionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	failed := snap.Failures + snap.VerifyFailed
	icon := "✓"
	if failed > 0 || snap.Cancellations > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  entities %s  size %s  avg %s  time %s",
		icon,
		FormatCount(snap.Entities()),
		FormatBytes(snap.BytesCopied),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)
	if snap.Renames > 0 {
		base += fmt.Sprintf("  renamed %s", FormatCount(snap.Renames))
	}
	if snap.Verified > 0 || snap.VerifyFailed > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.Verified))
	}
	if snap.Cancellations > 0 {
		base += fmt.Sprintf("  cancelled %d", snap.Cancellations)
	}
	return base + fmt.Sprintf("  errors %d", failed)
}
