// Package progress renders a live progress bar and the end-of-run
// summary on interactive terminals.
package progress

import (
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/mholdt/mail-archiver/stats"
)

// Bar tracks message processing as a pterm progress bar. It is enabled
// only at info log level so debug output stays readable.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	mu      sync.Mutex
	enabled bool
}

func New(logLevel string) *Bar {
	return &Bar{enabled: logLevel == "info"}
}

// Update consumes one engine event. The first enumerated event starts
// the bar with the candidate total.
func (b *Bar) Update(evt stats.Event) {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch evt.Type {
	case stats.EventTypeEnumerated:
		if evt.Count == 0 {
			return
		}
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(evt.Count).
			WithTitle("Archiving messages").
			Start()
		b.pb = pb

	case stats.EventTypeSaved, stats.EventTypeSkipped, stats.EventTypeReplaced, stats.EventTypeDryRun:
		if b.pb == nil {
			return
		}
		if evt.MessageID != "" {
			displayID := evt.MessageID
			if len(displayID) > 40 {
				displayID = displayID[:37] + "..."
			}
			b.pb.UpdateTitle("Archiving: " + displayID)
		}
		b.pb.Increment()

	case stats.EventTypeError:
		if evt.Err != nil {
			pterm.Error.Printf("Error: %v\n", evt.Err)
		}
		if b.pb != nil {
			b.pb.Increment()
		}
	}
}

// Stop finalizes the bar.
func (b *Bar) Stop() {
	if !b.enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pb != nil {
		_, _ = b.pb.Stop()
	}
}

// PrintSummary renders the run report below the finished bar.
func PrintSummary(summary stats.Summary, duration time.Duration, watermark int64, advanced bool) {
	pterm.Println()
	pterm.DefaultSection.Println("Archive Run Summary")
	pterm.Info.Printf("Duration: %v\n", duration.Round(time.Millisecond))
	pterm.Info.Printf("Candidates: %d\n", summary.Candidates)
	pterm.Info.Printf("Saved: %d\n", summary.Saved)
	pterm.Info.Printf("Skipped (duplicates): %d\n", summary.Skipped)
	pterm.Info.Printf("Replaced: %d\n", summary.Replaced)
	if summary.DryRun > 0 {
		pterm.Info.Printf("Dry-run outcomes: %d\n", summary.DryRun)
	}
	pterm.Info.Printf("Errors: %d\n", summary.Errors)
	if summary.LastError != nil {
		pterm.Error.Printf("Last error: %v\n", summary.LastError)
	}
	if advanced {
		pterm.Success.Printf("Watermark advanced to %d\n", watermark)
	} else {
		pterm.Info.Println("No new messages saved; watermark unchanged")
	}
}
