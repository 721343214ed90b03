package progress

import (
	"github.com/pterm/pterm"
)

// Bar renders an in-place progress indicator for the walk. It is only
// active at the info log level so debug logs and quiet runs stay clean.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	enabled bool
}

// New creates a progress bar over total iterations if logLevel is "info".
func New(total int, logLevel string) *Bar {
	bar := &Bar{
		total:   total,
		enabled: logLevel == "info",
	}

	if bar.enabled {
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Exporting messages").
			Start()
		bar.pb = pb
	}

	return bar
}

// Step advances the bar by one iteration, showing the envelope address of
// the message being processed.
func (b *Bar) Step(address string) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.pb.Increment()
	if address != "" {
		if len(address) > 40 {
			address = address[:37] + "..."
		}
		b.pb.UpdateTitle("Exporting: " + address)
	}
}

// Stop finalizes the bar. done is the number of iterations that actually
// completed; an aborted run stops short of the total.
func (b *Bar) Stop(done int) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.pb.Stop()
	if done >= b.total {
		pterm.Success.Println("Export complete!")
	}
}
