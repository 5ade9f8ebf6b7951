package processor

import (
	"context"
	"time"
)

// ProgressStep is one advisory (percent, label) pair
type ProgressStep struct {
	Percent int
	Label   string
}

var (
	// StartStep is shown as soon as a submission begins
	StartStep = ProgressStep{Percent: 5, Label: "Starting processing..."}

	// DoneStep is shown once the response has been handled successfully
	DoneStep = ProgressStep{Percent: 100, Label: "Done!"}

	// ResetStep is the idle state every submission ends in
	ResetStep = ProgressStep{}
)

// DefaultProgressSteps is the scripted sequence stepped through while the
// request is in flight. It does not measure the transfer.
var DefaultProgressSteps = []ProgressStep{
	{Percent: 15, Label: "Preparing image..."},
	{Percent: 30, Label: "Sending to server..."},
	{Percent: 50, Label: "Processing with Textract..."},
	{Percent: 70, Label: "Extracting text..."},
	{Percent: 85, Label: "Organizing content..."},
	{Percent: 95, Label: "Finishing..."},
}

// DefaultProgressInterval is the constant delay between scripted steps
const DefaultProgressInterval = 800 * time.Millisecond

// ProgressScript emits a fixed sequence of steps on a fixed timer
type ProgressScript struct {
	steps    []ProgressStep
	interval time.Duration
}

// NewProgressScript creates a script; nil steps or a non-positive interval use the defaults
func NewProgressScript(steps []ProgressStep, interval time.Duration) *ProgressScript {
	if steps == nil {
		steps = DefaultProgressSteps
	}
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &ProgressScript{steps: steps, interval: interval}
}

// Steps returns the scripted sequence
func (p *ProgressScript) Steps() []ProgressStep {
	return p.steps
}

// Run emits one step per tick until the script is exhausted or ctx is done.
// emit is never called after Run returns.
func (p *ProgressScript) Run(ctx context.Context, emit func(ProgressStep)) {
	if len(p.steps) == 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	next := 0
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			// A tick and cancellation can be ready together; cancellation wins.
			if ctx.Err() != nil {
				return
			}
			emit(p.steps[next])
			next++
			if next == len(p.steps) {
				return
			}
		}
	}
}
