package watcher

import (
	"context"
	"time"

	"github.com/vadviktor/icebreaker/pkg/logging"
)

// Debouncer batches rapid file system events to avoid rebuilding on every keystroke
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run processes events and applies debouncing logic. All state lives in this
// goroutine: timers are drained through the select loop rather than firing
// callbacks, so flushes never run concurrently with accumulation.
func (d *Debouncer) run(ctx context.Context) {
	var (
		quietTimer  *time.Timer
		maxTimer    *time.Timer
		accumulated = make(map[ChangeType][]string)
		eventCount  int
	)

	// timerC yields nil for an unarmed timer, which blocks that select case
	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	flush := func() {
		if eventCount == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", eventCount)

		// Send events in order: config changes first (they force a full
		// rebuild), then sources, then styles
		for _, changeType := range []ChangeType{ChangeTypeConfig, ChangeTypeSource, ChangeTypeStyle} {
			if paths := accumulated[changeType]; len(paths) > 0 {
				d.output <- ChangeEvent{
					Type:      changeType,
					Paths:     paths,
					Timestamp: time.Now(),
				}
			}
		}

		// Reset accumulators and disarm timers
		accumulated = make(map[ChangeType][]string)
		eventCount = 0

		if quietTimer != nil {
			quietTimer.Stop()
			quietTimer = nil
		}
		if maxTimer != nil {
			maxTimer.Stop()
			maxTimer = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			// Accumulate event
			accumulated[event.Type] = append(accumulated[event.Type], event.Paths...)
			eventCount++

			// Reset quiet period timer
			if quietTimer == nil {
				quietTimer = time.NewTimer(d.quietPeriod)
			} else {
				quietTimer.Reset(d.quietPeriod)
			}

			// Start max wait timer on first event
			if maxTimer == nil {
				maxTimer = time.NewTimer(d.maxWait)
			}

		case <-timerC(quietTimer):
			quietTimer = nil
			flush()

		case <-timerC(maxTimer):
			maxTimer = nil
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
