package watcher

import (
	"context"
	"time"

	"github.com/ritzau/netscene/pkg/logging"
)

// Debouncer batches rapid file system events so a table that is still being
// written is imported once, after it settles
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

// run accumulates events until no event arrived for quietPeriod, or
// maxWait passed since the first pending event
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet, deadline *time.Timer
		accumulated     = make(map[ChangeType][]string)
		seen            = make(map[string]bool)
		eventCount      int
	)

	stop := func() {
		if quiet != nil {
			quiet.Stop()
			quiet = nil
		}
		if deadline != nil {
			deadline.Stop()
			deadline = nil
		}
	}
	defer stop()

	flush := func() bool {
		stop()
		if eventCount == 0 {
			return true
		}

		logging.Debug("flushing accumulated events", "count", eventCount)

		// Node tables first, then edge tables
		for _, t := range []ChangeType{ChangeTypeNodeTable, ChangeTypeEdgeTable} {
			paths := accumulated[t]
			if len(paths) == 0 {
				continue
			}
			select {
			case d.output <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}:
			case <-ctx.Done():
				return false
			}
		}

		accumulated = make(map[ChangeType][]string)
		seen = make(map[string]bool)
		eventCount = 0
		return true
	}

	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					accumulated[event.Type] = append(accumulated[event.Type], p)
				}
			}
			eventCount++

			// Reset quiet period timer
			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(d.quietPeriod)
			}

			// Start max wait timer on first event
			if deadline == nil {
				deadline = time.NewTimer(d.maxWait)
			}

		case <-timerC(quiet):
			quiet = nil
			if !flush() {
				return
			}

		case <-timerC(deadline):
			deadline = nil
			if !flush() {
				return
			}
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
