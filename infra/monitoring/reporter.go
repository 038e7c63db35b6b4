package monitoring

import (
	"context"
	"errors"

	"github.com/kilianp07/mineplan/core/events"
	coremon "github.com/kilianp07/mineplan/core/monitoring"
	"github.com/kilianp07/mineplan/core/schedule"
	"github.com/kilianp07/mineplan/internal/eventbus"
)

// StartFailureReporter forwards failed generations seen on bus to m.
// Validation failures are caller mistakes and are not reported.
func StartFailureReporter(ctx context.Context, bus eventbus.EventBus, m coremon.Monitor) {
	if bus == nil || m == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if f, ok := ev.(events.GenerationFailed); ok && Reportable(f.Err) {
					m.CaptureException(f.Err, map[string]string{"component": "planner"})
				}
			}
		}
	}()
}

// Reportable reports whether err indicates a fault rather than bad input.
func Reportable(err error) bool {
	if err == nil {
		return false
	}
	var verr *schedule.ValidationError
	return !errors.As(err, &verr)
}
