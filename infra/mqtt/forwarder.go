package mqtt

import (
	"context"
	"time"

	"github.com/kilianp07/mineplan/core/events"
	"github.com/kilianp07/mineplan/infra/logger"
	"github.com/kilianp07/mineplan/internal/eventbus"
)

// StartScheduleForwarder publishes every generated schedule seen on bus.
// It stops when ctx is canceled or the bus is closed.
func StartScheduleForwarder(ctx context.Context, bus eventbus.EventBus, pub Publisher) {
	if bus == nil || pub == nil {
		return
	}
	log := logger.New("mqtt_forwarder")
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
				gen, ok := ev.(events.ScheduleGenerated)
				if !ok || gen.Record == nil {
					continue
				}
				pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				if err := pub.PublishSchedule(pubCtx, gen.Record); err != nil {
					log.Errorf("publish schedule %s: %v", gen.Record.ID, err)
				}
				cancel()
			}
		}
	}()
}
