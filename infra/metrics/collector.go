package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/mineplan/core/events"
	coremetrics "github.com/kilianp07/mineplan/core/metrics"
	"github.com/kilianp07/mineplan/core/schedule"
	"github.com/kilianp07/mineplan/infra/logger"
	"github.com/kilianp07/mineplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// planner events. It stops when the context is canceled or the bus closes.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	log := logger.New("metrics-collector")
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
				if err := Collect(sink, ev); err != nil {
					log.Errorf("record metrics: %v", err)
				}
			}
		}
	}()
}

// Collect records a single bus event on sink. Unknown events are ignored.
func Collect(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.ScheduleGenerated:
		run := RunEventFrom(e)
		if err := sink.RecordScheduleRun(run); err != nil {
			return err
		}
		if r, ok := sink.(coremetrics.SiteAllocationRecorder); ok {
			return r.RecordSiteAllocations(siteAllocations(run.ScheduleID, run.Time, e.Report))
		}
	case events.GenerationFailed:
		if r, ok := sink.(coremetrics.RunFailureRecorder); ok {
			return r.RecordRunFailure(coremetrics.FailureEvent{Reason: failureReason(e.Err), Time: e.Time})
		}
	}
	return nil
}

// RunEventFrom converts a planner event into the metrics representation.
func RunEventFrom(e events.ScheduleGenerated) coremetrics.RunEvent {
	run := coremetrics.RunEvent{
		Sites:    e.Sites,
		Tasks:    e.Tasks,
		Duration: e.Elapsed,
		Time:     time.Now(),
	}
	run.RequestedHours, run.PlacedHours = e.Report.Totals()
	for _, s := range e.Report.Sites {
		if s.Active {
			run.ActiveSites++
		}
	}
	if rec := e.Record; rec != nil {
		run.ScheduleID = rec.ID
		run.Time = rec.GeneratedAt
		run.Delays = len(rec.AllDelays)
		run.ChangeoverDelays = len(rec.ShiftChangeoverDelays)
		if rec.Result != nil {
			run.GridHours = rec.Result.GridHours
			run.Summary = schedule.Summarize(rec.Result)
		}
	}
	return run
}

func siteAllocations(id string, at time.Time, rep schedule.Report) []coremetrics.SiteAllocation {
	out := make([]coremetrics.SiteAllocation, 0, len(rep.Sites))
	for _, s := range rep.Sites {
		if !s.Active {
			continue
		}
		out = append(out, coremetrics.SiteAllocation{
			ScheduleID: id,
			SiteID:     s.SiteID,
			Requested:  s.Requested,
			Placed:     s.Placed,
			Time:       at,
		})
	}
	return out
}

func failureReason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, schedule.ErrNoSites):
		return "no_sites"
	case errors.Is(err, schedule.ErrNoTasks):
		return "no_tasks"
	default:
		return "internal"
	}
}
