package metrics

import (
	"time"

	"github.com/kilianp07/mineplan/core/schedule"
)

// RunEvent describes a completed schedule generation.
type RunEvent struct {
	ScheduleID       string
	GridHours        int
	Sites            int
	ActiveSites      int
	Tasks            int
	RequestedHours   int
	PlacedHours      int
	Delays           int
	ChangeoverDelays int
	Duration         time.Duration
	Summary          schedule.Summary
	Time             time.Time
}

// DroppedHours returns the hours that did not fit before the horizon.
func (e RunEvent) DroppedHours() int { return e.RequestedHours - e.PlacedHours }

// MetricsSink records schedule runs for observability purposes.
type MetricsSink interface {
	RecordScheduleRun(ev RunEvent) error
}

// SiteAllocation is the outcome of one site within a run.
type SiteAllocation struct {
	ScheduleID string
	SiteID     string
	Requested  int
	Placed     int
	Time       time.Time
}

// SiteAllocationRecorder records per-site outcomes.
type SiteAllocationRecorder interface {
	RecordSiteAllocations(allocs []SiteAllocation) error
}

// FailureEvent captures a run that did not produce a schedule.
type FailureEvent struct {
	Reason string
	Time   time.Time
}

// RunFailureRecorder records failed runs.
type RunFailureRecorder interface {
	RecordRunFailure(ev FailureEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordScheduleRun(RunEvent) error             { return nil }
func (NopSink) RecordSiteAllocations([]SiteAllocation) error { return nil }
func (NopSink) RecordRunFailure(FailureEvent) error          { return nil }
