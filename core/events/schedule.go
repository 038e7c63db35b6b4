package events

import (
	"time"

	"github.com/kilianp07/mineplan/core/history"
	"github.com/kilianp07/mineplan/core/schedule"
)

// ScheduleGenerated is published once a record has been saved.
type ScheduleGenerated struct {
	Record  *history.Record
	Report  schedule.Report
	Sites   int
	Tasks   int
	Elapsed time.Duration
}

// GenerationFailed is published when a run does not produce a record.
type GenerationFailed struct {
	Err  error
	Time time.Time
}

// PlanChanged is published when the plan file is written by another process.
type PlanChanged struct {
	Path string
	Time time.Time
}
