package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/mineplan/core/schedule"
)

// MaxGridHours is the longest horizon a run may cover.
const MaxGridHours = 168

// CronParser accepts standard five-field expressions and descriptors such as
// "@hourly".
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// PlanningConfig defines where the plan comes from and when it is scheduled.
type PlanningConfig struct {
	// PlanFile is the YAML or JSON file holding sites, tasks, constants and shifts.
	PlanFile string `json:"plan_file"`
	// GridHours is the default horizon of a run.
	GridHours int `json:"grid_hours"`
	// Cron triggers periodic regeneration when set.
	Cron string `json:"cron"`
	// Timezone is the IANA location the cron expression is evaluated in.
	Timezone string `json:"timezone"`
	// Watch regenerates the schedule when the plan file changes.
	Watch           bool `json:"watch"`
	WatchDebounceMS int  `json:"watch_debounce_ms"`
	// GeneratedBy is recorded on runs not triggered through the API.
	GeneratedBy string `json:"generated_by"`
}

// SetDefaults applies sane defaults.
func (c *PlanningConfig) SetDefaults() {
	if c.GridHours == 0 {
		c.GridHours = schedule.DefaultGridHours
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.WatchDebounceMS <= 0 {
		c.WatchDebounceMS = 250
	}
	if c.GeneratedBy == "" {
		c.GeneratedBy = "scheduler"
	}
}

// Validate checks the horizon, the cron expression and the timezone.
func (c PlanningConfig) Validate() error {
	if c.GridHours < 1 || c.GridHours > MaxGridHours {
		return fmt.Errorf("planning: grid_hours must be between 1 and %d", MaxGridHours)
	}
	if c.Cron != "" {
		if _, err := CronParser.Parse(c.Cron); err != nil {
			return fmt.Errorf("planning: invalid cron %q: %w", c.Cron, err)
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("planning: %w", err)
	}
	if (c.Cron != "" || c.Watch) && c.PlanFile == "" {
		return fmt.Errorf("planning: plan_file is required for cron or watch")
	}
	return nil
}

// Location resolves Timezone.
func (c PlanningConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// WatchDebounce returns the debounce as a duration.
func (c PlanningConfig) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}
