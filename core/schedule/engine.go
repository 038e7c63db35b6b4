package schedule

import (
	"github.com/kilianp07/mineplan/core/logger"
	"github.com/kilianp07/mineplan/core/model"
)

// Input is everything a run reads. Sites are processed in the given order;
// callers normally pass them through model.SortSites.
type Input struct {
	Sites     []model.Site
	Tasks     []model.Task
	Constants model.Constants
	Delays    []model.DelayedSlot
	GridHours int
}

// Engine runs the greedy schedule generation. It holds no per-run state and
// may be reused.
type Engine struct {
	estimator *Estimator
	log       logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEstimator replaces the default duration estimator.
func WithEstimator(e *Estimator) Option {
	return func(en *Engine) {
		if e != nil {
			en.estimator = e
		}
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(en *Engine) { en.log = logger.OrNop(l) }
}

// NewEngine creates an Engine with the default rules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{estimator: NewEstimator(), log: logger.NopLogger{}}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Generate computes the schedule for in.
func (e *Engine) Generate(in Input) (*Result, error) {
	res, _, err := e.Run(in)
	return res, err
}

// Run computes the schedule and a per-site report of requested and placed
// hours.
func (e *Engine) Run(in Input) (*Result, Report, error) {
	if len(in.Sites) == 0 {
		return nil, Report{}, ErrNoSites
	}
	if len(in.Tasks) == 0 {
		return nil, Report{}, ErrNoTasks
	}
	hours := in.GridHours
	if hours <= 0 {
		hours = DefaultGridHours
	}
	tasks := model.SortTasks(in.Tasks)

	res := &Result{
		TaskDurations: map[string]Duration{},
		SitePriority:  map[string]int{},
		SiteActive:    map[string]bool{},
		TaskColors:    map[string]string{},
		TaskLimits:    map[string]int{},
		GridHours:     hours,
	}
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.TaskID] = t
		res.TaskLimits[t.TaskID] = t.EffectiveLimit()
		res.TaskColors[t.TaskID] = t.EffectiveColor()
	}
	defaultTask, _ := model.DefaultTask(tasks)
	delays := model.NewDelayIndex(in.Delays, hours)
	board := NewBoard(hours, tasks)
	cursors := map[string]int{}

	e.log.Debugw("schedule run started", map[string]any{
		"sites":      len(in.Sites),
		"tasks":      len(tasks),
		"grid_hours": hours,
	})

	var report Report
	for _, site := range in.Sites {
		id := site.SiteID
		res.SitePriority[id] = site.Priority
		res.SiteActive[id] = site.IsActive
		if board.AddRow(id) {
			cursors[id] = 0
		}
		if !site.IsActive {
			report.Sites = append(report.Sites, SiteReport{SiteID: id})
			continue
		}
		sr := e.runSite(site, defaultTask.TaskID, tasks, byID, in.Constants, delays, board, cursors, res)
		if d := sr.Dropped(); d > 0 {
			e.log.Warnf("site %s: %d of %d hours did not fit in %d-hour grid", id, d, sr.Requested, hours)
		}
		report.Sites = append(report.Sites, sr)
	}

	res.Grid = board.Grid()
	res.HourlyAllocation = board.HourlyAllocation()
	requested, placed := report.Totals()
	e.log.Debugw("schedule run finished", map[string]any{
		"requested_hours": requested,
		"placed_hours":    placed,
	})
	return res, report, nil
}

func (e *Engine) runSite(
	site model.Site,
	defaultTaskID string,
	tasks []model.Task,
	byID map[string]model.Task,
	constants model.Constants,
	delays model.DelayIndex,
	board *Board,
	cursors map[string]int,
	res *Result,
) SiteReport {
	id := site.SiteID
	current := site.CurrentTaskID
	if current == "" {
		current = defaultTaskID
	}
	cycle := BuildCycle(current, site.Firings, tasks)
	sr := SiteReport{SiteID: id, Active: true, CycleLen: len(cycle)}

	overrideUsed := false
	ttc := site.TimeToComplete.Float()
	for _, taskID := range cycle {
		task, ok := byID[taskID]
		if !ok {
			continue
		}
		var d Duration
		if taskID == current && !overrideUsed && ttc > 0 {
			d = FromHours(ttc)
			overrideUsed = true
		} else {
			d = e.estimator.Estimate(task, site, constants)
		}
		res.TaskDurations[DurationKey(id, taskID)] = d
		slots := d.Slots()
		if slots == 0 {
			continue
		}
		next, placed := board.Allocate(Allocation{
			SiteID: id,
			TaskID: taskID,
			Hours:  slots,
			Limit:  task.EffectiveLimit(),
		}, delays, cursors[id])
		cursors[id] = next
		sr.Requested += slots
		sr.Placed += placed
	}
	e.log.Debugw("site scheduled", map[string]any{
		"site":      id,
		"cycle_len": sr.CycleLen,
		"requested": sr.Requested,
		"placed":    sr.Placed,
	})
	return sr
}
