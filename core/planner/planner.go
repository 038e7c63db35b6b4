// Package planner turns the current mine plan into a stored schedule. It
// loads the plan from a Source, derives shift changeover delays, runs the
// schedule engine and persists the result in the history store.
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/mineplan/core/events"
	"github.com/kilianp07/mineplan/core/history"
	"github.com/kilianp07/mineplan/core/logger"
	"github.com/kilianp07/mineplan/core/model"
	"github.com/kilianp07/mineplan/core/schedule"
	"github.com/kilianp07/mineplan/internal/eventbus"
)

// Request holds the caller supplied parameters of a run.
type Request struct {
	GridHours    int                 `json:"gridHours"`
	DelayedSlots []model.DelayedSlot `json:"delayedSlots"`
	GeneratedBy  string              `json:"generatedBy"`
	Notes        string              `json:"notes"`
}

// Planner coordinates schedule generation. Runs are serialized.
type Planner struct {
	source    Source
	store     history.Store
	engine    *schedule.Engine
	bus       eventbus.EventBus
	log       logger.Logger
	gridHours int
	now       func() time.Time

	mu sync.Mutex
}

// Option configures a Planner.
type Option func(*Planner)

// WithEngine replaces the default engine.
func WithEngine(e *schedule.Engine) Option {
	return func(p *Planner) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithBus publishes run events on bus.
func WithBus(bus eventbus.EventBus) Option {
	return func(p *Planner) { p.bus = bus }
}

// WithLogger sets the planner logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Planner) { p.log = logger.OrNop(l) }
}

// WithDefaultGridHours sets the horizon used when a request has none.
func WithDefaultGridHours(h int) Option {
	return func(p *Planner) {
		if h > 0 {
			p.gridHours = h
		}
	}
}

// New creates a Planner reading from src and saving into store.
func New(src Source, store history.Store, opts ...Option) *Planner {
	p := &Planner{
		source:    src,
		store:     store,
		engine:    schedule.NewEngine(),
		log:       logger.NopLogger{},
		gridHours: schedule.DefaultGridHours,
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Generate builds a schedule from the current plan and stores it.
func (p *Planner) Generate(ctx context.Context, req Request) (*history.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.now()
	rec, gen, err := p.generate(ctx, req)
	if err != nil {
		p.log.Errorf("schedule generation failed: %v", err)
		p.publish(events.GenerationFailed{Err: err, Time: p.now()})
		return nil, err
	}
	gen.Elapsed = p.now().Sub(start)
	requested, placed := gen.Report.Totals()
	p.log.Infow("schedule generated", map[string]any{
		"schedule_id":     rec.ID,
		"grid_hours":      rec.Result.GridHours,
		"sites":           gen.Sites,
		"tasks":           gen.Tasks,
		"delays":          len(rec.AllDelays),
		"requested_hours": requested,
		"placed_hours":    placed,
		"elapsed_ms":      gen.Elapsed.Milliseconds(),
	})
	p.publish(gen)
	return rec, nil
}

func (p *Planner) generate(ctx context.Context, req Request) (*history.Record, events.ScheduleGenerated, error) {
	var gen events.ScheduleGenerated
	plan, err := p.source.Load(ctx)
	if err != nil {
		return nil, gen, fmt.Errorf("load plan: %w", err)
	}
	gridHours := req.GridHours
	if gridHours <= 0 {
		gridHours = p.gridHours
	}

	sites := model.SortSites(plan.Sites)
	tasks := model.SortTasks(plan.Tasks)
	shifts := model.ActiveShifts(plan.Shifts)
	changeover := schedule.ChangeoverDelays(shifts, sites, gridHours)

	user := req.DelayedSlots
	if user == nil {
		user = []model.DelayedSlot{}
	}
	all := make([]model.DelayedSlot, 0, len(user)+len(changeover))
	all = append(all, user...)
	all = append(all, changeover...)

	res, rep, err := p.engine.Run(schedule.Input{
		Sites:     sites,
		Tasks:     tasks,
		Constants: model.ActiveConstants(plan.Constants),
		Delays:    all,
		GridHours: gridHours,
	})
	if err != nil {
		return nil, gen, err
	}
	if err := ctx.Err(); err != nil {
		return nil, gen, err
	}

	rec := history.NewRecord(res)
	rec.GeneratedBy = req.GeneratedBy
	rec.Notes = req.Notes
	rec.DelayedSlots = user
	rec.AllDelays = all
	rec.ShiftChangeoverDelays = changeover
	rec.Shifts = shifts
	if rec.Shifts == nil {
		rec.Shifts = []model.Shift{}
	}
	if err := p.store.Save(ctx, rec); err != nil {
		return nil, gen, fmt.Errorf("save schedule: %w", err)
	}
	gen = events.ScheduleGenerated{Record: &rec, Report: rep, Sites: len(sites), Tasks: len(tasks)}
	return &rec, gen, nil
}

func (p *Planner) publish(ev eventbus.Event) {
	if p.bus != nil {
		p.bus.Publish(ev)
	}
}

// ToggleSite flips the active flag of a site.
func (p *Planner) ToggleSite(ctx context.Context, id string) (model.Site, error) {
	return p.source.ToggleSite(ctx, id)
}

// Latest returns the most recent stored schedule.
func (p *Planner) Latest(ctx context.Context) (history.Record, error) {
	return p.store.Latest(ctx)
}

// Get returns the stored schedule with the given ID.
func (p *Planner) Get(ctx context.Context, id string) (history.Record, error) {
	return p.store.Get(ctx, id)
}

// List returns a page of schedule summaries and the total count.
func (p *Planner) List(ctx context.Context, page history.Page) ([]history.Summary, int, error) {
	return p.store.List(ctx, page)
}
