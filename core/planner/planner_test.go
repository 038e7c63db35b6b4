package planner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/mineplan/core/events"
	"github.com/kilianp07/mineplan/core/history"
	"github.com/kilianp07/mineplan/core/model"
	"github.com/kilianp07/mineplan/core/schedule"
	"github.com/kilianp07/mineplan/internal/eventbus"
)

type memSource struct {
	mu   sync.Mutex
	plan model.Plan
	err  error
}

func (m *memSource) Load(context.Context) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Plan{}, m.err
	}
	return m.plan, nil
}

func (m *memSource) ToggleSite(_ context.Context, id string) (model.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.plan.Sites {
		if strings.EqualFold(m.plan.Sites[i].SiteID, id) {
			m.plan.Sites[i].IsActive = !m.plan.Sites[i].IsActive
			return m.plan.Sites[i], nil
		}
	}
	return model.Site{}, ErrSiteNotFound
}

func samplePlan() model.Plan {
	return model.Plan{
		Sites: []model.Site{
			{SiteID: "A", Priority: 2, IsActive: true, CurrentTaskID: "T1", Firings: 1},
			{SiteID: "B", Priority: 1, IsActive: true, CurrentTaskID: "T1", Firings: 1},
			{SiteID: "C", Priority: 0, IsActive: false},
		},
		Tasks: []model.Task{{TaskID: "T1", Order: 1, UOM: "fixed", TaskDuration: 60, Limit: 1}},
		Shifts: []model.Shift{
			{ShiftCode: "DAY", StartTime: "03:00", ShiftChangeDuration: 30, IsActive: true},
			{ShiftCode: "OFF", StartTime: "05:00", IsActive: false},
		},
	}
}

func newTestPlanner(t *testing.T, src Source, opts ...Option) (*Planner, history.Store) {
	t.Helper()
	store, err := history.NewJSONLStore(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)
	return New(src, store, opts...), store
}

func TestGenerateStoresRecord(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()
	p, store := newTestPlanner(t, &memSource{plan: samplePlan()}, WithBus(bus), WithDefaultGridHours(6))

	rec, err := p.Generate(context.Background(), Request{
		DelayedSlots: []model.DelayedSlot{{Site: "B", Hour: 0, Code: "MAINT"}},
		GeneratedBy:  "tester",
		Notes:        "night shift",
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Result)

	assert.Equal(t, 6, rec.Result.GridHours)
	assert.Equal(t, []string{"T1", "", "", "", "", ""}, rec.Result.Grid["A"])
	assert.Equal(t, []string{"", "T1", "", "", "", ""}, rec.Result.Grid["B"])
	assert.Equal(t, make([]string, 6), rec.Result.Grid["C"])
	assert.Equal(t, "tester", rec.GeneratedBy)
	assert.Equal(t, "night shift", rec.Notes)
	assert.Len(t, rec.DelayedSlots, 1)
	assert.Len(t, rec.ShiftChangeoverDelays, 2)
	assert.Len(t, rec.AllDelays, 3)
	assert.Equal(t, "MAINT", rec.AllDelays[0].Code)
	require.Len(t, rec.Shifts, 1)
	assert.Equal(t, "DAY", rec.Shifts[0].ShiftCode)

	stored, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)

	select {
	case ev := <-sub:
		gen, ok := ev.(events.ScheduleGenerated)
		require.True(t, ok, "unexpected event %T", ev)
		assert.Equal(t, rec.ID, gen.Record.ID)
		assert.Equal(t, 3, gen.Sites)
		requested, placed := gen.Report.Totals()
		assert.Equal(t, 2, requested)
		assert.Equal(t, 2, placed)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestGenerateChangeoverBlocksHour(t *testing.T) {
	plan := samplePlan()
	plan.Sites = plan.Sites[:1]
	plan.Sites[0].Priority = 1
	plan.Tasks = []model.Task{{TaskID: "T1", Order: 1, UOM: "fixed", TaskDuration: 240, Limit: 1}}
	p, _ := newTestPlanner(t, &memSource{plan: plan})

	rec, err := p.Generate(context.Background(), Request{GridHours: 6})
	require.NoError(t, err)
	// hour 2 is the changeover before the 03:00 shift
	assert.Equal(t, []string{"T1", "T1", "", "T1", "T1", ""}, rec.Result.Grid["A"])
	assert.NotNil(t, rec.DelayedSlots)
}

func TestGenerateFailures(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	p, store := newTestPlanner(t, &memSource{plan: model.Plan{Tasks: samplePlan().Tasks}}, WithBus(bus))
	_, err := p.Generate(context.Background(), Request{})
	require.ErrorIs(t, err, schedule.ErrNoSites)
	_, err = store.Latest(context.Background())
	assert.ErrorIs(t, err, history.ErrNotFound)

	ev := <-sub
	failed, ok := ev.(events.GenerationFailed)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, schedule.ErrNoSites)

	boom := errors.New("disk unavailable")
	p2, _ := newTestPlanner(t, &memSource{err: boom})
	_, err = p2.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)

	p3, _ := newTestPlanner(t, &memSource{plan: model.Plan{Sites: samplePlan().Sites}})
	_, err = p3.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, schedule.ErrNoTasks)
}

func TestToggleSiteAndHistory(t *testing.T) {
	src := &memSource{plan: samplePlan()}
	p, _ := newTestPlanner(t, src)
	ctx := context.Background()

	site, err := p.ToggleSite(ctx, "c")
	require.NoError(t, err)
	assert.True(t, site.IsActive)
	_, err = p.ToggleSite(ctx, "zzz")
	assert.ErrorIs(t, err, ErrSiteNotFound)

	first, err := p.Generate(ctx, Request{GridHours: 4})
	require.NoError(t, err)
	second, err := p.Generate(ctx, Request{GridHours: 8})
	require.NoError(t, err)

	latest, err := p.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	got, err := p.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Result.GridHours)
	list, total, err := p.List(ctx, history.Page{Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
}
