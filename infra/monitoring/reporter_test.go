package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/mineplan/config"
	"github.com/kilianp07/mineplan/core/events"
	coremon "github.com/kilianp07/mineplan/core/monitoring"
	"github.com/kilianp07/mineplan/core/schedule"
	"github.com/kilianp07/mineplan/internal/eventbus"
)

type captureMonitor struct {
	mu   sync.Mutex
	errs []error
}

func (c *captureMonitor) CaptureException(err error, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}
func (c *captureMonitor) Recover()            {}
func (c *captureMonitor) Flush(time.Duration) {}

func (c *captureMonitor) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

func TestReportable(t *testing.T) {
	assert.False(t, Reportable(nil))
	assert.False(t, Reportable(schedule.ErrNoSites))
	assert.False(t, Reportable(fmt.Errorf("run: %w", schedule.ErrNoTasks)))
	assert.True(t, Reportable(errors.New("disk full")))
}

func TestFailureReporter(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	mon := &captureMonitor{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartFailureReporter(ctx, bus, mon)
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(events.GenerationFailed{Err: schedule.ErrNoSites, Time: time.Now()})
	bus.Publish(events.PlanChanged{Path: "plan.yaml"})
	bus.Publish(events.GenerationFailed{Err: errors.New("store closed"), Time: time.Now()})

	require.Eventually(t, func() bool { return mon.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitorWithDSN(t *testing.T) {
	cfg := config.SentryConfig{DSN: "https://public@o0.ingest.sentry.io/1", ServerName: "plan-01"}
	cfg.SetDefaults()
	m, err := NewSentryMonitor(cfg)
	require.NoError(t, err)
	sm, ok := m.(*sentryMonitor)
	require.True(t, ok)
	assert.Equal(t, "plan-01", sm.hub.Client().Options().ServerName)
	assert.Equal(t, "production", sm.hub.Client().Options().Environment)
	assert.Equal(t, 2*time.Second, sm.recoverFlush)
	sm.CaptureException(errors.New("boom"), map[string]string{"component": "planner"})
	sm.Flush(10 * time.Millisecond)
}

func TestNewSentryMonitorBadDSN(t *testing.T) {
	_, err := NewSentryMonitor(config.SentryConfig{DSN: "::not a dsn"})
	assert.Error(t, err)
}
