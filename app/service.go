// Package app assembles the schedule service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	apischedule "github.com/kilianp07/mineplan/api/schedule"
	"github.com/kilianp07/mineplan/config"
	"github.com/kilianp07/mineplan/core/events"
	"github.com/kilianp07/mineplan/core/history"
	coremetrics "github.com/kilianp07/mineplan/core/metrics"
	coremon "github.com/kilianp07/mineplan/core/monitoring"
	"github.com/kilianp07/mineplan/core/planner"
	"github.com/kilianp07/mineplan/infra/logger"
	"github.com/kilianp07/mineplan/infra/metrics"
	"github.com/kilianp07/mineplan/infra/monitoring"
	"github.com/kilianp07/mineplan/infra/mqtt"
	"github.com/kilianp07/mineplan/infra/planfile"
	"github.com/kilianp07/mineplan/internal/eventbus"
)

// Service owns the planner and the triggers that drive it: the HTTP API, the
// cron schedule and the plan file watcher.
type Service struct {
	Planner *planner.Planner

	cfg       *config.Config
	store     history.Store
	source    *planfile.FileSource
	sink      coremetrics.MetricsSink
	publisher mqtt.Publisher
	monitor   coremon.Monitor
	bus       *eventbus.Bus
	changes   *eventbus.TypedBus[events.PlanChanged]
	log       logger.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if cfg.Planning.PlanFile == "" {
		return nil, errors.New("planning.plan_file is required")
	}
	logg := logger.New("service")

	source, err := planfile.New(cfg.Planning.PlanFile)
	if err != nil {
		return nil, fmt.Errorf("plan file: %w", err)
	}
	store, err := history.OpenConfig(cfg.History.Store())
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	var pub mqtt.Publisher
	if cfg.MQTT.Enabled() {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		pub = client
	}

	bus := eventbus.New()
	p := planner.New(source, store,
		planner.WithBus(bus),
		planner.WithLogger(logger.New("planner")),
		planner.WithDefaultGridHours(cfg.Planning.GridHours),
	)
	return &Service{
		Planner:   p,
		cfg:       cfg,
		store:     store,
		source:    source,
		sink:      sink,
		publisher: pub,
		monitor:   mon,
		bus:       bus,
		changes:   eventbus.NewTyped[events.PlanChanged](),
		log:       logg,
	}, nil
}

// Handler returns the HTTP API configured from the http section.
func (s *Service) Handler() http.Handler {
	return apischedule.NewHandler(s.Planner, apischedule.Options{
		Token:        s.cfg.HTTP.Token,
		Limiter:      apischedule.NewRateLimiter(s.cfg.HTTP.RateLimit, s.cfg.HTTP.RateBurst),
		MaxGridHours: config.MaxGridHours,
		Log:          logger.New("api"),
	})
}

// Regenerate runs the planner with the configured defaults. trigger is
// recorded in the schedule notes.
func (s *Service) Regenerate(ctx context.Context, trigger string) (*history.Record, error) {
	return s.Planner.Generate(ctx, planner.Request{
		GridHours:   s.cfg.Planning.GridHours,
		GeneratedBy: s.cfg.Planning.GeneratedBy,
		Notes:       "triggered by " + trigger,
	})
}

// Run starts every trigger and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	monitoring.StartFailureReporter(ctx, s.bus, s.monitor)
	if s.publisher != nil {
		mqtt.StartScheduleForwarder(ctx, s.bus, s.publisher)
	}
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		if err := metrics.StartPromServer(ctx, port); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}
	if err := s.startCron(ctx); err != nil {
		return err
	}
	if s.cfg.Planning.Watch {
		s.startWatch(ctx)
	}

	srv := &http.Server{
		Addr:              s.cfg.HTTP.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.HTTP.ReadTimeout(),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startCron schedules periodic regeneration when planning.cron is set.
func (s *Service) startCron(ctx context.Context) error {
	if s.cfg.Planning.Cron == "" {
		return nil
	}
	loc, err := s.cfg.Planning.Location()
	if err != nil {
		return err
	}
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.log}), cron.Recover(cronLogger{s.log})),
	)
	if _, err := c.AddFunc(s.cfg.Planning.Cron, func() {
		if _, err := s.Regenerate(ctx, "cron"); err != nil {
			s.log.Warnf("scheduled generation: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("cron: %w", err)
	}
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	s.log.Infof("cron regeneration %q in %s", s.cfg.Planning.Cron, loc)
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// startWatch regenerates the schedule whenever the plan file changes.
func (s *Service) startWatch(ctx context.Context) {
	sub := s.changes.Subscribe()
	go func() {
		defer s.monitor.Recover()
		defer s.changes.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				s.bus.Publish(ev)
				if _, err := s.Regenerate(ctx, "plan change"); err != nil {
					s.log.Warnf("regenerate after %s changed: %v", ev.Path, err)
				}
			}
		}
	}()
	go func() {
		if err := s.source.Watch(ctx, s.cfg.Planning.WatchDebounce(), s.changes.Publish); err != nil {
			s.log.Errorf("plan watcher: %v", err)
		}
	}()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.mu.Unlock()
	s.changes.Close()
	s.bus.Close()
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.monitor.Flush(2 * time.Second)
	return s.store.Close()
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct{ log logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := kvFields(keysAndValues)
	l.log.Errorf("%s: %v %v", msg, err, fields)
}

func kvFields(kv []any) map[string]any {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
