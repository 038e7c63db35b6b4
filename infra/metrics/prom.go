package metrics

import (
	coremetrics "github.com/kilianp07/mineplan/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records schedule runs in Prometheus metrics.
type PromSink struct {
	runs      prometheus.Counter
	failures  *prometheus.CounterVec
	elapsed   prometheus.Histogram
	hours     *prometheus.GaugeVec
	occupancy *prometheus.GaugeVec
	dropped   *prometheus.GaugeVec
}

// NewPromSink registers schedule metrics on the default Prometheus registerer.
// The Prometheus server is started separately using cfg.PrometheusPort.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_runs_total",
		Help: "Total number of generated schedules",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_run_failures_total",
		Help: "Schedule runs that did not produce a record",
	}, []string{"reason"})
	elapsed := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_generation_seconds",
		Help:    "Time spent building and storing a schedule",
		Buckets: prometheus.DefBuckets,
	})
	hours := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_hours",
		Help: "Task hours of the latest schedule by outcome",
	}, []string{"kind"})
	occupancy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_occupancy_cells",
		Help: "Filled cells per hour of the latest schedule",
	}, []string{"stat"})
	dropped := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_site_dropped_hours",
		Help: "Hours that did not fit before the horizon, per site",
	}, []string{"site_id"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if failures, err = register(reg, failures); err != nil {
		return nil, err
	}
	if elapsed, err = register(reg, elapsed); err != nil {
		return nil, err
	}
	if hours, err = register(reg, hours); err != nil {
		return nil, err
	}
	if occupancy, err = register(reg, occupancy); err != nil {
		return nil, err
	}
	if dropped, err = register(reg, dropped); err != nil {
		return nil, err
	}
	return &PromSink{
		runs:      runs,
		failures:  failures,
		elapsed:   elapsed,
		hours:     hours,
		occupancy: occupancy,
		dropped:   dropped,
	}, nil
}

// register returns the already registered collector when c was registered
// before, so several sinks can share the default registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordScheduleRun updates counters and the gauges describing the latest grid.
func (s *PromSink) RecordScheduleRun(ev coremetrics.RunEvent) error {
	s.runs.Inc()
	s.elapsed.Observe(ev.Duration.Seconds())
	s.hours.WithLabelValues("requested").Set(float64(ev.RequestedHours))
	s.hours.WithLabelValues("placed").Set(float64(ev.PlacedHours))
	s.hours.WithLabelValues("dropped").Set(float64(ev.DroppedHours()))
	s.occupancy.WithLabelValues("mean").Set(ev.Summary.MeanOccupancy)
	s.occupancy.WithLabelValues("stddev").Set(ev.Summary.StdDevOccupancy)
	s.occupancy.WithLabelValues("peak").Set(float64(ev.Summary.PeakOccupancy))
	return nil
}

// RecordSiteAllocations replaces the per-site dropped hours gauge.
func (s *PromSink) RecordSiteAllocations(allocs []coremetrics.SiteAllocation) error {
	s.dropped.Reset()
	for _, a := range allocs {
		s.dropped.WithLabelValues(a.SiteID).Set(float64(a.Requested - a.Placed))
	}
	return nil
}

// RecordRunFailure increments the failure counter for the given reason.
func (s *PromSink) RecordRunFailure(ev coremetrics.FailureEvent) error {
	s.failures.WithLabelValues(ev.Reason).Inc()
	return nil
}
