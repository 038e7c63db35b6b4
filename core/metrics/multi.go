package metrics

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordScheduleRun forwards the run to all sinks, returning the first error.
func (m *MultiSink) RecordScheduleRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordScheduleRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSiteAllocations forwards to sinks implementing SiteAllocationRecorder.
func (m *MultiSink) RecordSiteAllocations(allocs []SiteAllocation) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SiteAllocationRecorder); ok {
			if err := rec.RecordSiteAllocations(allocs); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRunFailure forwards to sinks implementing RunFailureRecorder.
func (m *MultiSink) RecordRunFailure(ev FailureEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RunFailureRecorder); ok {
			if err := rec.RecordRunFailure(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
