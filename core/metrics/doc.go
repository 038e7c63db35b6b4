// Package metrics defines the observability contract of the planner.
// Sinks record schedule runs, per-site allocation outcomes and failed runs.
// Optional capabilities are separate interfaces that MultiSink forwards to
// when a sink implements them. Concrete sinks live in infra/metrics and are
// built from configuration through the factory registry.
package metrics
