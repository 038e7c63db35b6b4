// Package events defines the planner events emitted on the event bus.
//
// Available event types:
//   - ScheduleGenerated: a schedule was built and persisted
//   - GenerationFailed: a run was rejected or could not be stored
//   - PlanChanged: the plan source was modified on disk
package events
