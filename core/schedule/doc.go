// Package schedule builds the hour-by-hour assignment grid for mining sites.
//
// A run walks the sites in the order supplied, expands each active site's
// task cycle, estimates every task's duration from its unit of measure and
// greedily places whole hours on a shared board. Capacity per task and hour
// is bounded by the task limit; sites processed first claim capacity first.
// The pass is forward-only: a site never revisits an hour it moved past and
// hours that do not fit before the horizon are dropped.
package schedule
