package schedule

// DefaultGridHours is the horizon used when none is requested.
const DefaultGridHours = 24

// Result is the output of one run.
type Result struct {
	// Grid holds, per site, one entry per hour: a task ID or "".
	Grid             map[string][]string    `json:"grid"`
	HourlyAllocation map[int]map[string]int `json:"hourlyAllocation"`
	// TaskDurations is keyed by "site:task".
	TaskDurations map[string]Duration `json:"taskDurations"`
	SitePriority  map[string]int      `json:"sitePriority"`
	SiteActive    map[string]bool     `json:"siteActive"`
	TaskColors    map[string]string   `json:"taskColors"`
	TaskLimits    map[string]int      `json:"taskLimits"`
	GridHours     int                 `json:"gridHours"`
}

// DurationKey builds the TaskDurations key.
func DurationKey(siteID, taskID string) string { return siteID + ":" + taskID }

// SiteReport describes what happened to one site during a run.
type SiteReport struct {
	SiteID    string `json:"siteId"`
	Active    bool   `json:"active"`
	CycleLen  int    `json:"cycleLength"`
	Requested int    `json:"requestedHours"`
	Placed    int    `json:"placedHours"`
}

// Dropped returns the hours that did not fit before the horizon.
func (r SiteReport) Dropped() int { return r.Requested - r.Placed }

// Report collects per-site diagnostics. It is not part of Result.
type Report struct {
	Sites []SiteReport `json:"sites"`
}

// Totals sums requested and placed hours over all sites.
func (r Report) Totals() (requested, placed int) {
	for _, s := range r.Sites {
		requested += s.Requested
		placed += s.Placed
	}
	return requested, placed
}
