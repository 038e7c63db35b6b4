package schedule

import "github.com/kilianp07/mineplan/core/model"

// Allocation asks for Hours whole hours of TaskID on SiteID.
type Allocation struct {
	SiteID string
	TaskID string
	Hours  int
	Limit  int
}

// Board accumulates the grid and the per-hour task usage of one run. Usage
// is a dense [hour][task] table sized once the catalog is known.
type Board struct {
	hours   int
	rows    map[string][]string
	taskIdx map[string]int
	taskIDs []string
	usage   [][]int
}

// NewBoard prepares an empty board of gridHours columns for tasks.
func NewBoard(gridHours int, tasks []model.Task) *Board {
	b := &Board{
		hours:   gridHours,
		rows:    make(map[string][]string),
		taskIdx: make(map[string]int, len(tasks)),
	}
	for _, t := range tasks {
		if _, ok := b.taskIdx[t.TaskID]; ok {
			continue
		}
		b.taskIdx[t.TaskID] = len(b.taskIDs)
		b.taskIDs = append(b.taskIDs, t.TaskID)
	}
	b.usage = make([][]int, gridHours)
	for h := range b.usage {
		b.usage[h] = make([]int, len(b.taskIDs))
	}
	return b
}

// Hours returns the number of grid columns.
func (b *Board) Hours() int { return b.hours }

// AddRow creates an empty row for site. It returns false when the row
// already exists.
func (b *Board) AddRow(site string) bool {
	if _, ok := b.rows[site]; ok {
		return false
	}
	b.rows[site] = make([]string, b.hours)
	return true
}

// Cell returns the task assigned to site at hour, or "".
func (b *Board) Cell(site string, hour int) string {
	row := b.rows[site]
	if hour < 0 || hour >= len(row) {
		return ""
	}
	return row[hour]
}

// Usage returns how many sites run taskID during hour.
func (b *Board) Usage(hour int, taskID string) int {
	i, ok := b.taskIdx[taskID]
	if !ok || hour < 0 || hour >= b.hours {
		return 0
	}
	return b.usage[hour][i]
}

// Allocate places req.Hours hours for the site starting at cursor and
// returns the next cursor and the number of hours placed. The cursor moves
// one hour per step whether or not the hour was used, so an hour skipped
// for a delay, an occupied cell or exhausted capacity is never retried.
// Hours still needed when the grid ends are dropped.
func (b *Board) Allocate(req Allocation, delays model.DelayIndex, cursor int) (next, placed int) {
	ti, ok := b.taskIdx[req.TaskID]
	row, hasRow := b.rows[req.SiteID]
	if !ok || !hasRow {
		return cursor, 0
	}
	remaining := req.Hours
	h := cursor
	for ; remaining > 0 && h < b.hours; h++ {
		if delays.Blocked(req.SiteID, h) {
			continue
		}
		if row[h] != "" {
			continue
		}
		if b.usage[h][ti] >= req.Limit {
			continue
		}
		row[h] = req.TaskID
		b.usage[h][ti]++
		remaining--
		placed++
	}
	return h, placed
}

// Grid returns a copy of the rows keyed by site.
func (b *Board) Grid() map[string][]string {
	out := make(map[string][]string, len(b.rows))
	for site, row := range b.rows {
		out[site] = append([]string(nil), row...)
	}
	return out
}

// HourlyAllocation returns the usage table keyed by hour then task. Every
// hour is present; tasks with zero usage are omitted.
func (b *Board) HourlyAllocation() map[int]map[string]int {
	out := make(map[int]map[string]int, b.hours)
	for h := range b.hours {
		m := map[string]int{}
		for i, n := range b.usage[h] {
			if n > 0 {
				m[b.taskIDs[i]] = n
			}
		}
		out[h] = m
	}
	return out
}
