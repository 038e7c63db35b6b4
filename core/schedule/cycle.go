package schedule

import "github.com/kilianp07/mineplan/core/model"

// BuildCycle returns the task IDs a site attempts during one run. tasks must
// be sorted by order. The cycle starts at currentTaskID, or at the first
// task when it is unknown. A single firing runs to the end of the catalog
// without wrapping; more firings repeat a full wrap-around pass once per
// firing.
func BuildCycle(currentTaskID string, firings int, tasks []model.Task) []string {
	n := len(tasks)
	if n == 0 {
		return nil
	}
	start := 0
	for i, t := range tasks {
		if t.TaskID == currentTaskID {
			start = i
			break
		}
	}
	cycles := max(1, firings)
	if cycles == 1 {
		out := make([]string, 0, n-start)
		for _, t := range tasks[start:] {
			out = append(out, t.TaskID)
		}
		return out
	}
	pass := make([]string, n)
	for i := range n {
		pass[i] = tasks[(start+i)%n].TaskID
	}
	out := make([]string, 0, n*cycles)
	for range cycles {
		out = append(out, pass...)
	}
	return out
}
