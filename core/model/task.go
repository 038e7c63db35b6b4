package model

import "sort"

// DefaultTaskLimit applies when a task does not declare a positive limit.
const DefaultTaskLimit = 2

// DefaultTaskColor is used for display when a task has no color.
const DefaultTaskColor = "#3498db"

// Task is an entry of the ordered task catalog.
type Task struct {
	TaskID   string `json:"taskId" yaml:"taskId"`
	TaskName string `json:"taskName,omitempty" yaml:"taskName,omitempty"`
	TaskType string `json:"taskType,omitempty" yaml:"taskType,omitempty"`
	Order    int    `json:"order" yaml:"order"`
	// UOM is the free-text unit of measure selecting the duration rule.
	UOM  string `json:"uom" yaml:"uom"`
	Rate Number `json:"rate" yaml:"rate"`
	// TaskDuration is the fixed duration in minutes.
	TaskDuration Number `json:"taskDuration" yaml:"taskDuration"`
	// Limit caps how many sites may run the task in the same hour.
	Limit int    `json:"limits" yaml:"limits"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// EffectiveLimit returns Limit, or DefaultTaskLimit when it is not positive.
func (t Task) EffectiveLimit() int {
	if t.Limit > 0 {
		return t.Limit
	}
	return DefaultTaskLimit
}

// EffectiveColor returns Color, or DefaultTaskColor when empty.
func (t Task) EffectiveColor() string {
	if t.Color != "" {
		return t.Color
	}
	return DefaultTaskColor
}

// SortTasks returns a copy of tasks stably sorted by Order.
func SortTasks(tasks []Task) []Task {
	out := append([]Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// DefaultTask returns the task with order 1, falling back to the first
// entry of the catalog. ok is false for an empty catalog.
func DefaultTask(tasks []Task) (Task, bool) {
	for _, t := range tasks {
		if t.Order == 1 {
			return t, true
		}
	}
	if len(tasks) == 0 {
		return Task{}, false
	}
	return tasks[0], true
}
