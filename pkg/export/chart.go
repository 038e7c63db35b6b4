package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/mineplan/core/history"
)

// WriteHTML renders the hourly allocation as a stacked bar chart with one
// series per task, colored with the task's display color.
func WriteHTML(w io.Writer, rec history.Record) error {
	if rec.Result == nil {
		return fmt.Errorf("schedule %s has no result", rec.ID)
	}
	res := rec.Result

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Schedule " + rec.ID, Subtitle: rec.GeneratedAt.Format("2006-01-02 15:04")}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sites"}),
	)

	hours := make([]string, res.GridHours)
	for h := range hours {
		hours[h] = strconv.Itoa(h + 1)
	}
	bar.SetXAxis(hours)

	for _, task := range chartTasks(rec) {
		data := make([]opts.BarData, res.GridHours)
		for h := range data {
			data[h] = opts.BarData{Value: res.HourlyAllocation[h][task]}
		}
		seriesOpts := []charts.SeriesOpts{charts.WithBarChartOpts(opts.BarChart{Stack: "sites"})}
		if c := res.TaskColors[task]; c != "" {
			seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: c}))
		}
		bar.AddSeries(task, data, seriesOpts...)
	}

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// chartTasks returns the tasks that occupy at least one cell, sorted by ID.
func chartTasks(rec history.Record) []string {
	seen := make(map[string]bool)
	for _, byTask := range rec.Result.HourlyAllocation {
		for task, n := range byTask {
			if n > 0 {
				seen[task] = true
			}
		}
	}
	tasks := make([]string, 0, len(seen))
	for t := range seen {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)
	return tasks
}
