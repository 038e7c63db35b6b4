package schedule

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary describes how full a generated grid is.
type Summary struct {
	TaskHours   map[string]int `json:"taskHours"`
	SiteHours   map[string]int `json:"siteHours"`
	FilledCells int            `json:"filledCells"`
	// Occupancy figures are computed over the number of filled cells per hour.
	MeanOccupancy   float64 `json:"meanOccupancy"`
	StdDevOccupancy float64 `json:"stdDevOccupancy"`
	PeakHour        int     `json:"peakHour"`
	PeakOccupancy   int     `json:"peakOccupancy"`
}

// Summarize computes utilization figures for r.
func Summarize(r *Result) Summary {
	s := Summary{TaskHours: map[string]int{}, SiteHours: map[string]int{}}
	if r == nil || r.GridHours <= 0 {
		return s
	}
	perHour := make([]float64, r.GridHours)
	for site, row := range r.Grid {
		s.SiteHours[site] = 0
		for h, task := range row {
			if task == "" || h >= r.GridHours {
				continue
			}
			s.TaskHours[task]++
			s.SiteHours[site]++
			s.FilledCells++
			perHour[h]++
		}
	}
	for h, v := range perHour {
		if int(v) > s.PeakOccupancy {
			s.PeakOccupancy = int(v)
			s.PeakHour = h
		}
	}
	mean, std := stat.MeanStdDev(perHour, nil)
	if math.IsNaN(std) {
		std = 0
	}
	s.MeanOccupancy = mean
	s.StdDevOccupancy = std
	return s
}
