package schedule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	r := &Result{
		GridHours: 4,
		Grid: map[string][]string{
			"A": {"T1", "T1", "", ""},
			"B": {"", "T1", "T2", ""},
			"C": {"", "", "", ""},
		},
	}
	s := Summarize(r)
	assert.Equal(t, 4, s.FilledCells)
	assert.Equal(t, map[string]int{"T1": 3, "T2": 1}, s.TaskHours)
	assert.Equal(t, map[string]int{"A": 2, "B": 2, "C": 0}, s.SiteHours)
	assert.Equal(t, 1.0, s.MeanOccupancy)
	assert.Equal(t, 1, s.PeakHour)
	assert.Equal(t, 2, s.PeakOccupancy)
	// occupancy per hour: 1,2,1,0 -> sample std dev sqrt(2/3)
	assert.InDelta(t, math.Sqrt(2.0/3.0), s.StdDevOccupancy, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.FilledCells)
	s = Summarize(&Result{GridHours: 1, Grid: map[string][]string{"A": {""}}})
	assert.Equal(t, 0.0, s.StdDevOccupancy)
}
