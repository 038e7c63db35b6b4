package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultChangeoverMinutes applies when a shift has no changeover duration.
const DefaultChangeoverMinutes = 30

// Shift is a crew shift. Changeover time before each shift start blocks
// task allocation on every active site.
type Shift struct {
	ShiftCode string `json:"shiftCode" yaml:"shiftCode"`
	ShiftName string `json:"shiftName" yaml:"shiftName"`
	// StartTime and EndTime use "HH:MM" 24-hour notation.
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`
	// ShiftChangeDuration is the changeover length in minutes.
	ShiftChangeDuration int    `json:"shiftChangeDuration" yaml:"shiftChangeDuration"`
	Color               string `json:"color,omitempty" yaml:"color,omitempty"`
	IsActive            bool   `json:"isActive" yaml:"isActive"`
}

// ChangeoverMinutes returns the changeover duration with the default applied.
func (s Shift) ChangeoverMinutes() int {
	if s.ShiftChangeDuration > 0 {
		return s.ShiftChangeDuration
	}
	return DefaultChangeoverMinutes
}

// StartHour parses the hour part of StartTime.
func (s Shift) StartHour() (int, error) {
	h, _, err := parseClock(s.StartTime)
	return h, err
}

// DurationHours returns the shift length in hours, wrapping overnight shifts.
func (s Shift) DurationHours() (float64, error) {
	sh, sm, err := parseClock(s.StartTime)
	if err != nil {
		return 0, err
	}
	eh, em, err := parseClock(s.EndTime)
	if err != nil {
		return 0, err
	}
	start := sh*60 + sm
	end := eh*60 + em
	if end < start {
		end += 24 * 60
	}
	return float64(end-start) / 60, nil
}

func parseClock(v string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", v)
	}
	return h, m, nil
}

// ActiveShifts returns the active shifts sorted by start time.
func ActiveShifts(shifts []Shift) []Shift {
	var out []Shift
	for _, s := range shifts {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// UnmarshalJSON decodes a shift treating a missing isActive as true.
func (x *Shift) UnmarshalJSON(b []byte) error {
	type plain Shift
	p := plain{IsActive: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*x = Shift(p)
	return nil
}

// UnmarshalYAML decodes a shift treating a missing isActive as true.
func (x *Shift) UnmarshalYAML(node *yaml.Node) error {
	type plain Shift
	p := plain{IsActive: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*x = Shift(p)
	return nil
}
