package model

import "encoding/json"

// ShiftChangeCode marks delays generated from shift changeovers.
const ShiftChangeCode = "SHIFT_CHANGE"

// DelayedSlot blocks one hour of the grid for one site.
type DelayedSlot struct {
	Site      string `json:"site"`
	Hour      int    `json:"hour"`
	Category  string `json:"category,omitempty"`
	Code      string `json:"code,omitempty"`
	Comments  string `json:"comments,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Automatic bool   `json:"isAutomatic,omitempty"`
	ShiftCode string `json:"shiftCode,omitempty"`
}

// UnmarshalJSON accepts the "row" and "hourIndex" aliases used by grid
// editors. A slot without any hour decodes with Hour -1 so it is ignored.
func (d *DelayedSlot) UnmarshalJSON(b []byte) error {
	type plain DelayedSlot
	var raw struct {
		plain
		Row       string `json:"row"`
		Hour      *int   `json:"hour"`
		HourIndex *int   `json:"hourIndex"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = DelayedSlot(raw.plain)
	if raw.Row != "" {
		d.Site = raw.Row
	}
	switch {
	case raw.Hour != nil:
		d.Hour = *raw.Hour
	case raw.HourIndex != nil:
		d.Hour = *raw.HourIndex
	default:
		d.Hour = -1
	}
	return nil
}

// DelayIndex maps a site to its blocked hours.
type DelayIndex map[string]map[int]struct{}

// NewDelayIndex keeps the slots naming a site with an hour inside
// [0, gridHours). Duplicates collapse.
func NewDelayIndex(slots []DelayedSlot, gridHours int) DelayIndex {
	idx := DelayIndex{}
	for _, s := range slots {
		if s.Site == "" || s.Hour < 0 || s.Hour >= gridHours {
			continue
		}
		set, ok := idx[s.Site]
		if !ok {
			set = map[int]struct{}{}
			idx[s.Site] = set
		}
		set[s.Hour] = struct{}{}
	}
	return idx
}

// Blocked reports whether hour is blocked for site.
func (d DelayIndex) Blocked(site string, hour int) bool {
	_, ok := d[site][hour]
	return ok
}
