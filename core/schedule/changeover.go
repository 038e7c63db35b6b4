package schedule

import (
	"fmt"
	"math"

	"github.com/kilianp07/mineplan/core/model"
)

// ChangeoverDelays blocks, on every active site, the hours preceding each
// shift start. A shift starting at 06:00 with a 30 minute changeover blocks
// hour 5; grids longer than a day repeat the pattern daily. Shifts with an
// unparsable start time are skipped. When two shifts block the same hour
// the earlier one in the list labels it.
func ChangeoverDelays(shifts []model.Shift, sites []model.Site, gridHours int) []model.DelayedSlot {
	if len(shifts) == 0 || gridHours <= 0 {
		return nil
	}
	type changeover struct {
		hour    int
		shift   model.Shift
		minutes int
	}
	days := 1
	if gridHours > 24 {
		days = int(math.Ceil(float64(gridHours) / 24))
	}
	var hours []changeover
	seen := map[int]bool{}
	for _, sh := range shifts {
		start, err := sh.StartHour()
		if err != nil {
			continue
		}
		minutes := sh.ChangeoverMinutes()
		span := int(math.Ceil(float64(minutes) / 60))
		for i := range span {
			base := ((start-span+i)%24 + 24) % 24
			for day := range days {
				h := base + day*24
				if h >= gridHours || seen[h] {
					continue
				}
				seen[h] = true
				hours = append(hours, changeover{hour: h, shift: sh, minutes: minutes})
			}
		}
	}

	var out []model.DelayedSlot
	for _, site := range sites {
		if !site.IsActive {
			continue
		}
		for _, c := range hours {
			out = append(out, model.DelayedSlot{
				Site:      site.SiteID,
				Hour:      c.hour,
				Category:  "Operational",
				Code:      model.ShiftChangeCode,
				Comments:  fmt.Sprintf("Shift changeover for %s (%d min)", c.shift.ShiftCode, c.minutes),
				Duration:  1,
				Automatic: true,
				ShiftCode: c.shift.ShiftCode,
			})
		}
	}
	return out
}
