// Package export renders stored schedules for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/kilianp07/mineplan/core/history"
	"github.com/kilianp07/mineplan/core/model"
)

// unrankedPriority sorts sites without a priority after ranked ones.
const unrankedPriority = 999

// WriteJSON writes the record to w in JSON format.
func WriteJSON(w io.Writer, rec history.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// SiteOrder returns the grid rows active first, then by priority, then by ID.
func SiteOrder(rec history.Record) []string {
	if rec.Result == nil {
		return nil
	}
	res := rec.Result
	sites := make([]string, 0, len(res.Grid))
	for id := range res.Grid {
		sites = append(sites, id)
	}
	prio := func(id string) int {
		if p, ok := res.SitePriority[id]; ok && p != 0 {
			return p
		}
		return unrankedPriority
	}
	sort.Slice(sites, func(i, j int) bool {
		a, b := sites[i], sites[j]
		if res.SiteActive[a] != res.SiteActive[b] {
			return res.SiteActive[a]
		}
		if prio(a) != prio(b) {
			return prio(a) < prio(b)
		}
		return a < b
	})
	return sites
}

type cellDelay struct {
	code      string
	shiftCode string
	automatic bool
	shift     bool
}

func delayCells(rec history.Record) map[string]map[int]cellDelay {
	out := map[string]map[int]cellDelay{}
	put := func(d model.DelayedSlot, shift bool) {
		if d.Site == "" || d.Hour < 0 {
			return
		}
		if out[d.Site] == nil {
			out[d.Site] = map[int]cellDelay{}
		}
		c := out[d.Site][d.Hour]
		if shift {
			c.shift = true
			c.shiftCode = d.ShiftCode
		} else {
			c.code = d.Code
			c.automatic = d.Automatic
		}
		out[d.Site][d.Hour] = c
	}
	for _, d := range rec.AllDelays {
		put(d, false)
	}
	for _, d := range rec.ShiftChangeoverDelays {
		put(d, true)
	}
	return out
}

func (c cellDelay) label() string {
	switch {
	case c.shift:
		return fmt.Sprintf("[SHIFT: %s]", c.shiftCode)
	case c.automatic:
		return "[AUTO DELAY]"
	default:
		return fmt.Sprintf("[DELAY: %s]", c.code)
	}
}

// WriteCSV writes the grid with one row per site and one column per hour.
// Delayed cells are replaced by a marker naming the delay.
func WriteCSV(w io.Writer, rec history.Record) error {
	if rec.Result == nil {
		return fmt.Errorf("schedule %s has no result", rec.ID)
	}
	res := rec.Result
	cw := csv.NewWriter(w)
	header := []string{"Priority", "Site", "Status"}
	for h := 0; h < res.GridHours; h++ {
		header = append(header, "Hour "+strconv.Itoa(h+1))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	delays := delayCells(rec)
	for _, site := range SiteOrder(rec) {
		prio := ""
		if p := res.SitePriority[site]; p != 0 {
			prio = strconv.Itoa(p)
		}
		status := "Inactive"
		if res.SiteActive[site] {
			status = "Active"
		}
		row := []string{prio, site, status}
		cells := res.Grid[site]
		for h := 0; h < res.GridHours; h++ {
			if d, ok := delays[site][h]; ok {
				row = append(row, d.label())
				continue
			}
			task := ""
			if h < len(cells) {
				task = cells[h]
			}
			row = append(row, task)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
