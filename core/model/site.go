package model

import (
	"encoding/json"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site is an operational mining site taking part in a scheduling run.
type Site struct {
	SiteID   string `json:"siteId" yaml:"siteId"`
	SiteName string `json:"siteName,omitempty" yaml:"siteName,omitempty"`
	Priority int    `json:"priority" yaml:"priority"` // lower value wins
	IsActive bool   `json:"isActive" yaml:"isActive"`
	SiteType string `json:"siteType,omitempty" yaml:"siteType,omitempty"`

	// CurrentTaskID is where the site resumes its task cycle. Empty means the
	// catalog's default task.
	CurrentTaskID string `json:"currentTask" yaml:"currentTask"`
	// Firings is the number of blast cycles the site must run.
	Firings int `json:"firings" yaml:"firings"`
	// TimeToComplete overrides, in hours, the duration of the first
	// occurrence of CurrentTaskID.
	TimeToComplete Number `json:"timeToComplete" yaml:"timeToComplete"`

	TotalPlanMeters     Number `json:"totalPlanMeters" yaml:"totalPlanMeters"`
	TotalBackfillTonnes Number `json:"totalBackfillTonnes" yaml:"totalBackfillTonnes"`
	RemoteTonnes        Number `json:"remoteTonnes" yaml:"remoteTonnes"`
	Width               Number `json:"width" yaml:"width"`
	Height              Number `json:"height" yaml:"height"`
}

// SortSites orders sites active-first, then by ascending priority. The sort
// is stable so equal sites keep their input order.
func SortSites(sites []Site) []Site {
	out := append([]Site(nil), sites...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsActive != out[j].IsActive {
			return out[i].IsActive
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

// NormalizeSiteID returns the canonical upper-case form of a site identifier.
func NormalizeSiteID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// UnmarshalJSON decodes a site treating a missing isActive as true.
func (x *Site) UnmarshalJSON(b []byte) error {
	type plain Site
	p := plain{IsActive: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*x = Site(p)
	return nil
}

// UnmarshalYAML decodes a site treating a missing isActive as true.
func (x *Site) UnmarshalYAML(node *yaml.Node) error {
	type plain Site
	p := plain{IsActive: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*x = Site(p)
	return nil
}
