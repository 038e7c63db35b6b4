package model

import (
	"encoding/json"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keywords consumed by the duration estimator.
const (
	ConstWidth   = "WIDTH"
	ConstHeight  = "HEIGHT"
	ConstDensity = "DENSITY"
)

// Constant is a named global value such as the default drive width.
type Constant struct {
	Keyword     string `json:"keyword" yaml:"keyword"`
	Value       Number `json:"value" yaml:"value"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	IsActive    bool   `json:"isActive" yaml:"isActive"`
}

// Constants maps upper-case keywords to values.
type Constants map[string]float64

// ActiveConstants builds the keyword map from the active entries.
func ActiveConstants(list []Constant) Constants {
	out := Constants{}
	for _, c := range list {
		if !c.IsActive {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(c.Keyword))] = c.Value.Float()
	}
	return out
}

// Get returns the value for key or def when absent or not finite.
func (c Constants) Get(key string, def float64) float64 {
	v, ok := c[key]
	if !ok {
		return def
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// UnmarshalJSON decodes a constant treating a missing isActive as true.
func (x *Constant) UnmarshalJSON(b []byte) error {
	type plain Constant
	p := plain{IsActive: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*x = Constant(p)
	return nil
}

// UnmarshalYAML decodes a constant treating a missing isActive as true.
func (x *Constant) UnmarshalYAML(node *yaml.Node) error {
	type plain Constant
	p := plain{IsActive: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*x = Constant(p)
	return nil
}
