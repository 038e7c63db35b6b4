package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is a float64 that decodes leniently. Strings holding a number are
// accepted; anything that is not a finite number decodes to 0 instead of
// failing the whole document.
type Number float64

// Float returns the value, or 0 when it is NaN or infinite.
func (n Number) Float() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseNumber converts s to a finite float, returning 0 on failure.
func ParseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return Number(f).Float()
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(ParseNumber(s))
		return nil
	}
	*n = Number(ParseNumber(string(b)))
	return nil
}

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*n = 0
		return nil
	}
	*n = Number(ParseNumber(node.Value))
	return nil
}
