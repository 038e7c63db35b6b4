package model

// Plan is the read-only snapshot a scheduling run works from.
type Plan struct {
	Sites     []Site     `json:"sites" yaml:"sites"`
	Tasks     []Task     `json:"tasks" yaml:"tasks"`
	Constants []Constant `json:"constants" yaml:"constants"`
	Shifts    []Shift    `json:"shifts" yaml:"shifts"`
}
