package schedule

import (
	"math"
	"strings"

	"github.com/kilianp07/mineplan/core/model"
)

// Fallbacks used when neither the site nor the constants provide a value.
const (
	DefaultWidth   = 5.0
	DefaultHeight  = 4.0
	DefaultDensity = 2.7
)

// maxHours bounds the hour count derived from absurd inputs.
const maxHours = math.MaxInt32

// Duration is the time a task needs on a site. Estimated durations carry
// whole hours; a time-to-complete override keeps its fractional hours.
type Duration struct {
	Minutes float64 `json:"minutes"`
	Hours   float64 `json:"hours"`
}

// Slots returns the number of grid hours the duration occupies.
func (d Duration) Slots() int {
	if d.Hours <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours))
}

// FromMinutes converts minutes to a Duration. Any positive fraction of an
// hour takes a whole hour slot; non-positive or non-finite input yields zero.
func FromMinutes(minutes float64) Duration {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return Duration{}
	}
	h := math.Ceil(minutes / 60)
	if h > maxHours {
		h = maxHours
	}
	return Duration{Minutes: math.Round(minutes*100) / 100, Hours: h}
}

// FromHours builds the Duration of a time-to-complete override. Hours is
// reported as given; Slots rounds it up for allocation.
func FromHours(hours float64) Duration {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return Duration{}
	}
	if hours > maxHours {
		hours = maxHours
	}
	return Duration{Minutes: math.Round(hours*60*100) / 100, Hours: hours}
}

// Inputs are the numeric facts a duration rule may use. Site width and
// height already have the constant fallbacks applied.
type Inputs struct {
	PlanMeters     float64
	BackfillTonnes float64
	RemoteTonnes   float64
	Rate           float64
	TaskDuration   float64
	Width          float64
	Height         float64
	Density        float64
}

// NewInputs resolves the inputs of a site/task pairing.
func NewInputs(task model.Task, site model.Site, constants model.Constants) Inputs {
	width := site.Width.Float()
	if width <= 0 {
		width = constants.Get(model.ConstWidth, DefaultWidth)
	}
	height := site.Height.Float()
	if height <= 0 {
		height = constants.Get(model.ConstHeight, DefaultHeight)
	}
	return Inputs{
		PlanMeters:     site.TotalPlanMeters.Float(),
		BackfillTonnes: site.TotalBackfillTonnes.Float(),
		RemoteTonnes:   site.RemoteTonnes.Float(),
		Rate:           task.Rate.Float(),
		TaskDuration:   task.TaskDuration.Float(),
		Width:          width,
		Height:         height,
		Density:        constants.Get(model.ConstDensity, DefaultDensity),
	}
}

// Kind names a duration rule.
type Kind string

const (
	KindArea         Kind = "area"
	KindTonnage      Kind = "tonnage"
	KindBogger       Kind = "bogger"
	KindBackfillPrep Kind = "backfill_prep"
	KindFixed        Kind = "fixed"
)

// Rule pairs a unit-of-measure predicate with a minutes calculator. Match
// receives the trimmed, lower-cased unit.
type Rule struct {
	Kind    Kind
	Match   func(uom string) bool
	Minutes func(in Inputs) float64
}

func containsAny(subs ...string) func(string) bool {
	return func(uom string) bool {
		for _, s := range subs {
			if strings.Contains(uom, s) {
				return true
			}
		}
		return false
	}
}

func areaMinutes(in Inputs) float64 {
	if in.Rate > 0 && in.PlanMeters > 0 {
		return in.PlanMeters / in.Rate * 60
	}
	return 0
}

func tonnageMinutes(in Inputs) float64 {
	tonnes := in.BackfillTonnes
	if tonnes <= 0 && in.PlanMeters > 0 {
		tonnes = in.Width * in.Height * in.PlanMeters * in.Density
	}
	if tonnes > 0 && in.Rate > 0 {
		return tonnes * 60 / in.Rate
	}
	return 0
}

func boggerMinutes(in Inputs) float64 {
	if in.RemoteTonnes > 0 && in.TaskDuration > 0 {
		return in.RemoteTonnes / in.TaskDuration * 60
	}
	return 0
}

func backfillPrepMinutes(in Inputs) float64 {
	if in.BackfillTonnes > 0 {
		return in.TaskDuration
	}
	return 0
}

func fixedMinutes(in Inputs) float64 {
	if in.TaskDuration > 0 {
		return in.TaskDuration
	}
	return 0
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind: KindArea,
			Match: func(uom string) bool {
				return containsAny("meter", "area", "m/h")(uom) || strings.HasPrefix(uom, "area")
			},
			Minutes: areaMinutes,
		},
		{Kind: KindTonnage, Match: containsAny("ton", "t/h"), Minutes: tonnageMinutes},
		{Kind: KindBogger, Match: containsAny("bogt", "bogger", "trolley"), Minutes: boggerMinutes},
		{Kind: KindBackfillPrep, Match: containsAny("bfp", "backfill"), Minutes: backfillPrepMinutes},
		{Kind: KindFixed, Match: func(string) bool { return true }, Minutes: fixedMinutes},
	}
}

// Estimator computes task durations. The first matching rule wins; when no
// rule matches the task's fixed duration is used.
type Estimator struct {
	rules []Rule
}

// NewEstimator returns an Estimator evaluating rules in order. Without rules
// the DefaultRules are used.
func NewEstimator(rules ...Rule) *Estimator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Estimator{rules: rules}
}

func (e *Estimator) match(uom string) (Rule, bool) {
	u := strings.ToLower(strings.TrimSpace(uom))
	for _, r := range e.rules {
		if r.Match != nil && r.Match(u) {
			return r, true
		}
	}
	return Rule{}, false
}

// Classify returns the kind of rule selected for uom.
func (e *Estimator) Classify(uom string) Kind {
	if r, ok := e.match(uom); ok {
		return r.Kind
	}
	return KindFixed
}

// Estimate returns the duration task needs on site.
func (e *Estimator) Estimate(task model.Task, site model.Site, constants model.Constants) Duration {
	in := NewInputs(task, site, constants)
	calc := fixedMinutes
	if r, ok := e.match(task.UOM); ok && r.Minutes != nil {
		calc = r.Minutes
	}
	return FromMinutes(calc(in))
}
