// Package triage decides whether each inventory specimen is kept or released.
//
// A verdict combines a quality score computed from the three individual stats
// with name-based overrides. Release rules (low individual stat, quality below
// threshold, always-release list) are overridden by retain rules (always-keep
// list, favorite). The precedence lives in a small Datalog program, see policy.go.
package triage

import (
	"errors"
	"math"

	"dexsweep/internal/inventory"
)

// MaxIVSum is the highest possible sum of the three individual stats (15 each).
const MaxIVSum = 45.0

// Decision is the outcome of triage for one specimen.
type Decision int

const (
	Keep Decision = iota
	Release
)

func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// Thresholds configures the quality heuristic. Both comparisons are strict.
type Thresholds struct {
	// MinQuality: specimens with quality below this are release candidates.
	MinQuality float64 `yaml:"min_quality" json:"min_quality,omitempty"`
	// MinIndividual: any individual stat below this makes a release candidate.
	MinIndividual int `yaml:"min_individual" json:"min_individual,omitempty"`
}

// DefaultThresholds returns 0.8 quality and 5 per individual stat.
func DefaultThresholds() Thresholds {
	return Thresholds{MinQuality: 0.8, MinIndividual: 5}
}


// Verdict is the triage result for one specimen.
type Verdict struct {
	Decision Decision
	Specimen inventory.Specimen
	Name     string
	Quality  float64
	// Reasons lists every rule that fired, release rules first.
	Reasons []string
}

// Quality returns the normalized individual stat sum rounded to two decimals.
func Quality(sp inventory.Specimen) float64 {
	return math.Round(float64(sp.IVSum())/MaxIVSum*100) / 100
}

// Engine classifies specimens against shared, read-only reference data.
type Engine struct {
	catalog    *Catalog
	names      *NameList
	thresholds Thresholds
	policy     *policy
}

// NewEngine builds an engine. names may be nil. Thresholds are used as given:
// a zero MinQuality or MinIndividual turns that gate off.
func NewEngine(catalog *Catalog, names *NameList, thresholds Thresholds) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("species catalog is required")
	}
	p, err := newPolicy()
	if err != nil {
		return nil, err
	}
	return &Engine{
		catalog:    catalog,
		names:      names,
		thresholds: thresholds,
		policy:     p,
	}, nil
}

// Thresholds returns the effective thresholds.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Classify returns the verdict for sp. The only error a well-formed engine
// returns is *UnknownSpeciesError, which must abort the run.
func (e *Engine) Classify(sp inventory.Specimen) (Verdict, error) {
	quality := Quality(sp)

	name, err := e.catalog.Lookup(sp.SpeciesID)
	if err != nil {
		return Verdict{}, err
	}

	floor := e.thresholds.MinIndividual
	sig := signals{
		lowIndividual: sp.Attack < floor || sp.Defense < floor || sp.Stamina < floor,
		belowQuality:  quality < e.thresholds.MinQuality,
		alwaysRelease: e.names.Releases(name),
		alwaysKeep:    e.names.Keeps(name),
		favorite:      sp.Favorite,
	}

	out, err := e.policy.evaluate(sig)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{
		Decision: Keep,
		Specimen: sp,
		Name:     name,
		Quality:  quality,
		Reasons:  out.reasons,
	}
	if out.release {
		v.Decision = Release
	}
	return v, nil
}
