package triage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// Reason names. Each is both a signal predicate and the label reported on a verdict.
const (
	ReasonLowIndividual = "low_individual"
	ReasonBelowQuality  = "below_quality"
	ReasonAlwaysRelease = "always_release"
	ReasonAlwaysKeep    = "always_keep"
	ReasonFavorite      = "favorite"
)

// policySource is the keep/release decision table. A specimen is released
// when any release rule fires and no retain rule does, so retain rules take
// precedence over every release rule.
const policySource = `
Decl low_individual(S).
Decl below_quality(S).
Decl always_release(S).
Decl always_keep(S).
Decl favorite(S).

Decl release_candidate(S, Reason).
Decl retained(S, Reason).
Decl is_retained(S).
Decl release(S).

release_candidate(S, "low_individual") :- low_individual(S).
release_candidate(S, "below_quality") :- below_quality(S).
release_candidate(S, "always_release") :- always_release(S).

retained(S, "always_keep") :- always_keep(S).
retained(S, "favorite") :- favorite(S).
is_retained(S) :- retained(S, _).

release(S) :- release_candidate(S, _), !is_retained(S).
`

// reasonOrder fixes the order reasons are reported in.
var reasonOrder = map[string]int{
	ReasonLowIndividual: 0,
	ReasonBelowQuality:  1,
	ReasonAlwaysRelease: 2,
	ReasonAlwaysKeep:    3,
	ReasonFavorite:      4,
}

// signals describes one specimen to the policy.
type signals struct {
	lowIndividual bool
	belowQuality  bool
	alwaysRelease bool
	alwaysKeep    bool
	favorite      bool
}

func (s signals) facts() []string {
	var out []string
	for _, sig := range []struct {
		pred  string
		holds bool
	}{
		{ReasonLowIndividual, s.lowIndividual},
		{ReasonBelowQuality, s.belowQuality},
		{ReasonAlwaysRelease, s.alwaysRelease},
		{ReasonAlwaysKeep, s.alwaysKeep},
		{ReasonFavorite, s.favorite},
	} {
		if sig.holds {
			out = append(out, sig.pred)
		}
	}
	return out
}

// outcome is what the policy derived for one specimen.
type outcome struct {
	release bool
	reasons []string
}

// policy is the analysed decision program. It is read-only after
// construction; each evaluation uses its own fact store.
type policy struct {
	info  *analysis.ProgramInfo
	preds map[string]ast.PredicateSym
}

func newPolicy() (*policy, error) {
	unit, err := parse.Unit(strings.NewReader(policySource))
	if err != nil {
		return nil, fmt.Errorf("failed to parse triage policy: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze triage policy: %w", err)
	}
	preds := make(map[string]ast.PredicateSym, len(info.Decls))
	for sym := range info.Decls {
		preds[sym.Symbol] = sym
	}
	for _, name := range []string{"release", "release_candidate", "retained"} {
		if _, ok := preds[name]; !ok {
			return nil, fmt.Errorf("triage policy does not declare %s", name)
		}
	}
	return &policy{info: info, preds: preds}, nil
}

// subject is the constant every fact of a single evaluation is about.
var subject = ast.String("specimen")

func (p *policy) evaluate(s signals) (outcome, error) {
	store := factstore.NewSimpleInMemoryStore()
	for _, pred := range s.facts() {
		store.Add(ast.NewAtom(pred, subject))
	}

	if _, err := mengine.EvalProgramWithStats(p.info, store); err != nil {
		return outcome{}, fmt.Errorf("failed to evaluate triage policy: %w", err)
	}

	var out outcome
	err := store.GetFacts(ast.NewQuery(p.preds["release"]), func(ast.Atom) error {
		out.release = true
		return nil
	})
	if err != nil {
		return outcome{}, err
	}

	for _, pred := range []string{"release_candidate", "retained"} {
		err := store.GetFacts(ast.NewQuery(p.preds[pred]), func(a ast.Atom) error {
			if len(a.Args) != 2 {
				return nil
			}
			c, ok := a.Args[1].(ast.Constant)
			if !ok {
				return nil
			}
			reason, err := c.StringValue()
			if err != nil {
				return err
			}
			out.reasons = append(out.reasons, reason)
			return nil
		})
		if err != nil {
			return outcome{}, err
		}
	}
	sort.SliceStable(out.reasons, func(i, j int) bool {
		return reasonOrder[out.reasons[i]] < reasonOrder[out.reasons[j]]
	})
	return out, nil
}
