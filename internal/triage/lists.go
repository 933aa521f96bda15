package triage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// IssueKind classifies a name list problem.
type IssueKind string

const (
	// IssueUnknownName: the name matches no catalog species, so the entry never applies.
	IssueUnknownName IssueKind = "unknown_name"
	// IssueConflict: the name is on both lists; always_keep wins.
	IssueConflict IssueKind = "conflict"
)

// ListIssue is one finding from CheckLists.
type ListIssue struct {
	Kind       IssueKind
	List       string // always_transfer, always_keep, or both
	Name       string
	Suggestion string // closest catalog name, empty if none is close
}

func (i ListIssue) String() string {
	switch i.Kind {
	case IssueUnknownName:
		if i.Suggestion != "" {
			return fmt.Sprintf("%s: %q is not a known species (did you mean %q?)", i.List, i.Name, i.Suggestion)
		}
		return fmt.Sprintf("%s: %q is not a known species", i.List, i.Name)
	case IssueConflict:
		return fmt.Sprintf("%q is on both lists; always_keep wins", i.Name)
	default:
		return fmt.Sprintf("%s: %s", i.Kind, i.Name)
	}
}

// CheckLists reports name list entries that can never match, and entries on
// both lists. Results are ordered by list then name.
func CheckLists(catalog *Catalog, names *NameList) []ListIssue {
	if catalog == nil || names == nil {
		return nil
	}
	known := make(map[string]struct{}, catalog.Len())
	for _, n := range catalog.Names() {
		known[n] = struct{}{}
	}

	var issues []ListIssue
	check := func(list string, entries []string) {
		for _, name := range entries {
			if _, ok := known[name]; ok {
				continue
			}
			issues = append(issues, ListIssue{
				Kind:       IssueUnknownName,
				List:       list,
				Name:       name,
				Suggestion: closestName(name, catalog.Names()),
			})
		}
	}
	check("always_keep", names.AlwaysKeep)
	check("always_transfer", names.AlwaysRelease)

	for _, name := range names.AlwaysRelease {
		if names.Keeps(name) {
			issues = append(issues, ListIssue{Kind: IssueConflict, List: "both", Name: name})
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].List != issues[j].List {
			return issues[i].List < issues[j].List
		}
		return issues[i].Name < issues[j].Name
	})
	return issues
}

// closestName returns the catalog name nearest to name, or "" when nothing is
// within the edit limit for its length. Comparison ignores case.
func closestName(name string, candidates []string) string {
	needle := strings.ToLower(name)
	best, bestDist := "", -1
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(cand))
		if dist > editLimit(len(cand)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best
}

func editLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
