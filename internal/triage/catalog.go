package triage

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Species is one catalog entry. The species id is implied by position.
type Species struct {
	Name string `yaml:"Name"`
}

// Catalog is the ordered species reference list. Species id N lives at index N-1.
type Catalog struct {
	species []Species
}

// NewCatalog builds a catalog from entries ordered by species id.
func NewCatalog(species []Species) *Catalog {
	return &Catalog{species: append([]Species(nil), species...)}
}

// Len returns the number of species in the catalog.
func (c *Catalog) Len() int { return len(c.species) }

// Names returns every display name, in species id order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.species))
	for i, s := range c.species {
		names[i] = s.Name
	}
	return names
}

// Lookup resolves a species id to its display name.
func (c *Catalog) Lookup(speciesID int) (string, error) {
	idx := speciesID - 1
	if idx < 0 || idx >= len(c.species) {
		return "", &UnknownSpeciesError{SpeciesID: speciesID, CatalogSize: len(c.species)}
	}
	return c.species[idx].Name, nil
}

// UnknownSpeciesError means live data refers to a species the catalog does
// not know. The reference data is stale and the run must stop.
type UnknownSpeciesError struct {
	SpeciesID   int
	CatalogSize int
}

func (e *UnknownSpeciesError) Error() string {
	return fmt.Sprintf("species id %d is outside the species catalog (%d entries); reference data is out of date",
		e.SpeciesID, e.CatalogSize)
}

// IsUnknownSpecies reports whether err carries an UnknownSpeciesError.
func IsUnknownSpecies(err error) bool {
	var target *UnknownSpeciesError
	return errors.As(err, &target)
}

// NameList holds the name-based overrides. Matching is by exact display name.
type NameList struct {
	AlwaysRelease []string `yaml:"always_transfer"`
	AlwaysKeep    []string `yaml:"always_keep"`

	release map[string]struct{}
	keep    map[string]struct{}
}

// NewNameList builds a name list from the two override sets.
func NewNameList(alwaysRelease, alwaysKeep []string) *NameList {
	n := &NameList{
		AlwaysRelease: append([]string(nil), alwaysRelease...),
		AlwaysKeep:    append([]string(nil), alwaysKeep...),
	}
	n.index()
	return n
}

func (n *NameList) index() {
	n.release = make(map[string]struct{}, len(n.AlwaysRelease))
	for _, name := range n.AlwaysRelease {
		n.release[name] = struct{}{}
	}
	n.keep = make(map[string]struct{}, len(n.AlwaysKeep))
	for _, name := range n.AlwaysKeep {
		n.keep[name] = struct{}{}
	}
}

// Releases reports whether name is on the always-release list.
func (n *NameList) Releases(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.release[name]
	return ok
}

// Keeps reports whether name is on the always-keep list.
func (n *NameList) Keeps(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.keep[name]
	return ok
}

// LoadCatalog reads a species catalog file: a list of objects with a Name
// key, in species id order. JSON files are accepted as YAML.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read species catalog: %w", err)
	}
	var species []Species
	if err := yaml.Unmarshal(data, &species); err != nil {
		return nil, fmt.Errorf("failed to parse species catalog %s: %w", path, err)
	}
	if len(species) == 0 {
		return nil, fmt.Errorf("species catalog %s is empty", path)
	}
	return NewCatalog(species), nil
}

// LoadNameList reads the always_transfer / always_keep lists.
func LoadNameList(path string) (*NameList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read name list: %w", err)
	}
	n := &NameList{}
	if err := yaml.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("failed to parse name list %s: %w", path, err)
	}
	n.index()
	return n, nil
}
