package inventory

import "iter"

// Response paths.
var (
	itemsPath    = []string{"responses", "GET_INVENTORY", "inventory_delta", "inventory_items"}
	specimenPath = []string{"inventory_item_data", "pokemon_data"}
	trainerPath  = []string{"inventory_item_data", "player_stats"}
)

// Individual stat keys, in attack/defense/stamina order.
const (
	KeyAttack  = "individual_attack"
	KeyDefense = "individual_defense"
	KeyStamina = "individual_stamina"
)

// MaxIndividual is the largest valid individual stat. Values outside
// [0, MaxIndividual] are treated as absent.
const MaxIndividual = 15

// items returns the inventory item list, or nil when any level is absent.
func items(resp Response) []any {
	v, ok := Lookup(resp, itemsPath...)
	if !ok {
		return nil
	}
	l, _ := List(v)
	return l
}

// Scan is a single pass over the specimen entries of one response.
// Records already yielded are never yielded again: calling Specimens after a
// full pass yields nothing, after an early break it resumes. Eggs and Count
// reflect what the pass has seen so far.
type Scan struct {
	items     []any
	eggs      int
	specimens int
	skipped   int
}

// NewScan prepares a scan of resp. The response is only read.
func NewScan(resp Response) *Scan {
	return &Scan{items: items(resp)}
}

// Specimens returns the lazy sequence of non-egg specimen records.
func (s *Scan) Specimens() iter.Seq[Specimen] {
	return func(yield func(Specimen) bool) {
		for len(s.items) > 0 {
			item := s.items[0]
			s.items = s.items[1:]

			raw, ok := Lookup(item, specimenPath...)
			if !ok {
				continue
			}
			if egg, _ := BoolAt(raw, "is_egg"); egg {
				s.eggs++
				continue
			}
			sp, ok := parseSpecimen(raw)
			if !ok {
				s.skipped++
				continue
			}
			s.specimens++
			if !yield(sp) {
				return
			}
		}
	}
}

// Drain consumes the remainder of the scan without yielding records.
func (s *Scan) Drain() {
	for range s.Specimens() {
	}
}

// Eggs returns the number of egg entries seen.
func (s *Scan) Eggs() int { return s.eggs }

// Count returns the number of non-egg specimens seen.
func (s *Scan) Count() int { return s.specimens }

// Skipped returns the number of specimen entries dropped for lacking a species id.
func (s *Scan) Skipped() int { return s.skipped }

func parseSpecimen(raw any) (Specimen, bool) {
	species, ok := IntAt(raw, "pokemon_id")
	if !ok || species < 1 {
		return Specimen{}, false
	}

	sp := Specimen{SpeciesID: int(species)}
	sp.Favorite, _ = BoolAt(raw, "favorite")
	if cp, ok := IntAt(raw, "cp"); ok {
		sp.CP = int(cp)
	}
	if v, ok := Lookup(raw, "id"); ok {
		sp.ID, _ = String(v)
	}

	for _, stat := range []struct {
		key string
		dst *int
	}{
		{KeyAttack, &sp.Attack},
		{KeyDefense, &sp.Defense},
		{KeyStamina, &sp.Stamina},
	} {
		v, ok := IntAt(raw, stat.key)
		if !ok || v < 0 || v > MaxIndividual {
			sp.Missing = append(sp.Missing, stat.key)
			continue
		}
		*stat.dst = int(v)
	}
	return sp, true
}

// TrainerStatsOf returns the trainer stats carried by resp, if any.
func TrainerStatsOf(resp Response) (TrainerStats, bool) {
	for _, item := range items(resp) {
		raw, ok := Lookup(item, trainerPath...)
		if !ok {
			continue
		}
		var st TrainerStats
		if lvl, ok := IntAt(raw, "level"); ok {
			st.Level = int(lvl)
		}
		st.Experience, _ = IntAt(raw, "experience")
		st.NextLevelXP, _ = IntAt(raw, "next_level_xp")
		return st, true
	}
	return TrainerStats{}, false
}

// Count tallies eggs and non-egg specimens in resp in one pass.
func Count(resp Response) (eggs, specimens int) {
	scan := NewScan(resp)
	scan.Drain()
	return scan.Eggs(), scan.Count()
}
