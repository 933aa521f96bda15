// Package inventory reads creature records out of inventory responses and
// defines the remote client the sweep talks to.
package inventory

import "context"

// Response is one deserialized service reply.
type Response map[string]any

// Specimen is one creature record from an inventory response.
type Specimen struct {
	ID        string
	SpeciesID int
	IsEgg     bool
	CP        int
	Attack    int
	Defense   int
	Stamina   int
	Favorite  bool

	// Missing lists the individual stats that were absent or out of range and defaulted to 0.
	Missing []string
}

// IVSum returns the sum of the three individual stats.
func (s Specimen) IVSum() int {
	return s.Attack + s.Defense + s.Stamina
}

// TrainerStats is the trainer-level progress block of a response.
type TrainerStats struct {
	Level       int
	Experience  int64
	NextLevelXP int64
}

// Client is the remote service as seen by the sweep.
type Client interface {
	// FetchInventory returns the full inventory response.
	FetchInventory(ctx context.Context) (Response, error)
	// Release removes the specimen with the given identifier.
	Release(ctx context.Context, id string) error
}
