// Package sweep runs one triage pass over a live inventory: fetch, classify,
// release, then report before/after statistics.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dexsweep/internal/inventory"
	"dexsweep/internal/triage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultReleaseInterval is the minimum pause between two releases.
const DefaultReleaseInterval = time.Second

// Classifier is the part of triage.Engine the sweep needs.
type Classifier interface {
	Classify(sp inventory.Specimen) (triage.Verdict, error)
}

// Snapshot is the inventory summary taken before or after a run.
type Snapshot struct {
	Eggs      int
	Specimens int
	Trainer   *inventory.TrainerStats
}

// Report summarizes one run.
type Report struct {
	RunID    string
	DryRun   bool
	Before   Snapshot
	After    *Snapshot
	Kept     int
	Released int
	// Pending counts release verdicts not acted on (dry run).
	Pending  int
	Verdicts []triage.Verdict
}

// ReleaseError reports a failed release. Releases completed before it stand.
type ReleaseError struct {
	ID      string
	Species string
	Err     error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("failed to release %s (%s): %v", e.ID, e.Species, e.Err)
}

func (e *ReleaseError) Unwrap() error { return e.Err }

// Sweeper ties the inventory client to the triage engine.
type Sweeper struct {
	client     inventory.Client
	classifier Classifier
	logger     *zap.Logger
	dryRun     bool
	interval   time.Duration
	limiter    *rate.Limiter
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithDryRun computes and reports verdicts without releasing anything.
func WithDryRun(dry bool) Option {
	return func(s *Sweeper) { s.dryRun = dry }
}

// WithReleaseInterval sets the minimum pause between one release returning
// and the next being issued. Zero disables pacing.
func WithReleaseInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		s.interval = d
		s.limiter = newLimiter(d)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// New creates a Sweeper.
func New(client inventory.Client, classifier Classifier, opts ...Option) *Sweeper {
	s := &Sweeper{
		client:     client,
		classifier: classifier,
		logger:     zap.NewNop(),
		interval:   DefaultReleaseInterval,
		limiter:    newLimiter(DefaultReleaseInterval),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one sweep. Every specimen is classified before the first
// release, so stale reference data stops the run with nothing released. On
// error the returned report still describes what happened up to the failure.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:  uuid.New().String()[:8],
		DryRun: s.dryRun,
	}
	log := s.logger.With(zap.String("run", report.RunID))

	resp, err := s.client.FetchInventory(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch inventory: %w", err)
	}

	log.Info("Before cleanup:")
	if st, ok := inventory.TrainerStatsOf(resp); ok {
		report.Before.Trainer = &st
		logTrainer(log, st)
	}

	scan := inventory.NewScan(resp)
	for sp := range scan.Specimens() {
		v, err := s.classifier.Classify(sp)
		if err != nil {
			if triage.IsUnknownSpecies(err) {
				log.Error("Species catalog is out of date, aborting run",
					zap.Int("species_id", sp.SpeciesID), zap.String("id", sp.ID))
			}
			scan.Drain()
			report.Before.Eggs, report.Before.Specimens = scan.Eggs(), scan.Count()
			return report, err
		}
		report.Verdicts = append(report.Verdicts, v)
	}
	report.Before.Eggs, report.Before.Specimens = scan.Eggs(), scan.Count()
	log.Info(fmt.Sprintf("Eggs: %d, Mon: %d", report.Before.Eggs, report.Before.Specimens))

	for _, v := range report.Verdicts {
		switch {
		case v.Decision == triage.Keep:
			report.Kept++
		case s.dryRun:
			report.Pending++
		}
	}

	for _, v := range report.Verdicts {
		if v.Decision == triage.Keep {
			logVerdict(log, "Keeping", v)
			continue
		}

		logVerdict(log, "*** Releasing", v)
		if s.dryRun {
			continue
		}
		if err := s.release(ctx, v); err != nil {
			log.Error("Release failed",
				zap.String("id", v.Specimen.ID),
				zap.Int("released_so_far", report.Released),
				zap.Error(err))
			return report, err
		}
		report.Released++
	}

	after, err := s.client.FetchInventory(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch inventory after cleanup: %w", err)
	}
	log.Info("After cleanup:")
	snap := Snapshot{}
	if st, ok := inventory.TrainerStatsOf(after); ok {
		snap.Trainer = &st
		logTrainer(log, st)
	}
	snap.Eggs, snap.Specimens = inventory.Count(after)
	report.After = &snap
	log.Info(fmt.Sprintf("Eggs: %d, Mon: %d", snap.Eggs, snap.Specimens),
		zap.Int("kept", report.Kept),
		zap.Int("released", report.Released),
		zap.Int("pending", report.Pending))

	return report, nil
}

func (s *Sweeper) release(ctx context.Context, v triage.Verdict) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &ReleaseError{ID: v.Specimen.ID, Species: v.Name, Err: fmt.Errorf("rate limiter: %w", err)}
	}
	err := s.client.Release(ctx, v.Specimen.ID)
	s.restartPause()
	if err != nil {
		return &ReleaseError{ID: v.Specimen.ID, Species: v.Name, Err: err}
	}
	return nil
}

// restartPause empties the limiter so the next release waits a full interval
// measured from now, when the previous removal returned.
func (s *Sweeper) restartPause() {
	s.limiter = newLimiter(s.interval)
	s.limiter.Allow()
}

// IsReleaseError reports whether err carries a ReleaseError.
func IsReleaseError(err error) bool {
	var target *ReleaseError
	return errors.As(err, &target)
}

func logTrainer(log *zap.Logger, st inventory.TrainerStats) {
	log.Info(fmt.Sprintf("Lv: %d Exp: %d/%d", st.Level, st.Experience, st.NextLevelXP))
}

func logVerdict(log *zap.Logger, prefix string, v triage.Verdict) {
	sp := v.Specimen
	fields := []zap.Field{
		zap.String("id", sp.ID),
		zap.Strings("reasons", v.Reasons),
	}
	if len(sp.Missing) > 0 {
		fields = append(fields, zap.Strings("missing_stats", sp.Missing))
	}
	log.Info(fmt.Sprintf("%s %s (%d/%d/%d CP: %d IV: %.2f)",
		prefix, v.Name, sp.Attack, sp.Defense, sp.Stamina, sp.CP, v.Quality), fields...)
}
