package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dexsweep/internal/inventory"
	"dexsweep/internal/triage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClient serves a fixed response and records releases.
type fakeClient struct {
	mu        sync.Mutex
	resp      inventory.Response
	fetches   int
	released  []string
	starts    []time.Time
	times     []time.Time
	delay     time.Duration
	failOn    string
	fetchErrN int // fail the Nth fetch (1-based), 0 = never
}

func (c *fakeClient) FetchInventory(context.Context) (inventory.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
	if c.fetchErrN == c.fetches {
		return nil, errors.New("service unavailable")
	}
	return c.resp, nil
}

func (c *fakeClient) Release(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts = append(c.starts, time.Now())
	time.Sleep(c.delay)
	if id == c.failOn {
		return errors.New("connection reset")
	}
	c.released = append(c.released, id)
	c.times = append(c.times, time.Now())
	return nil
}

func mon(id string, species, atk, def, sta int) map[string]any {
	return map[string]any{"inventory_item_data": map[string]any{"pokemon_data": map[string]any{
		"id": id, "pokemon_id": species, "cp": 100,
		"individual_attack": atk, "individual_defense": def, "individual_stamina": sta,
	}}}
}

func egg() map[string]any {
	return map[string]any{"inventory_item_data": map[string]any{"pokemon_data": map[string]any{"is_egg": true}}}
}

func trainer() map[string]any {
	return map[string]any{"inventory_item_data": map[string]any{"player_stats": map[string]any{
		"level": 7, "experience": 7000, "next_level_xp": 10000,
	}}}
}

func response(items ...any) inventory.Response {
	return inventory.Response{"responses": map[string]any{"GET_INVENTORY": map[string]any{
		"inventory_delta": map[string]any{"inventory_items": items},
	}}}
}

func newEngine(t *testing.T, species int) *triage.Engine {
	t.Helper()
	entries := make([]triage.Species, species)
	for i := range entries {
		entries[i] = triage.Species{Name: string(rune('A' + i))}
	}
	e, err := triage.NewEngine(triage.NewCatalog(entries), triage.NewNameList(nil, []string{"C"}), triage.DefaultThresholds())
	require.NoError(t, err)
	return e
}

func TestRun_ReleasesOnlyReleaseVerdicts(t *testing.T) {
	client := &fakeClient{resp: response(
		trainer(),
		mon("1", 1, 15, 15, 15), // keep
		egg(),
		mon("2", 2, 4, 15, 15), // release: low individual
		mon("3", 3, 0, 0, 0),   // keep: always_keep
		mon("4", 1, 10, 10, 10), // release: below quality
	)}

	s := New(client, newEngine(t, 3), WithReleaseInterval(0), WithLogger(zap.NewNop()))
	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "4"}, client.released)
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, 2, report.Released)
	assert.Equal(t, 0, report.Pending)
	assert.Equal(t, 1, report.Before.Eggs)
	assert.Equal(t, 4, report.Before.Specimens)
	require.NotNil(t, report.Before.Trainer)
	assert.Equal(t, 7, report.Before.Trainer.Level)
	require.NotNil(t, report.After)
	assert.Len(t, report.Verdicts, 4)
	assert.Len(t, report.RunID, 8)
	assert.Equal(t, 2, client.fetches)
}

func TestRun_DryRunNeverReleases(t *testing.T) {
	client := &fakeClient{resp: response(mon("1", 1, 1, 1, 1), mon("2", 2, 2, 2, 2))}

	s := New(client, newEngine(t, 3), WithDryRun(true), WithReleaseInterval(0))
	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, client.released)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Pending)
	assert.Equal(t, 0, report.Released)
	for _, v := range report.Verdicts {
		assert.Equal(t, triage.Release, v.Decision)
	}
}

func TestRun_UnknownSpeciesAbortsBeforeAnyRelease(t *testing.T) {
	client := &fakeClient{resp: response(
		mon("1", 1, 1, 1, 1), // would be released
		mon("2", 5, 15, 15, 15),
		egg(),
		mon("3", 2, 1, 1, 1),
	)}

	s := New(client, newEngine(t, 3), WithReleaseInterval(0))
	report, err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, triage.IsUnknownSpecies(err))

	assert.Empty(t, client.released)
	assert.Nil(t, report.After)
	assert.Equal(t, 1, client.fetches)
	// Counts cover the whole response even though classification stopped early.
	assert.Equal(t, 1, report.Before.Eggs)
	assert.Equal(t, 3, report.Before.Specimens)
}

func TestRun_ReleaseFailureKeepsCompletedReleases(t *testing.T) {
	client := &fakeClient{
		resp:   response(mon("1", 1, 1, 1, 1), mon("2", 1, 1, 1, 1), mon("3", 1, 1, 1, 1)),
		failOn: "2",
	}

	s := New(client, newEngine(t, 3), WithReleaseInterval(0))
	report, err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsReleaseError(err))

	var relErr *ReleaseError
	require.ErrorAs(t, err, &relErr)
	assert.Equal(t, "2", relErr.ID)
	assert.Equal(t, "A", relErr.Species)
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, []string{"1"}, client.released)
	assert.Equal(t, 1, report.Released)
	assert.Nil(t, report.After)
}

func TestRun_ThrottlesReleases(t *testing.T) {
	const interval = 50 * time.Millisecond
	client := &fakeClient{resp: response(mon("1", 1, 1, 1, 1), mon("2", 1, 1, 1, 1), mon("3", 1, 1, 1, 1))}

	s := New(client, newEngine(t, 3), WithReleaseInterval(interval))
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, client.times, 3)
	for i := 1; i < len(client.times); i++ {
		gap := client.times[i].Sub(client.times[i-1])
		assert.GreaterOrEqual(t, gap, interval-10*time.Millisecond, "gap %d was %v", i, gap)
	}
}

func TestRun_PauseFollowsSlowRelease(t *testing.T) {
	const interval = 40 * time.Millisecond
	client := &fakeClient{
		resp:  response(mon("1", 1, 1, 1, 1), mon("2", 1, 1, 1, 1), mon("3", 1, 1, 1, 1)),
		delay: 60 * time.Millisecond,
	}

	_, err := New(client, newEngine(t, 3), WithReleaseInterval(interval)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, client.starts, 3)
	require.Len(t, client.times, 3)
	for i := 1; i < len(client.starts); i++ {
		pause := client.starts[i].Sub(client.times[i-1])
		assert.GreaterOrEqual(t, pause, interval-10*time.Millisecond, "pause before release %d was %v", i, pause)
	}
}

func TestRun_ReleaseFailureCountsEveryKeep(t *testing.T) {
	client := &fakeClient{
		resp:   response(mon("1", 1, 1, 1, 1), mon("2", 1, 15, 15, 15), mon("3", 3, 0, 0, 0)),
		failOn: "1",
	}

	report, err := New(client, newEngine(t, 3), WithReleaseInterval(0)).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsReleaseError(err))
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, 0, report.Released)
	assert.Empty(t, client.released)
}

func TestRun_CancelledContextStopsReleases(t *testing.T) {
	client := &fakeClient{resp: response(mon("1", 1, 1, 1, 1), mon("2", 1, 1, 1, 1))}
	ctx, cancel := context.WithCancel(context.Background())

	s := New(client, newEngine(t, 3), WithReleaseInterval(time.Hour))
	// The first release consumes the only token; the second must wait an hour.
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	report, err := s.Run(ctx)
	require.Error(t, err)
	assert.True(t, IsReleaseError(err))
	assert.Equal(t, 1, report.Released)
}

func TestRun_FetchFailure(t *testing.T) {
	client := &fakeClient{fetchErrN: 1}
	_, err := New(client, newEngine(t, 3)).Run(context.Background())
	assert.Error(t, err)

	client = &fakeClient{resp: response(mon("1", 1, 15, 15, 15)), fetchErrN: 2}
	report, err := New(client, newEngine(t, 3)).Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, report.Kept)
}

func TestRun_MissingInventory(t *testing.T) {
	client := &fakeClient{resp: inventory.Response{}}
	report, err := New(client, newEngine(t, 3)).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Before.Specimens)
	assert.Nil(t, report.Before.Trainer)
	assert.Empty(t, report.Verdicts)
}

func TestRun_WithSnapshotClient(t *testing.T) {
	client := inventory.NewSnapshotClient(response(egg(), mon("1", 1, 15, 15, 15), mon("2", 2, 0, 0, 1)), nil)

	report, err := New(client, newEngine(t, 3), WithReleaseInterval(0)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, client.Released())
	require.NotNil(t, report.After)
	assert.Equal(t, 1, report.After.Specimens)
	assert.Equal(t, 1, report.After.Eggs)
}
