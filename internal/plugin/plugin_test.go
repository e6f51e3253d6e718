package plugin

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgpwatch/munin-pgp-expiration/internal/config"
	"github.com/pgpwatch/munin-pgp-expiration/internal/expiry"
	"github.com/pgpwatch/munin-pgp-expiration/internal/logging"
	"github.com/pgpwatch/munin-pgp-expiration/internal/snapshot"
)

// countingEvaluator records how many evaluations ran and answers with
// whatever outcome is currently scripted.
type countingEvaluator struct {
	mu      sync.Mutex
	calls   int
	outcome func(identity string) snapshot.Outcome
}

func (e *countingEvaluator) Evaluate(ctx context.Context, identity string, ref time.Time) snapshot.Outcome {
	e.mu.Lock()
	e.calls++
	fn := e.outcome
	e.mu.Unlock()
	return fn(identity)
}

func (e *countingEvaluator) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func daysOutcome(days int64) func(string) snapshot.Outcome {
	return func(identity string) snapshot.Outcome { return snapshot.Days(identity, days) }
}

func newTestApp(t *testing.T, cfg *config.Config, eval expiry.IdentityEvaluator) (*App, *snapshot.Store) {
	t.Helper()
	if cfg.StateDir == "" {
		cfg.StateDir = t.TempDir()
	}
	runner := expiry.NewRunner(eval, 4, logging.Nop{})
	store := snapshot.NewStore(cfg.StateDir)
	return New(cfg, runner, store, logging.Nop{}), store
}

func TestColdStartFallback(t *testing.T) {
	eval := &countingEvaluator{outcome: daysOutcome(10)}
	app, store := newTestApp(t, &config.Config{Emails: "a@x.org b@y.org"}, eval)

	var buf bytes.Buffer
	require.NoError(t, app.EmitValues(context.Background(), &buf))

	// exactly one batch ran and its result was cached
	assert.Equal(t, 2, eval.count())
	assert.Equal(t, "_a_x_org.value 10\n_b_y_org.value 10\n", buf.String())

	cached, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, cached)

	// a second emission is served from the cache
	buf.Reset()
	require.NoError(t, app.EmitValues(context.Background(), &buf))
	assert.Equal(t, 2, eval.count())
	assert.Equal(t, "_a_x_org.value 10\n_b_y_org.value 10\n", buf.String())
}

func TestRefreshOverwritesSnapshot(t *testing.T) {
	eval := &countingEvaluator{outcome: daysOutcome(10)}
	app, store := newTestApp(t, &config.Config{Emails: "a@x.org"}, eval)

	_, err := app.Refresh(context.Background())
	require.NoError(t, err)

	eval.mu.Lock()
	eval.outcome = daysOutcome(5)
	eval.mu.Unlock()

	_, err = app.Refresh(context.Background())
	require.NoError(t, err)

	cached, err := store.Load()
	require.NoError(t, err)
	require.Len(t, cached.Outcomes, 1)
	assert.Equal(t, int64(5), cached.Outcomes[0].Days)
}

func TestRefreshRequiresEmails(t *testing.T) {
	eval := &countingEvaluator{outcome: daysOutcome(10)}
	app, _ := newTestApp(t, &config.Config{}, eval)

	_, err := app.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emails")
	assert.Zero(t, eval.count())
}

func TestEmitConfigDirtyCapability(t *testing.T) {
	eval := &countingEvaluator{outcome: daysOutcome(21)}
	app, _ := newTestApp(t, &config.Config{Emails: "a@x.org", DirtyConfig: "1"}, eval)

	var buf bytes.Buffer
	require.NoError(t, app.EmitConfig(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "graph_title OpenPGP key expiration")
	assert.Contains(t, out, "_a_x_org.label a@x.org")
	assert.Contains(t, out, "_a_x_org.value 21")
}

func TestEmitConfigWithoutDirtyCapability(t *testing.T) {
	eval := &countingEvaluator{outcome: daysOutcome(21)}
	app, _ := newTestApp(t, &config.Config{Emails: "a@x.org"}, eval)

	var buf bytes.Buffer
	require.NoError(t, app.EmitConfig(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "_a_x_org.label a@x.org")
	assert.NotContains(t, out, ".value")
}

func TestCorruptCacheIsFatal(t *testing.T) {
	eval := &countingEvaluator{outcome: daysOutcome(10)}
	app, store := newTestApp(t, &config.Config{Emails: "a@x.org"}, eval)

	require.NoError(t, os.WriteFile(store.Path(), []byte("outcomes: {not: [valid"), 0o644))

	var buf bytes.Buffer
	err := app.EmitValues(context.Background(), &buf)
	require.Error(t, err)
	// corruption is never silently repaired by a refetch
	assert.Zero(t, eval.count())
}

func TestFailedIdentityStillEmitted(t *testing.T) {
	eval := &countingEvaluator{outcome: func(identity string) snapshot.Outcome {
		if identity == "bad@x.org" {
			return snapshot.Failed(identity, "fetching credential: wkd server returned 404 Not Found")
		}
		return snapshot.Days(identity, 3)
	}}
	app, _ := newTestApp(t, &config.Config{Emails: "good@x.org bad@x.org"}, eval)

	var buf bytes.Buffer
	require.NoError(t, app.EmitValues(context.Background(), &buf))
	assert.Equal(t, "_good_x_org.value 3\n_bad_x_org.value -999\n", buf.String())
}
