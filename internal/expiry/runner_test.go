package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgpwatch/munin-pgp-expiration/internal/snapshot"
)

// scriptedEvaluator returns a deterministic outcome per identity, with
// optional artificial slowness to shuffle completion order.
type scriptedEvaluator struct {
	delays map[string]time.Duration
	fail   map[string]bool
}

func (e *scriptedEvaluator) Evaluate(ctx context.Context, identity string, ref time.Time) snapshot.Outcome {
	if d := e.delays[identity]; d > 0 {
		time.Sleep(d)
	}
	if e.fail[identity] {
		return snapshot.Failed(identity, "rigged failure")
	}
	return snapshot.Days(identity, int64(len(identity)))
}

func TestRunnerPreservesInputOrder(t *testing.T) {
	identities := []string{"a@example.com", "bb@example.com", "ccc@example.com", "dddd@example.com"}
	// The first identity finishes last; it must still occupy slot 0.
	eval := &scriptedEvaluator{delays: map[string]time.Duration{"a@example.com": 100 * time.Millisecond}}
	r := NewRunner(eval, 4, nil)

	snap := r.Run(context.Background(), identities)

	require.Len(t, snap.Outcomes, len(identities))
	for i, id := range identities {
		assert.Equal(t, id, snap.Outcomes[i].Identity)
		assert.Equal(t, snapshot.StatusDays, snap.Outcomes[i].Status)
	}
}

func TestRunnerIsolatesFailures(t *testing.T) {
	identities := []string{"a@x.org", "b@x.org", "c@x.org", "d@x.org", "e@x.org"}
	eval := &scriptedEvaluator{fail: map[string]bool{"c@x.org": true}}
	r := NewRunner(eval, 8, nil)

	snap := r.Run(context.Background(), identities)

	require.Len(t, snap.Outcomes, 5)
	for i, o := range snap.Outcomes {
		if i == 2 {
			assert.Equal(t, snapshot.StatusFailed, o.Status)
			assert.Equal(t, "rigged failure", o.Message)
			continue
		}
		assert.Equal(t, snapshot.StatusDays, o.Status, "identity %s", o.Identity)
	}
}

func TestRunnerSingleReferenceTime(t *testing.T) {
	ref := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	r := NewRunner(&scriptedEvaluator{}, 2, nil).WithClock(func() time.Time { return ref })

	snap := r.Run(context.Background(), []string{"a@x.org", "b@x.org"})
	assert.True(t, snap.GeneratedAt.Equal(ref))
}

func TestRunnerEmptyInput(t *testing.T) {
	r := NewRunner(&scriptedEvaluator{}, 4, nil)

	snap := r.Run(context.Background(), nil)
	assert.Empty(t, snap.Outcomes)
}

func TestRunnerSerialLimitStillOrdered(t *testing.T) {
	identities := []string{"a@x.org", "b@x.org", "c@x.org"}
	r := NewRunner(&scriptedEvaluator{}, 1, nil)

	snap := r.Run(context.Background(), identities)
	require.Len(t, snap.Outcomes, 3)
	for i, id := range identities {
		assert.Equal(t, id, snap.Outcomes[i].Identity)
	}
}
