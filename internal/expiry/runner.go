package expiry

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgpwatch/munin-pgp-expiration/internal/logging"
	"github.com/pgpwatch/munin-pgp-expiration/internal/snapshot"
)

// IdentityEvaluator is the per-identity contract the runner fans out over.
type IdentityEvaluator interface {
	Evaluate(ctx context.Context, identity string, ref time.Time) snapshot.Outcome
}

// Runner resolves a whole identity list concurrently into one snapshot.
type Runner struct {
	eval  IdentityEvaluator
	limit int
	now   func() time.Time
	log   logging.Logger
}

// NewRunner creates a runner; limit caps in-flight evaluations.
func NewRunner(eval IdentityEvaluator, limit int, log logging.Logger) *Runner {
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Runner{eval: eval, limit: limit, now: time.Now, log: log}
}

// WithClock overrides the reference-time source. Used in tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run evaluates every identity against a single reference time captured at
// entry, so all outcomes in the snapshot are comparable. Output order is
// input order regardless of completion order; each identity owns exactly
// one slot and a failing identity only affects its own. One attempt per
// identity per run; retrying is the external scheduler's business.
func (r *Runner) Run(ctx context.Context, identities []string) *snapshot.Snapshot {
	ref := r.now()
	outcomes := make([]snapshot.Outcome, len(identities))

	g := new(errgroup.Group)
	g.SetLimit(r.limit)
	for i, identity := range identities {
		i, identity := i, identity
		g.Go(func() error {
			outcomes[i] = r.eval.Evaluate(ctx, identity, ref)
			return nil
		})
	}
	_ = g.Wait() // evaluations never return errors

	r.log.Info("resolution batch finished", "identities", len(identities))
	return &snapshot.Snapshot{GeneratedAt: ref, Outcomes: outcomes}
}
