// Package expiry resolves how many days remain before each monitored
// identity's credential expires.
package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/pgpwatch/munin-pgp-expiration/internal/keyring"
	"github.com/pgpwatch/munin-pgp-expiration/internal/logging"
	"github.com/pgpwatch/munin-pgp-expiration/internal/snapshot"
)

// Resolver locates an identity's raw credential bytes.
type Resolver interface {
	Fetch(ctx context.Context, identity string) ([]byte, error)
}

// Credential enumerates key expirations under the verification policy.
type Credential interface {
	Expirations(ref time.Time) []time.Time
}

// Parser turns raw directory bytes into a Credential.
type Parser interface {
	Parse(raw []byte) (Credential, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(raw []byte) (Credential, error)

func (f ParserFunc) Parse(raw []byte) (Credential, error) { return f(raw) }

// Evaluator computes the outcome for a single identity.
type Evaluator struct {
	resolver Resolver
	parser   Parser
	log      logging.Logger
}

// NewEvaluator creates an evaluator using resolver and parser. A nil
// parser falls back to the OpenPGP keyring parser (nil = default); a nil
// log discards.
func NewEvaluator(resolver Resolver, parser Parser, log logging.Logger) *Evaluator {
	if parser == nil {
		parser = ParserFunc(parseKeyring)
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Evaluator{resolver: resolver, parser: parser, log: log}
}

func parseKeyring(raw []byte) (Credential, error) {
	cred, err := keyring.Parse(raw)
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Evaluate resolves one identity at the given reference time. Failures
// come back as data, never as an error: one unreachable key server must
// not poison the rest of the batch.
func (e *Evaluator) Evaluate(ctx context.Context, identity string, ref time.Time) snapshot.Outcome {
	e.log.Debug("resolving identity", "identity", identity)

	raw, err := e.resolver.Fetch(ctx, identity)
	if err != nil {
		e.log.Error("credential fetch failed", "identity", identity, "error", err)
		return snapshot.Failed(identity, fmt.Sprintf("fetching credential: %v", err))
	}

	cred, err := e.parser.Parse(raw)
	if err != nil {
		e.log.Error("credential parse failed", "identity", identity, "error", err)
		return snapshot.Failed(identity, err.Error())
	}

	// Fold to the soonest expiration; only the current minimum is held.
	var minDays int64
	found := false
	for _, exp := range cred.Expirations(ref) {
		d := daysBetween(ref, exp)
		if !found || d < minDays {
			minDays = d
			found = true
		}
	}
	if !found {
		return snapshot.NoExpiration(identity)
	}
	return snapshot.Days(identity, minDays)
}

// daysBetween counts whole days, truncating toward zero: an expiration
// later today is 0, one that passed 30 hours ago is -1.
func daysBetween(from, to time.Time) int64 {
	return int64(to.Sub(from) / (24 * time.Hour))
}
