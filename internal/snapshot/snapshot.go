// Package snapshot defines the per-identity resolution outcomes and the
// state file they are cached in between collector runs.
package snapshot

import "time"

// Status discriminates the outcome variants. Exactly one applies to every
// identity; the variants are closed so that "no expiration" and "failed"
// stay unambiguous at every consumption site.
type Status string

const (
	// StatusDays means the credential resolved and at least one usable key
	// carries an expiration; Days holds the count to the soonest one.
	StatusDays Status = "days"

	// StatusNoExpiration means the credential resolved but no usable key
	// ever expires.
	StatusNoExpiration Status = "no-expiration"

	// StatusFailed means resolution failed; Message holds the cause.
	StatusFailed Status = "failed"
)

// Outcome is the resolution result for a single email address. Message is
// an opaque diagnostic, never parsed back.
type Outcome struct {
	Identity string `yaml:"identity"`
	Status   Status `yaml:"status"`
	Days     int64  `yaml:"days,omitempty"`
	Message  string `yaml:"message,omitempty"`
}

// Days builds a resolved outcome. Negative counts mean already expired and
// are preserved as-is.
func Days(identity string, days int64) Outcome {
	return Outcome{Identity: identity, Status: StatusDays, Days: days}
}

// NoExpiration builds an outcome for a credential whose keys never expire.
func NoExpiration(identity string) Outcome {
	return Outcome{Identity: identity, Status: StatusNoExpiration}
}

// Failed builds an outcome for a resolution that did not complete.
func Failed(identity, message string) Outcome {
	return Outcome{Identity: identity, Status: StatusFailed, Message: message}
}

// Snapshot is the full result of one resolution batch, in the order the
// identities were configured. Each refresh produces a new snapshot that
// fully replaces the previous one; snapshots are never merged.
type Snapshot struct {
	// GeneratedAt is the reference time every outcome in this batch was
	// computed against.
	GeneratedAt time.Time `yaml:"generatedAt"`
	Outcomes    []Outcome `yaml:"outcomes"`
}
