// Package keyring parses raw OpenPGP certificates and enumerates the
// expiration metadata of their keys.
package keyring

import (
	"bytes"
	"fmt"
	"time"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"
)

// Credential is a parsed certificate: one or more transferable public keys
// belonging to a single identity.
type Credential struct {
	entities openpgp.EntityList
}

// Parse reads a binary keyring as served by WKD.
func Parse(raw []byte) (*Credential, error) {
	entities, err := openpgp.ReadKeyRing(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing credential: %w", err)
	}
	return &Credential{entities: entities}, nil
}

// Expirations returns the expiration instant of every usable, non-revoked
// key in the credential. Keys that never expire contribute nothing. Keys
// already expired at ref still contribute; the caller reports them as
// negative day counts.
func (c *Credential) Expirations(ref time.Time) []time.Time {
	var out []time.Time
	for _, e := range c.entities {
		if len(e.Revocations) > 0 {
			continue
		}
		if ident := primaryIdentity(e); ident != nil {
			if exp, ok := keyExpiration(e.PrimaryKey, ident.SelfSignature, ref); ok {
				out = append(out, exp)
			}
		}
		for i := range e.Subkeys {
			sub := &e.Subkeys[i]
			if exp, ok := keyExpiration(sub.PublicKey, sub.Sig, ref); ok {
				out = append(out, exp)
			}
		}
	}
	return out
}

// primaryIdentity selects the identity whose self-signature carries the
// primary-user-id flag, falling back to any identity when none is flagged.
func primaryIdentity(e *openpgp.Entity) *openpgp.Identity {
	var fallback *openpgp.Identity
	for _, ident := range e.Identities {
		if fallback == nil {
			fallback = ident
		}
		if sig := ident.SelfSignature; sig != nil && sig.IsPrimaryId != nil && *sig.IsPrimaryId {
			return ident
		}
	}
	return fallback
}

// keyExpiration reports the expiration of one key under its binding
// signature, or ok=false when the key is unusable at ref or never expires.
func keyExpiration(key *packet.PublicKey, sig *packet.Signature, ref time.Time) (time.Time, bool) {
	if key == nil || sig == nil {
		return time.Time{}, false
	}
	switch sig.SigType {
	case packet.SigTypeSubkeyRevocation, packet.SigTypeKeyRevocation:
		return time.Time{}, false
	}
	if sigExpired(sig, ref) {
		return time.Time{}, false
	}
	if sig.KeyLifetimeSecs == nil || *sig.KeyLifetimeSecs == 0 {
		return time.Time{}, false
	}
	return key.CreationTime.Add(time.Duration(*sig.KeyLifetimeSecs) * time.Second), true
}

// sigExpired reports whether the binding signature itself has lapsed at
// ref, which makes the key it binds unusable.
func sigExpired(sig *packet.Signature, ref time.Time) bool {
	if sig.SigLifetimeSecs == nil || *sig.SigLifetimeSecs == 0 {
		return false
	}
	return ref.After(sig.CreationTime.Add(time.Duration(*sig.SigLifetimeSecs) * time.Second))
}
