// Package wkd locates OpenPGP credentials for email addresses using the
// Web Key Directory advanced method.
package wkd

import (
	"crypto/sha1"
	"fmt"
	"net/url"
	"strings"

	"github.com/tv42/zbase32"
)

// AdvancedURL derives the advanced-method lookup URL for an email address:
// the SHA-1 of the lowercased local part, z-base-32 encoded, served from
// the openpgpkey subdomain of the address domain.
func AdvancedURL(email string) (string, error) {
	local, domain, err := splitAddress(email)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(domain, "/?#:@ \t") || strings.Contains(domain, "..") {
		return "", fmt.Errorf("building wkd url: invalid domain %q", domain)
	}

	sum := sha1.Sum([]byte(strings.ToLower(local)))
	hash := zbase32.EncodeToString(sum[:])
	return fmt.Sprintf("https://openpgpkey.%s/.well-known/openpgpkey/%s/hu/%s?l=%s",
		domain, domain, hash, url.QueryEscape(local)), nil
}

// splitAddress separates an address at its last "@". The local part keeps
// its case (it is passed through in the l= query parameter); the domain is
// lowercased.
func splitAddress(email string) (local, domain string, err error) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", fmt.Errorf("parsing email address %q: missing local part or domain", email)
	}
	local = email[:at]
	if strings.ContainsAny(local, " \t") {
		return "", "", fmt.Errorf("parsing email address %q: whitespace in local part", email)
	}
	return local, strings.ToLower(email[at+1:]), nil
}
