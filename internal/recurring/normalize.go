// Package recurring infers recurring payments from a snapshot of a user's
// transactions. Everything here is a pure function of its inputs: callers
// load data through the repositories, run the analysis, and persist results.
package recurring

import (
	"regexp"
	"strings"
)

// MaxMerchantKeyLength bounds the normalized merchant key.
const MaxMerchantKeyLength = 20

var (
	leadingWebToken = regexp.MustCompile(`^(?:(?:https?|www)[^a-z0-9]+)+`)
	domainSuffix    = regexp.MustCompile(`\.(?:co\.uk|com|net|org|io|co)\b`)
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// Normalize canonicalizes a raw merchant name into the key used for
// grouping and matching. "NETFLIX.COM", "https://www.netflix.com" and
// "Netflix" all normalize to "netflix".
//
// The result only contains [a-z0-9], so Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = leadingWebToken.ReplaceAllString(s, "")
	s = domainSuffix.ReplaceAllString(s, "")
	s = nonAlphanumeric.ReplaceAllString(s, "")
	if len(s) > MaxMerchantKeyLength {
		s = s[:MaxMerchantKeyLength]
	}
	return s
}
