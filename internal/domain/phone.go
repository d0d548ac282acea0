package domain

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultPhoneRegion is assumed for numbers entered without a country
// prefix.
const DefaultPhoneRegion = "CI"

// NormalizePhone canonicalizes a phone number to E.164 so that intake,
// tracking lookups and rate-limit keys all agree on the same form. Numbers
// that cannot be parsed are returned trimmed, not rejected: the tracking
// match will simply fail closed.
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	num, err := libphonenumber.Parse(trimmed, DefaultPhoneRegion)
	if err != nil {
		return trimmed
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

// SamePhone reports whether two raw numbers denote the same line once
// normalized.
func SamePhone(a, b string) bool {
	return NormalizePhone(a) == NormalizePhone(b)
}
