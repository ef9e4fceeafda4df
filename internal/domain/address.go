package domain

import (
	"regexp"
	"strings"
)

// ordinalWords maps spelled-out street ordinals to the numeric form geocoding
// providers index, e.g. "Third Ave" → "3rd Ave".
var ordinalWords = map[string]string{
	"First":   "1st",
	"Second":  "2nd",
	"Third":   "3rd",
	"Fourth":  "4th",
	"Fifth":   "5th",
	"Sixth":   "6th",
	"Seventh": "7th",
	"Eighth":  "8th",
	"Ninth":   "9th",
	"Tenth":   "10th",
}

var ordinalRes = buildOrdinalRes()

func buildOrdinalRes() map[*regexp.Regexp]string {
	res := make(map[*regexp.Regexp]string, len(ordinalWords))
	for word, number := range ordinalWords {
		res[regexp.MustCompile(`\b`+word+`\b`)] = number
	}
	return res
}

// NormalizeAddress rewrites a free-text location into the form geocoding
// providers resolve best: ordinal words become numerals, abbreviation
// periods are stripped ("Ave." → "Ave"), and surrounding whitespace is
// trimmed.
func NormalizeAddress(address string) string {
	for re, number := range ordinalRes {
		address = re.ReplaceAllString(address, number)
	}

	address = strings.ReplaceAll(address, "Ave.", "Ave")
	address = strings.ReplaceAll(address, "St.", "St")
	address = strings.ReplaceAll(address, "Blvd.", "Blvd")
	return strings.TrimSpace(address)
}

// minAddressLength is the shortest string worth sending to a geocoder.
// Anything shorter is a venue nickname or noise, not a street address.
const minAddressLength = 10

// PlausibleAddress reports whether a normalized location string is worth
// submitting to a geocoder at all.
func PlausibleAddress(address string) bool {
	return len(strings.TrimSpace(address)) >= minAddressLength
}

// RegionRule scopes geocoding to one administrative region. A resolved
// address is accepted only when it contains every Required token and none of
// the Excluded ones. The exclusion guards against ambiguous city names
// resolving into the wrong region entirely (e.g. "Washington" landing in the
// federal district instead of the state).
type RegionRule struct {
	// StateToken and CountryToken are appended to queries that lack them,
	// e.g. "WA" and "USA".
	StateToken   string
	CountryToken string

	// Required tokens the resolved display address must contain,
	// e.g. "Washington" and "United States".
	Required []string
	// Excluded tokens that disqualify a resolved address,
	// e.g. "District of Columbia".
	Excluded []string

	// DefaultLocation describes the region as a whole, used as a coarse
	// fallback location when nothing resolves.
	DefaultLocation string
}

// WithContext appends the rule's state and country tokens to a query that is
// missing them, so bare street addresses resolve inside the right region.
func (r RegionRule) WithContext(address string) string {
	if r.StateToken != "" && !strings.Contains(address, r.StateToken) {
		return address + ", " + r.StateToken + ", " + r.CountryToken
	}
	if r.CountryToken != "" && !strings.Contains(address, r.CountryToken) {
		return address + ", " + r.CountryToken
	}
	return address
}

// Accepts reports whether a geocoder's resolved display address passes
// region validation.
func (r RegionRule) Accepts(resolved string) bool {
	for _, token := range r.Required {
		if !strings.Contains(resolved, token) {
			return false
		}
	}
	for _, token := range r.Excluded {
		if strings.Contains(resolved, token) {
			return false
		}
	}
	return true
}

// FallbackQuery reduces a full address to its last three comma-separated
// components, approximating city/region/country. Used as the one retry after
// a precise geocode misses.
func FallbackQuery(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) <= 3 {
		return strings.TrimSpace(address)
	}
	tail := parts[len(parts)-3:]
	for i := range tail {
		tail[i] = strings.TrimSpace(tail[i])
	}
	return strings.Join(tail, ", ")
}
