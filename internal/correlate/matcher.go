// Package correlate implements the correlation engine: component E. It
// matches decoded log lines against active orders and persists matches via
// the audit-store client, plus the bounded overstock/reclaim queue for
// lines that didn't match on first try.
package correlate

import "strings"

// KeyMatcher is a precompiled set of lower-cased substring needles,
// adapted from a composable
// predicate idiom but specialized to fixed substring needles rather than a
// general rule DSL, since the correlation rule here — "does any of this
// order's keys appear in the message" — is fixed, not user-authored.
type KeyMatcher struct {
	needles []string
}

// NewKeyMatcher precompiles keys for repeated Any() calls against many
// lines. Empty or blank keys are dropped.
func NewKeyMatcher(keys []string) *KeyMatcher {
	m := &KeyMatcher{needles: make([]string, 0, len(keys))}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		m.needles = append(m.needles, strings.ToLower(k))
	}
	return m
}

// Any reports whether any needle is a substring of haystack
// (case-insensitive).
func (m *KeyMatcher) Any(haystack string) bool {
	if len(m.needles) == 0 {
		return false
	}
	lower := strings.ToLower(haystack)
	for _, n := range m.needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
