// Package adapter implements the per-source-family format contract:
// component C. The three concrete log families (bankperso, sdc, exchange)
// differ only in the fields an Adapter value returns — matching the
// original's class-per-family shape collapsed into one interface, in the
// style of a generic predicate
// tables rather than a class hierarchy.
package adapter

import (
	"regexp"
	"strings"
	"time"

	"github.com/ichar/orderlogd/internal/clock"
)

// Adapter is the per-family contract the watcher, tailer, and correlation
// engine drive through. Implementations are plain structs; there is no
// shared base type, since Go has no use for one here.
type Adapter interface {
	// Name identifies the adapter for logging and the `ctype` config key.
	Name() string

	// FilenameRegex matches files this adapter should track.
	FilenameRegex() *regexp.Regexp

	// FilenameDateRegex extracts the date-bearing substring of a filename.
	FilenameDateRegex() *regexp.Regexp

	// SplitChar returns the column separator for a given filename (the
	// exchange adapter varies this per filename prefix).
	SplitChar(filename string) byte

	// Columns returns the expected column order: date, optional module,
	// code, message.
	Columns() []string

	// AlarmSeverities is the set of severities considered alarmable.
	AlarmSeverities() map[string]bool

	// LineValid reports whether a split line meets the minimum shape the
	// adapter requires (column count, a non-blank message, and for
	// exchange, a printable-8-bit check). The date column is not parsed
	// here, so a line with an unparseable date still passes.
	LineValid(fields []string) bool

	// ModuleSplitter returns the separator token used to carve the module
	// name out of a filename (e.g. "Log_" or "_logfile_").
	ModuleSplitter() string

	// ModuleCount parses a module field of the form "NAME[N]" and returns
	// (NAME, N). Adapters that never carry a count return (module, 1).
	ModuleCount(module string) (string, int)

	// UsesAliases reports whether order matching and filename matching
	// should also test client alias substrings.
	UsesAliases() bool

	// RequiresFilenameKeyMatch reports whether the filename itself must
	// contain one of the order's keys before a line from it is tried.
	RequiresFilenameKeyMatch() bool

	// MatchesFilename reports whether filename passes the adapter's
	// filename-filter policy: matches FilenameRegex, carries a date on or
	// after now's date per FilenameDateRegex, doesn't hit a
	// suppressed substring, and — if the family requires it — carries one
	// of the supplied alias substrings.
	MatchesFilename(filename string, now time.Time, suppressed []string, aliases []string) bool
}

// minimalFilenameMatch is the shared core of MatchesFilename: regex match
// plus suppressed-substring rejection. Concrete adapters call this and add
// their own date/alias rules.
func minimalFilenameMatch(re *regexp.Regexp, filename string, suppressed []string) bool {
	if !re.MatchString(filename) {
		return false
	}
	for _, s := range suppressed {
		if s != "" && strings.Contains(filename, s) {
			return false
		}
	}
	return true
}

// filenameCarriesDate reports whether filename's date-bearing substring,
// parsed under layout, falls on or after floor (date-only comparison).
func filenameCarriesDate(dateRe *regexp.Regexp, filename, layout string, floor time.Time) bool {
	m := dateRe.FindString(filename)
	if m == "" {
		return false
	}
	t, ok := clock.ParseDate(m, layout)
	if !ok {
		return false
	}
	return !clock.DateOnly(t).Before(clock.DateOnly(floor))
}

func anySubstring(haystack string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
