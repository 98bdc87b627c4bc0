package adapter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// spacePrefixes forces space-splitting instead of the family's default TAB,
// matching the original's handling of OCG/PPCARD exchange feeds.
var spacePrefixes = []string{"OCG", "PPCARD"}

// moduleCountRe parses a module field shaped "NAME[N]".
var moduleCountRe = regexp.MustCompile(`^(.*)\[(\d+)\]$`)

// Exchange is the inter-system exchange daemon's log family: DD.MM.YYYY
// filename dates, "_logfile_" module separator, a module count embedded as
// NAME[N], TAB split by default but SPACE for OCG/PPCARD feeds, and alias
// matching enabled.
type Exchange struct {
	filenameRe *regexp.Regexp
	dateRe     *regexp.Regexp
}

// NewExchange constructs the exchange adapter.
func NewExchange() *Exchange {
	return &Exchange{
		filenameRe: regexp.MustCompile(`(?i)^[A-Za-z0-9]+_logfile_\d{2}\.\d{2}\.\d{4}.*\.log$`),
		dateRe:     regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`),
	}
}

func (a *Exchange) Name() string { return "exchange" }

func (a *Exchange) FilenameRegex() *regexp.Regexp { return a.filenameRe }

func (a *Exchange) FilenameDateRegex() *regexp.Regexp { return a.dateRe }

// SplitChar returns a SPACE for OCG/PPCARD-prefixed filenames, TAB
// otherwise — the original's "jzdo" dynamic split option.
func (a *Exchange) SplitChar(filename string) byte {
	base := filename
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		base = filename[i+1:]
	}
	for _, p := range spacePrefixes {
		if strings.HasPrefix(strings.ToUpper(base), p) {
			return ' '
		}
	}
	return '\t'
}

func (a *Exchange) Columns() []string { return []string{"date", "module", "code", "message"} }

func (a *Exchange) AlarmSeverities() map[string]bool {
	return map[string]bool{"ERROR": true, "WARNING": true}
}

// LineValid enforces the shared shape checks plus a printable-8-bit
// predicate on the message field: a control byte (below 0x20, or 0x7F), or
// a byte in 0x80-0xBF (a UTF-8 continuation byte under _smb_valid's
// "x <= 0x7f or x >= 0xc0" test), rejects the line; bytes 0xC0-0xFF pass. A line
// containing a UTF-8 multibyte sequence is rejected rather than re-decoded
// (see DESIGN.md for the Open Question this resolves).
func (a *Exchange) LineValid(fields []string) bool {
	if len(fields) < 4 {
		return false
	}
	msg := strings.TrimSpace(fields[len(fields)-1])
	if msg == "" {
		return false
	}
	return isPrintable8Bit(msg)
}

func isPrintable8Bit(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < 0x20 || b == 0x7F || (b >= 0x80 && b <= 0xBF) {
			return false
		}
	}
	return true
}

func (a *Exchange) ModuleSplitter() string { return "_logfile_" }

// ModuleCount parses "NAME[N]" module fields, defaulting to (module, 1)
// when there is no bracketed count.
func (a *Exchange) ModuleCount(module string) (string, int) {
	m := moduleCountRe.FindStringSubmatch(module)
	if m == nil {
		return module, 1
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return m[1], 1
	}
	return m[1], n
}

func (a *Exchange) UsesAliases() bool { return true }

func (a *Exchange) RequiresFilenameKeyMatch() bool { return false }

func (a *Exchange) MatchesFilename(filename string, now time.Time, suppressed []string, aliases []string) bool {
	if !minimalFilenameMatch(a.filenameRe, filename, suppressed) {
		return false
	}
	if !filenameCarriesDate(a.dateRe, filename, "02.01.2006", now) {
		return false
	}
	return anySubstring(filename, aliases)
}
