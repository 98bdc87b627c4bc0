package adapter

import (
	"regexp"
	"strings"
	"time"
)

// Bankperso is the personalization-engine log family: filenames carry a
// YYYYMMDD date, no module separator beyond a "Log_" token, always a
// single module per line, TAB-split, and no alias matching.
type Bankperso struct {
	filenameRe *regexp.Regexp
	dateRe     *regexp.Regexp
}

// NewBankperso constructs the bankperso adapter.
func NewBankperso() *Bankperso {
	return &Bankperso{
		filenameRe: regexp.MustCompile(`(?i)^Log_\d{8}.*\.log$`),
		dateRe:     regexp.MustCompile(`\d{8}`),
	}
}

func (a *Bankperso) Name() string { return "bankperso" }

func (a *Bankperso) FilenameRegex() *regexp.Regexp { return a.filenameRe }

func (a *Bankperso) FilenameDateRegex() *regexp.Regexp { return a.dateRe }

func (a *Bankperso) SplitChar(string) byte { return '\t' }

func (a *Bankperso) Columns() []string { return []string{"date", "code", "message"} }

func (a *Bankperso) AlarmSeverities() map[string]bool {
	return map[string]bool{"ERROR": true, "WARNING": true}
}

func (a *Bankperso) LineValid(fields []string) bool {
	if len(fields) < 3 {
		return false
	}
	if strings.TrimSpace(fields[len(fields)-1]) == "" {
		return false
	}
	return true
}

func (a *Bankperso) ModuleSplitter() string { return "Log_" }

func (a *Bankperso) ModuleCount(module string) (string, int) { return module, 1 }

func (a *Bankperso) UsesAliases() bool { return false }

func (a *Bankperso) RequiresFilenameKeyMatch() bool { return false }

func (a *Bankperso) MatchesFilename(filename string, now time.Time, suppressed []string, aliases []string) bool {
	if !minimalFilenameMatch(a.filenameRe, filename, suppressed) {
		return false
	}
	return filenameCarriesDate(a.dateRe, filename, "20060102", now)
}
