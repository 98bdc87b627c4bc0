package adapter

import (
	"regexp"
	"strings"
	"time"
)

// defaultSDCModuleCapture is the fallback module-name extraction pattern
// when the config doesn't supply one via `filemask`.
var defaultSDCModuleCapture = regexp.MustCompile(`(?i)^(?P<module>[A-Za-z0-9]+)_SDC`)

// SDC is the SDC subsystem's log family: DD.MM.YYYY filename dates, a
// configurable regex capture for the module name, always one module per
// line, TAB-split, and alias matching enabled.
type SDC struct {
	filenameRe   *regexp.Regexp
	dateRe       *regexp.Regexp
	moduleCapture *regexp.Regexp
}

// NewSDC constructs the SDC adapter. moduleCapture may be nil to use the
// default "<module>_SDC" pattern; it must have a named group "module" when
// supplied, matching the original's `filemask` config option.
func NewSDC(moduleCapture *regexp.Regexp) *SDC {
	if moduleCapture == nil {
		moduleCapture = defaultSDCModuleCapture
	}
	return &SDC{
		filenameRe:    regexp.MustCompile(`(?i)^[A-Za-z0-9_]+_SDC_\d{2}\.\d{2}\.\d{4}.*\.log$`),
		dateRe:        regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`),
		moduleCapture: moduleCapture,
	}
}

func (a *SDC) Name() string { return "sdc" }

func (a *SDC) FilenameRegex() *regexp.Regexp { return a.filenameRe }

func (a *SDC) FilenameDateRegex() *regexp.Regexp { return a.dateRe }

func (a *SDC) SplitChar(string) byte { return '\t' }

func (a *SDC) Columns() []string { return []string{"date", "module", "code", "message"} }

func (a *SDC) AlarmSeverities() map[string]bool {
	return map[string]bool{"ERROR": true, "WARNING": true}
}

func (a *SDC) LineValid(fields []string) bool {
	if len(fields) < 4 {
		return false
	}
	return strings.TrimSpace(fields[len(fields)-1]) != ""
}

// ModuleSplitter returns empty: SDC derives the module from a regex
// capture on the filename, not a fixed separator token in the line.
func (a *SDC) ModuleSplitter() string { return "" }

func (a *SDC) ModuleCount(module string) (string, int) { return module, 1 }

func (a *SDC) UsesAliases() bool { return true }

func (a *SDC) RequiresFilenameKeyMatch() bool { return false }

// ModuleFromFilename applies the configured capture pattern to filename,
// returning "" if it doesn't match.
func (a *SDC) ModuleFromFilename(filename string) string {
	m := a.moduleCapture.FindStringSubmatch(filename)
	if m == nil {
		return ""
	}
	idx := a.moduleCapture.SubexpIndex("module")
	if idx < 0 || idx >= len(m) {
		return ""
	}
	return m[idx]
}

func (a *SDC) MatchesFilename(filename string, now time.Time, suppressed []string, aliases []string) bool {
	if !minimalFilenameMatch(a.filenameRe, filename, suppressed) {
		return false
	}
	if !filenameCarriesDate(a.dateRe, filename, "02.01.2006", now) {
		return false
	}
	return anySubstring(filename, aliases)
}
