// Package config loads the service's line-oriented `key::value` config
// file, matching config.py's `make_config`. No library in the example pack
// parses this bespoke dialect (see DESIGN.md), so the parser is hand
// rolled; everything downstream consumes the typed *Config it produces.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ichar/orderlogd/internal/clock"
	"github.com/ichar/orderlogd/internal/pathutil"
)

func defaultNow() time.Time { return time.Now() }

// DefaultComplete mirrors config.py's COMPLETE_STATUSES.
var DefaultComplete = []int{62, 64, 98, 197, 198, 201, 202, 203, 255}

// pathKeys lists the config keys whose values are filesystem paths and
// should be normalized + joined against the config file's own directory,
// matching `key in ':console:seen:'` in make_config (console is not used by
// this daemon but seen and errorlog are).
var pathKeys = map[string]bool{
	"seen":     true,
	"errorlog": true,
}

// Config is the parsed, typed view over the raw key::value map.
type Config struct {
	raw  map[string]string
	base string // directory the config file lives in, for path-valued keys
	now  string
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw := map[string]string{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		parts := strings.SplitN(line, "::", 2)
		if len(parts) < 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		raw[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	base := pathutil.Normalize(dirOf(path))
	c := &Config{raw: raw, base: base, now: clock.FormatDate(nowFunc(), clock.DateStamp)}
	return c, nil
}

// nowFunc is overridable in tests.
var nowFunc = defaultNow

// Get returns the raw string value for key, and whether it was present.
func (c *Config) Get(key string) (string, bool) {
	v, ok := c.raw[key]
	return v, ok
}

// GetString returns the raw string value for key, or "" if absent.
func (c *Config) GetString(key string) string {
	v := c.raw[key]
	if pathKeys[key] && v != "" {
		return pathutil.Normalize(joinBase(c.base, v))
	}
	return v
}

// GetBool interprets "true"/"false" (case-insensitive); any other value, or
// an absent key, is false.
func (c *Config) GetBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(c.raw[key]))
	return v == "true"
}

// GetInt parses a decimal integer, defaulting to def when absent or
// unparsable.
func (c *Config) GetInt(key string, def int) int {
	v, ok := c.raw[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// GetPipeList splits a pipe-joined value ("a|b|c"), dropping empty
// elements. Matches the generic `'|' in value` branch of make_config.
func (c *Config) GetPipeList(key string) []string {
	return splitNonEmpty(c.raw[key], "|")
}

// GetColonList splits a colon-joined value, dropping empty elements.
// `suppressed` and `options` are both colon-joined sets in the original.
func (c *Config) GetColonList(key string) []string {
	return splitNonEmpty(c.raw[key], ":")
}

// HasOption reports whether name is present in the colon-joined `options`
// set, or the set contains the wildcard "*".
func (c *Config) HasOption(name string) bool {
	opts := c.GetColonList("options")
	for _, o := range opts {
		if o == name || o == "*" {
			return true
		}
	}
	return false
}

// CType returns the adapter selector, defaulting to "bankperso" the way
// create_app() falls back when ctype is empty or unrecognized.
func (c *Config) CType() string {
	v := strings.ToLower(strings.TrimSpace(c.raw["ctype"]))
	switch v {
	case "bankperso", "sdc", "exchange":
		return v
	default:
		return "bankperso"
	}
}

// DeltaDateFrom parses "near:far" day deltas, defaulting to (-7, -30).
func (c *Config) DeltaDateFrom() (near, far int) {
	v, ok := c.raw["delta_datefrom"]
	if !ok {
		return -7, -30
	}
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return -7, -30
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	f, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return -7, -30
	}
	return n, f
}

// Complete returns the terminal status codes, defaulting to
// DefaultComplete.
func (c *Config) Complete() []int {
	v, ok := c.raw["complete"]
	if !ok || v == "" {
		return DefaultComplete
	}
	parts := splitNonEmpty(v, "|")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return DefaultComplete
	}
	return out
}

// Now returns the date the config was loaded, formatted as DateStamp —
// mirrors `_config['now']` in make_config, refreshed on each
// `_evolute_date` call via Touch.
func (c *Config) Now() string { return c.now }

// Touch updates Now() to reflect a new "current" date, matching
// `self.config['now'] = getDate(date_from, format=DATE_STAMP)` in
// `_evolute_date`.
func (c *Config) Touch(dateStamp string) { c.now = dateStamp }

func splitNonEmpty(v, sep string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dirOf(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[:i]
	}
	return "."
}

func joinBase(base, value string) string {
	if strings.HasPrefix(value, "/") || strings.Contains(value, ":") {
		return value
	}
	if base == "" || base == "." {
		return value
	}
	return base + "/" + value
}
