// Package clock centralizes the date/time layouts and parsing helpers shared
// by config, the order cache, and the format adapters.
package clock

import "time"

// Layouts mirror the strftime formats in the original config.py.
const (
	LocalFullTimestamp  = "02-01-2006 15:04:05"
	LocalEasyTimestamp  = "02-01-2006 15:04"
	LocalEasyDateStamp  = "2006-01-02"
	UTCFullTimestamp    = "2006-01-02 15:04:05"
	UTCEasyTimestamp    = "2006-01-02 15:04"
	DateStamp           = "20060102"
	DateDotStamp        = "02.01.2006"
)

// CheckDate reports whether value parses under layout.
func CheckDate(value, layout string) bool {
	_, err := time.Parse(layout, value)
	return err == nil
}

// ParseDate parses value under layout, returning the zero time and false on
// failure instead of an error — callers in this codebase always treat a bad
// date as "no date", matching the original's `getDate(..., is_date=True)`.
func ParseDate(value, layout string) (time.Time, bool) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// DateOnly truncates t to midnight in its own location, matching
// `getDateOnly` in the original utils module.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Floor returns the date t shifted by deltaDays (deltaDays is typically
// negative, e.g. -7 or -30, for a delta_datefrom window).
func Floor(t time.Time, deltaDays int) time.Time {
	return DateOnly(t).AddDate(0, 0, deltaDays)
}
