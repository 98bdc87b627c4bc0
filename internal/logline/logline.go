// Package logline defines the unit of work passed from the tail reader
// through the format adapters to the correlation engine, adapted from the
// teacher's driver/log/logline package to carry the richer fields the order
// log domain needs.
package logline

import "time"

// Line is one decoded line read from a tracked file, before adapter parsing.
type Line struct {
	Filename string
	Text     string
	ReadAt   time.Time
}

// New constructs a Line.
func New(filename, text string) *Line {
	return &Line{Filename: filename, Text: text, ReadAt: time.Now()}
}

// Item is a Line an adapter has parsed into the fields the correlation
// engine and audit client need. Adapters populate only what their format
// carries; zero values mean "not present in this line".
type Item struct {
	Filename   string
	Raw        string
	Key        string // correlation key: order/account/transaction identifier
	Module     string
	Count      int // module occurrence count, parsed from "NAME[N]" module fields
	Status     int
	StatusText string
	DateFrom   time.Time
	Severity   string // alarm severity, if this line triggers one
	Valid      bool
}

// String satisfies fmt.Stringer for log output, printing the fields an
// operator needs to recognize a line at a glance.
func (i *Item) String() string {
	if i == nil {
		return "<nil>"
	}
	return i.Filename + ": " + i.Key + " [" + i.Module + "] " + i.StatusText
}
