// Package logging wraps github.com/sysflow-telemetry/sf-apis/go/logger's
// leveled *log.Logger values with the debug/trace/disableoutput gating the
// original service.py applied around every `self._out(...)` call.
package logging

import (
	"fmt"

	sflogger "github.com/sysflow-telemetry/sf-apis/go/logger"
)

// Flags mirrors the handful of config booleans that gate output in the
// original: debug, deepdebug, trace, existstrace, disableoutput,
// observertrace.
type Flags struct {
	Debug          bool
	DeepDebug      bool
	Trace          bool
	ExistsTrace    bool
	DisableOutput  bool
	ObserverTrace  bool
}

// Logger is the service-wide logging facade. It is intentionally tiny: the
// interesting behavior is *which* calls are gated, not a new logging
// backend — sf-apis/go/logger already owns formatting and destinations.
type Logger struct {
	flags Flags
}

// New constructs a Logger bound to the given gating flags.
func New(flags Flags) *Logger {
	return &Logger{flags: flags}
}

// Out prints a line the way Logger.out() did in service.py: suppressed
// entirely when disableoutput is set.
func (l *Logger) Out(format string, args ...interface{}) {
	if l.flags.DisableOutput {
		return
	}
	sflogger.Info.Printf(format, args...)
}

// Debug prints only when the debug flag is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.flags.Debug || l.flags.DisableOutput {
		return
	}
	sflogger.Trace.Printf(format, args...)
}

// DeepDebug prints only when deepdebug is enabled, for the highest-volume
// per-line tracing.
func (l *Logger) DeepDebug(format string, args ...interface{}) {
	if !l.flags.DeepDebug || l.flags.DisableOutput {
		return
	}
	sflogger.Trace.Printf(format, args...)
}

// Error always prints, regardless of disableoutput — fatal/error-path
// output must reach the error log.
func (l *Logger) Error(format string, args ...interface{}) {
	sflogger.Error.Printf(format, args...)
}

// ObserverTrace prints watcher event churn only when observertrace is set.
func (l *Logger) ObserverTrace(format string, args ...interface{}) {
	if !l.flags.ObserverTrace {
		return
	}
	sflogger.Trace.Printf(fmt.Sprintf("*** %s", format), args...)
}

// Flags returns the logger's gating flags, for callers that need to branch
// on them directly (e.g. whether to build an expensive trace string at
// all).
func (l *Logger) Flags() Flags {
	return l.flags
}
