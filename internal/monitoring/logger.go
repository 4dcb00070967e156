// Package monitoring carries the controller's diagnostic logging and
// Prometheus instrumentation.
package monitoring

import "log"

// Logf receives every diagnostic line written by the controller packages.
// It defaults to log.Printf; SetLogger swaps it for tests or embedding.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. A nil logger mutes all output.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs a recovered fault, such as a connect retry or a correction
// fallback, with a "warning: " prefix.
func Warnf(format string, v ...interface{}) {
	Logf("warning: "+format, v...)
}

// Tagged returns a logger that prefixes every line with "[tag] ". The
// returned func resolves Logf on each call so a later SetLogger applies.
func Tagged(tag string) func(format string, v ...interface{}) {
	prefix := "[" + tag + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
