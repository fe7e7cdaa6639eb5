// Package monitoring holds the process-wide fallback logger.
package monitoring

import (
	"io"
	"log"
	"strings"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Writer returns an io.Writer that forwards each write to Logf, for handing
// to a package's SetLogWriters. Logf is looked up on every write so a later
// SetLogger takes effect.
func Writer() io.Writer {
	return logfWriter{}
}

type logfWriter struct{}

func (logfWriter) Write(p []byte) (int, error) {
	Logf("%s", strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
