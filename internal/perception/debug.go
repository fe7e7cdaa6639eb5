package perception

import (
	"io"

	"github.com/banshee-data/racecore/internal/monitoring"
)

var logs monitoring.Streams

// SetLogWriters configures the ops, diag and trace streams for the perception
// package. Pass nil for any writer to disable that stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	logs.Set("[perception] ", ops, diag, trace)
}

func opsf(format string, args ...interface{})   { logs.Opsf(format, args...) }
func diagf(format string, args ...interface{})  { logs.Diagf(format, args...) }
func tracef(format string, args ...interface{}) { logs.Tracef(format, args...) }
