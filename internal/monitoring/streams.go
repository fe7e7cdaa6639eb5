package monitoring

import (
	"io"
	"log"
	"sync/atomic"
)

// Streams is a package's three log streams:
//
//   - ops: actionable warnings, errors, data loss
//   - diag: day-to-day diagnostics and tuning context
//   - trace: per-cycle detail, normally off
//
// The zero value logs nothing. Streams may be reconfigured while in use.
type Streams struct {
	ops, diag, trace atomic.Pointer[log.Logger]
}

// Set points the streams at the given writers. A nil writer disables its
// stream.
func (s *Streams) Set(prefix string, ops, diag, trace io.Writer) {
	s.ops.Store(newLogger(prefix, ops))
	s.diag.Store(newLogger(prefix, diag))
	s.trace.Store(newLogger(prefix, trace))
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func (s *Streams) Opsf(format string, args ...interface{}) { printf(s.ops.Load(), format, args) }

// Diagf logs to the diag stream.
func (s *Streams) Diagf(format string, args ...interface{}) { printf(s.diag.Load(), format, args) }

// Tracef logs to the trace stream.
func (s *Streams) Tracef(format string, args ...interface{}) { printf(s.trace.Load(), format, args) }

// Tracing reports whether the trace stream is enabled, for callers that
// would otherwise build an expensive message for nothing.
func (s *Streams) Tracing() bool { return s.trace.Load() != nil }

func printf(l *log.Logger, format string, args []interface{}) {
	if l != nil {
		l.Printf(format, args...)
	}
}
