package telemetry

import "sync"

// Sink consumes frames. Send is called from the control loop once per
// cycle and must not block it for long; slow consumers should buffer or
// drop.
type Sink interface {
	Send(f *Frame)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(f *Frame)

// Send calls fn(f).
func (fn SinkFunc) Send(f *Frame) { fn(f) }

// Multi fans each frame out to several sinks in order.
type Multi []Sink

// Send forwards f to every non-nil sink.
func (m Multi) Send(f *Frame) {
	for _, s := range m {
		if s != nil {
			s.Send(f)
		}
	}
}

// Discard drops every frame.
var Discard Sink = SinkFunc(func(*Frame) {})

// Recorder keeps every frame it receives. It is safe for concurrent use and
// intended for tests and short captures.
type Recorder struct {
	mu     sync.Mutex
	frames []*Frame
}

// Send records f.
func (r *Recorder) Send(f *Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

// Frames returns a copy of the recorded frames.
func (r *Recorder) Frames() []*Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Frame(nil), r.frames...)
}
