// Package comms serves the remote operator client over TCP.
//
// The client drives the exchange: every length-delimited RemoteCommand it
// sends is answered with exactly one length-delimited telemetry frame. The
// frame's map update carries all additions and removals since the previous
// answer, so a client that applies them in order mirrors the vehicle's map.
// A newly connected client first receives every point the server knows of.
package comms

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/banshee-data/racecore/internal/telemetry"
	"github.com/banshee-data/racecore/internal/timeutil"
	"github.com/banshee-data/racecore/internal/wire"
)

// DefaultAddr is the operator client's default port.
const DefaultAddr = ":3141"

// Config holds the server settings.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// CommandTimeout is how long a command stays valid without a newer one.
	CommandTimeout time.Duration
	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:           DefaultAddr,
		CommandTimeout: command.DefaultTimeout,
		IdleTimeout:    5 * time.Second,
	}
}

// Server is a command.Source fed by the remote client and a telemetry.Sink
// whose frames are returned to it.
type Server struct {
	cfg      Config
	failsafe *command.Failsafe

	mu      sync.Mutex
	tracker *pointmap.DeltaTracker
	known   map[pointmap.PointID]pointmap.Point
	latest  telemetry.Frame
	hasData bool

	// Deltas are only tracked while a client is attached; a new client is
	// seeded from known.
	connected bool

	served  int
	clients int
}

// NewServer creates a server. A nil clock uses the real clock.
func NewServer(cfg Config, clock timeutil.Clock) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		cfg:      cfg,
		failsafe: command.NewFailsafe(clock, cfg.CommandTimeout),
		tracker:  pointmap.NewDeltaTracker(),
		known:    make(map[pointmap.PointID]pointmap.Point),
	}
}

// Latest implements command.Source. It reports Off when the client has gone
// quiet for longer than the command timeout.
func (s *Server) Latest() command.Command {
	return s.failsafe.Latest()
}

// Send implements telemetry.Sink. The frame's map delta is accumulated for
// the next answer; the rest of the frame replaces the previous one.
func (s *Server) Send(f *telemetry.Frame) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range f.Added {
		s.known[p.ID] = p
	}
	for _, id := range f.Removed {
		delete(s.known, id)
	}
	if s.connected {
		s.tracker.Merge(f.Delta())
	}

	s.latest = *f
	s.latest.Added = nil
	s.latest.Removed = nil
	s.hasData = true
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve accepts clients on lis one at a time until ctx is cancelled. Further
// clients wait in the listen backlog until the current one disconnects.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	stop := context.AfterFunc(ctx, func() { lis.Close() })
	defer stop()
	defer lis.Close()

	diagf("listening on %s", lis.Addr())
	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	s.resync()
	defer s.detach()
	diagf("client %s connected", conn.RemoteAddr())

	r := bufio.NewReader(conn)
	answered := 0
	for {
		if s.cfg.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		msg, err := wire.ReadDelimited(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				opsf("client %s: %v", conn.RemoteAddr(), err)
			}
			break
		}
		cmd, err := wire.DecodeCommand(msg)
		if err != nil {
			opsf("client %s: bad command: %v", conn.RemoteAddr(), err)
			break
		}
		s.failsafe.Update(cmd)
		tracef("command %s", cmdString(cmd))

		if err := wire.WriteDelimited(conn, wire.EncodeFrame(s.answer())); err != nil {
			if ctx.Err() == nil {
				opsf("client %s: %v", conn.RemoteAddr(), err)
			}
			break
		}
		answered++
	}
	diagf("client %s disconnected after %d commands", conn.RemoteAddr(), answered)
}

// resync restarts delta tracking for a new client, seeding it with every
// point currently known so its mirror starts complete.
func (s *Server) resync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker = pointmap.NewDeltaTracker()
	all := make([]pointmap.Point, 0, len(s.known))
	for _, p := range s.known {
		all = append(all, p)
	}
	s.tracker.Added(all)
	s.clients++
	s.connected = true
}

// detach stops delta tracking once the client has gone.
func (s *Server) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.tracker = pointmap.NewDeltaTracker()
}

// answer builds the next reply frame and flushes the pending delta into it.
func (s *Server) answer() *telemetry.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.latest
	d := s.tracker.Flush()
	f.Added, f.Removed = d.Added, d.Removed
	if !s.hasData {
		f.Diagnostic.NearestObstacle = telemetry.NoObstacle
	}
	s.served++
	return &f
}

// Stats reports how many clients have connected and frames were answered.
func (s *Server) Stats() (clients, frames int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients, s.served
}

func cmdString(c command.Command) string {
	return fmt.Sprintf("%s throttle=%.2f turn=%.2f", c.Mode, c.Throttle, c.Turn)
}
