// Package live streams telemetry frames to viewers over gRPC.
//
// The stream is a live view only: a viewer joining mid-run receives frames
// from that point on, without the map points added earlier.
package live

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/racecore/internal/telemetry"
	"github.com/banshee-data/racecore/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// dropLogEvery throttles the queue-full log line to the first drop and every
// dropLogEvery-th after it.
const dropLogEvery = 100

// ErrPublisherRunning is returned when Start or Serve is called twice.
var ErrPublisherRunning = errors.New("publisher already running")

// Config holds configuration for the live telemetry server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:50051")
	ListenAddr string

	// MaxClients is the maximum number of concurrent streaming clients
	MaxClients int

	// ClientBuffer is the per-client frame queue; a full queue drops frames
	ClientBuffer int

	// StatsInterval is how often throughput is logged
	StatsInterval time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    "localhost:50051",
		MaxClients:    5,
		ClientBuffer:  30,
		StatsInterval: 5 * time.Second,
	}
}

// Publisher implements telemetry.Sink and serves the frames it receives to
// every connected viewer.
type Publisher struct {
	config   Config
	server   *grpc.Server
	listener net.Listener

	frameChan chan *telemetry.Frame
	clients   map[uint64]chan []byte
	clientsMu sync.RWMutex
	nextID    atomic.Uint64

	// Stats
	frameCount     atomic.Uint64
	clientCount    atomic.Int32
	droppedFrames  atomic.Uint64
	lastStatsTime  time.Time
	lastFrameCount uint64

	// Lifecycle
	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewPublisher creates a new Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = DefaultConfig().ClientBuffer
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = DefaultConfig().StatsInterval
	}
	return &Publisher{
		config:    cfg,
		frameChan: make(chan *telemetry.Frame, 100),
		clients:   make(map[uint64]chan []byte),
		stopCh:    make(chan struct{}),
	}
}

// Start listens on the configured address and serves in the background.
func (p *Publisher) Start() error {
	if p.running.Load() {
		return ErrPublisherRunning
	}
	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return p.Serve(lis)
}

// Serve serves on lis in the background until Stop.
func (p *Publisher) Serve(lis net.Listener) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrPublisherRunning
	}
	p.listener = lis
	p.server = grpc.NewServer(
		grpc.MaxSendMsgSize(wire.MaxMessageSize + 64),
	)
	RegisterTelemetryServer(p.server, p)

	p.wg.Add(2)
	go p.broadcastLoop()
	go func() {
		defer p.wg.Done()
		diagf("gRPC telemetry listening on %s", lis.Addr())
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			opsf("gRPC server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully stops the gRPC server.
func (p *Publisher) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)
	p.server.Stop()
	p.wg.Wait()
	diagf("gRPC telemetry stopped")
}

// Send queues a frame for broadcast without blocking the caller; the frame
// is dropped when the queue is full.
func (p *Publisher) Send(f *telemetry.Frame) {
	if !p.running.Load() || f == nil {
		return
	}
	select {
	case p.frameChan <- f:
		p.frameCount.Add(1)
	default:
		if dropped := p.droppedFrames.Add(1); dropped == 1 || dropped%dropLogEvery == 0 {
			opsf("dropped frame %d (total dropped: %d), channel full", f.Cycle, dropped)
		}
	}
}

// broadcastLoop encodes each frame once and distributes it to all clients.
func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case now := <-ticker.C:
			p.logPeriodicStats(now)
		case frame := <-p.frameChan:
			payload := wire.EncodeFrame(frame)
			p.clientsMu.RLock()
			for _, ch := range p.clients {
				select {
				case ch <- payload:
				default:
					// Client is slow, drop frame for this client.
					p.droppedFrames.Add(1)
				}
			}
			p.clientsMu.RUnlock()
			tracef("frame %d: %d bytes to %d clients", frame.Cycle, len(payload), p.clientCount.Load())
		}
	}
}

func (p *Publisher) logPeriodicStats(now time.Time) {
	count := p.frameCount.Load()
	if p.lastStatsTime.IsZero() {
		p.lastStatsTime, p.lastFrameCount = now, count
		return
	}
	elapsed := now.Sub(p.lastStatsTime)
	fps := float64(count-p.lastFrameCount) / elapsed.Seconds()
	diagf("stats: fps=%.1f frames=%d dropped=%d clients=%d queue=%d/%d",
		fps, count-p.lastFrameCount, p.droppedFrames.Load(), p.clientCount.Load(), len(p.frameChan), cap(p.frameChan))
	p.lastStatsTime, p.lastFrameCount = now, count
}

func (p *Publisher) addClient() (uint64, chan []byte, error) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if p.config.MaxClients > 0 && len(p.clients) >= p.config.MaxClients {
		return 0, nil, status.Errorf(codes.ResourceExhausted, "client limit %d reached", p.config.MaxClients)
	}
	id := p.nextID.Add(1)
	ch := make(chan []byte, p.config.ClientBuffer)
	p.clients[id] = ch
	n := p.clientCount.Add(1)
	diagf("client %d connected (total: %d)", id, n)
	return id, ch, nil
}

func (p *Publisher) removeClient(id uint64) {
	p.clientsMu.Lock()
	if _, ok := p.clients[id]; ok {
		delete(p.clients, id)
		p.clientsMu.Unlock()
		n := p.clientCount.Add(-1)
		diagf("client %d disconnected (remaining: %d)", id, n)
		return
	}
	p.clientsMu.Unlock()
}

// StreamFrames implements TelemetryServer.
func (p *Publisher) StreamFrames(_ *emptypb.Empty, stream FrameStreamServer) error {
	id, ch, err := p.addClient()
	if err != nil {
		return err
	}
	defer p.removeClient(id)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return status.Error(codes.Unavailable, "publisher stopped")
		case payload := <-ch:
			if err := stream.Send(wrapperspb.Bytes(payload)); err != nil {
				return err
			}
		}
	}
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		FrameCount:    p.frameCount.Load(),
		DroppedFrames: p.droppedFrames.Load(),
		ClientCount:   p.clientCount.Load(),
		Running:       p.running.Load(),
	}
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	FrameCount    uint64
	DroppedFrames uint64
	ClientCount   int32
	Running       bool
}
