package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/racecore/internal/command"
	"github.com/banshee-data/racecore/internal/comms"
	"github.com/banshee-data/racecore/internal/config"
	"github.com/banshee-data/racecore/internal/debugview"
	"github.com/banshee-data/racecore/internal/driver"
	"github.com/banshee-data/racecore/internal/loop"
	"github.com/banshee-data/racecore/internal/monitoring"
	"github.com/banshee-data/racecore/internal/perception"
	"github.com/banshee-data/racecore/internal/planner"
	"github.com/banshee-data/racecore/internal/pointmap"
	"github.com/banshee-data/racecore/internal/runlog"
	"github.com/banshee-data/racecore/internal/telemetry"
	"github.com/banshee-data/racecore/internal/telemetry/live"
	"github.com/banshee-data/racecore/internal/version"
	"tailscale.com/tsweb"
)

var (
	configPath  = flag.String("config", "", "Tuning config JSON (defaults apply when empty)")
	listen      = flag.String("listen", ":8080", "Debug HTTP listen address; empty disables")
	commsAddr   = flag.String("comms", comms.DefaultAddr, "Command/telemetry TCP address; empty drives in auto without a client")
	grpcAddr    = flag.String("grpc", "", "Live telemetry gRPC address; empty disables")
	dbPath      = flag.String("db", "runlog.db", "Run log SQLite database; empty disables")
	serialPort  = flag.String("serial-port", "/dev/ttyACM0", "Motor controller serial port")
	hardware    = flag.Bool("hardware", false, "Drive real hardware (overrides the tuning config)")
	trace       = flag.Bool("trace", false, "Enable per-cycle trace logging")
	seed        = flag.Int64("seed", 1, "Seed for synthetic perception and expiry jitter")
	runNotes    = flag.String("notes", "", "Notes stored with the run")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// newDriver is swapped out in tests.
var newDriver = driver.New

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Graceful shutdown complete")
}

// run wires the control loop to its collaborators and blocks until ctx is
// cancelled or the loop stops. Every resource opened before a failure is
// released on return, and the driver's Close stops the vehicle.
func run(ctx context.Context) error {
	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(*configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	setupLogging(*trace)
	log.Printf("starting %s", version.String())

	caps := driver.Capabilities{
		Hardware: *hardware || tuning.GetHardware(),
		Port:     *serialPort,
		Options:  driver.PortOptions{BaudRate: driver.DefaultBaudRate},
	}
	drv, err := newDriver(caps, driver.OpenSerial)
	if err != nil {
		return fmt.Errorf("failed to open driver: %w", err)
	}
	defer drv.Close()

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	var sinks telemetry.Multi

	mirror := debugview.NewMirror()
	sinks = append(sinks, mirror)

	if *grpcAddr != "" {
		cfg := live.DefaultConfig()
		cfg.ListenAddr = *grpcAddr
		publisher := live.NewPublisher(cfg)
		if err := publisher.Start(); err != nil {
			return fmt.Errorf("failed to start live telemetry: %w", err)
		}
		defer publisher.Stop()
		sinks = append(sinks, publisher)
	}

	var runDB *runlog.DB
	if *dbPath != "" {
		if runDB, err = runlog.Open(*dbPath); err != nil {
			return fmt.Errorf("failed to open run log: %w", err)
		}
		defer runDB.Close()
		id, err := runDB.StartRun(time.Now(), *runNotes)
		if err != nil {
			return fmt.Errorf("failed to start run: %w", err)
		}
		log.Printf("recording run %d to %s", id, *dbPath)
		sinks = append(sinks, runDB)
	}

	var commands command.Source = command.Fixed{Mode: command.Auto}
	if *commsAddr != "" {
		cfg := comms.DefaultConfig()
		cfg.Addr = *commsAddr
		cfg.CommandTimeout = tuning.GetCommandTimeout()
		server := comms.NewServer(cfg, nil)
		commands = server
		sinks = append(sinks, server)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ListenAndServe(ctx); err != nil {
				log.Printf("comms server: %v", err)
				stop()
			}
			log.Print("comms routine terminated")
		}()
	} else {
		log.Print("no comms address: driving in auto without a client")
	}

	var reloader *config.Reloader
	if *configPath != "" {
		reloader = config.NewReloader(*configPath, loop.DefaultConfig().ReloadInterval)
	}

	rng := rand.New(rand.NewSource(*seed))
	nav := loop.New(tuning, loop.Options{
		Perception: perception.NewSynthetic(perception.DefaultTrack(), perception.DefaultSyntheticConfig(), rng),
		Commands:   commands,
		Driver:     drv,
		Sink:       sinks,
		Rand:       rng,
		Reloader:   reloader,
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := nav.Run(ctx); err != nil {
			log.Printf("control loop: %v", err)
		}
		log.Printf("control loop routine terminated after %d cycles", nav.Cycles())
		stop()
	}()

	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(ctx, *listen, mirror, runDB)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// setupLogging routes every package's ops and diag streams through the
// monitoring logger. Trace is opt-in: it logs every cycle.
func setupLogging(withTrace bool) {
	w := monitoring.Writer()
	var tw io.Writer
	if withTrace {
		tw = w
	}
	comms.SetLogWriters(w, w, tw)
	debugview.SetLogWriters(w, w, tw)
	driver.SetLogWriters(w, w, tw)
	live.SetLogWriters(w, w, tw)
	loop.SetLogWriters(w, w, tw)
	perception.SetLogWriters(w, w, tw)
	planner.SetLogWriters(w, w, tw)
	pointmap.SetLogWriters(w, w, tw)
	runlog.SetLogWriters(w, w, tw)
}

func serveDebug(ctx context.Context, addr string, mirror *debugview.Mirror, runDB *runlog.DB) {
	mux := http.NewServeMux()
	debug := tsweb.Debugger(mux)
	mirror.AttachRoutes(debug)
	if runDB != nil {
		if err := runDB.AttachAdminRoutes(debug); err != nil {
			log.Printf("failed to attach run log routes: %v", err)
		}
	}

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("debug server: %v", err)
		}
	}()
	log.Printf("debug pages at http://%s/debug/", addr)

	<-ctx.Done()
	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("HTTP server routine stopped")
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nRuns the navigation control loop.\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
}
