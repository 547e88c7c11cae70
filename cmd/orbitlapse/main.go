// Command orbitlapse replays a satellite launch database as a time-lapse on
// a terminal globe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/litescript/orbitlapse/internal/config"
	"github.com/litescript/orbitlapse/internal/dataset"
	"github.com/litescript/orbitlapse/internal/geocode"
	"github.com/litescript/orbitlapse/internal/logging"
	"github.com/litescript/orbitlapse/internal/observability"
	"github.com/litescript/orbitlapse/internal/orbit"
	"github.com/litescript/orbitlapse/internal/sequencer"
	"github.com/litescript/orbitlapse/internal/state"
	"github.com/litescript/orbitlapse/internal/ui"
	"github.com/litescript/orbitlapse/internal/version"
)

// CLI flags for headless mode
var (
	headlessMode bool
	summaryMode  bool
	listMode     bool
	statusEvery  time.Duration
	showVersion  bool
)

const defaultStatusEvery = 5 * time.Second

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment
	flag.StringVar(&cfg.DatasetPath, "dataset", cfg.DatasetPath, "Launch database (.xlsx or .csv)")
	flag.StringVar(&cfg.GeocodeURL, "geocode-url", cfg.GeocodeURL, "Nominatim-compatible geocoder base URL")
	flag.StringVar(&cfg.GeocodeFile, "geocode-file", cfg.GeocodeFile, "Offline JSON table of site coordinates (skips the geocoder)")
	flag.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent sent to the geocoder")
	flag.Float64Var(&cfg.GeocodeRate, "geocode-rate", cfg.GeocodeRate, "Geocoder requests per second (0 = unlimited)")
	flag.DurationVar(&cfg.GeocodeTimeout, "geocode-timeout", cfg.GeocodeTimeout, "Geocoder request timeout (0 = none)")
	flag.DurationVar(&cfg.Pacing, "pacing", cfg.Pacing, "Pause after each launch")
	flag.DurationVar(&cfg.FrameInterval, "frame", cfg.FrameInterval, "Time between animation frames")
	flag.Float64Var(&cfg.TimeCompression, "compression", cfg.TimeCompression, "Simulated seconds per frame")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file used while the TUI owns the terminal")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address (e.g. :9090)")
	flag.BoolVar(&cfg.TracingEnabled, "trace", cfg.TracingEnabled, "Write geocode spans to the trace file")
	flag.StringVar(&cfg.TraceFile, "trace-file", cfg.TraceFile, "Span output file")
	flag.BoolVar(&headlessMode, "headless", false, "Run without TUI, printing status lines")
	flag.BoolVar(&summaryMode, "summary", false, "Run without TUI and print only the final summary")
	flag.BoolVar(&listMode, "list", false, "Print the normalized launch records and exit")
	flag.DurationVar(&statusEvery, "status-every", defaultStatusEvery, "Headless status line interval (0 = off)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("orbitlapse v%s\n", version.Version)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	headless := headlessMode || summaryMode || listMode

	// Set up logging; the TUI owns the terminal, so interactive runs log to a file
	level := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(level)
	if !headless {
		logger, err = logging.NewFile(level, cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Close()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	records, err := dataset.LoadRecords(cfg.DatasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("loaded %d launch records from %s", len(records), cfg.DatasetPath)

	if listMode {
		dataset.WriteRecordTable(os.Stdout, sequencer.Order(records))
		return
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "orbitlapse",
		File:        cfg.TraceFile,
	}, logger.With("tracing"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, collector.Handler(), logger.With("metrics"))
		defer stop()
	}

	lookup, err := newLookup(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Initialize components
	resolver := geocode.NewResolver(lookup,
		geocode.WithLogger(logger.With("geocode")),
		geocode.WithMetrics(collector),
	)
	world := orbit.NewWorld(cfg.Orbit(), orbit.WithOrbitHook(func(e orbit.Entity) {
		logger.Debug("%s in orbit: r=%.3f speed=%.5f rad/frame", e.Spec.Name, e.Orbit.Radius, e.Orbit.Speed)
	}))
	stateMgr := state.NewManager(state.DefaultConfig())
	stateMgr.Start(len(records))
	seq := sequencer.New(resolver, world,
		sequencer.WithPacing(cfg.Pacing),
		sequencer.WithLogger(logger.With("sequencer")),
		sequencer.WithObserver(stateMgr),
		sequencer.WithObserver(collector),
	)

	if headless {
		runHeadless(ctx, cfg, seq, world, stateMgr, collector, records, logger)
		return
	}

	// Create TUI model
	model := ui.New(stateMgr, world,
		ui.WithFrameInterval(cfg.FrameInterval),
		ui.WithCacheStats(resolver),
		ui.WithFrameObserver(collector.ObserveFrame),
	)

	// Create Bubble Tea program
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Start sequencer in background
	go func() {
		res, err := seq.Run(ctx, records)
		p.Send(ui.SequenceDoneMsg{Result: res, Err: err})
	}()

	// Run TUI (blocks until quit)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func newLookup(cfg config.Config) (geocode.Lookup, error) {
	if cfg.GeocodeFile != "" {
		return geocode.LoadStatic(cfg.GeocodeFile)
	}
	return geocode.NewClient(
		geocode.WithBaseURL(cfg.GeocodeURL),
		geocode.WithUserAgent(cfg.UserAgent),
		geocode.WithTimeout(cfg.GeocodeTimeout),
		geocode.WithRateLimit(cfg.GeocodeRate),
	), nil
}

func serveMetrics(addr string, handler http.Handler, logger *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// runHeadless drives the world from a ticker while the sequencer runs, and
// returns once every record is processed and every launch has reached orbit.
func runHeadless(ctx context.Context, cfg config.Config, seq *sequencer.Sequencer, world *orbit.World,
	stateMgr *state.Manager, collector *observability.Collector, records []dataset.LaunchRecord, logger *logging.Logger) {

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	seqDone := make(chan struct{})
	go func() {
		defer close(seqDone)
		if _, err := seq.Run(ctx, records); err != nil {
			logger.Warn("sequencer stopped: %v", err)
		}
	}()

	frames := time.NewTicker(cfg.FrameInterval)
	defer frames.Stop()

	var statusC <-chan time.Time
	if statusEvery > 0 && !summaryMode {
		status := time.NewTicker(statusEvery)
		defer status.Stop()
		statusC = status.C
	}

	finished := false
	done := seqDone
	for {
		select {
		case <-ctx.Done():
			logger.Debug("headless loop shutting down")
			finish(os.Stdout, stateMgr, world, isTTY)
			return

		case <-done:
			finished = true
			done = nil

		case <-frames.C:
			world.Tick()
			launching, orbiting := world.Counts()
			collector.ObserveFrame(launching, orbiting)
			if finished && world.Idle() {
				finish(os.Stdout, stateMgr, world, isTTY)
				return
			}

		case <-statusC:
			launching, orbiting := world.Counts()
			writeStatus(os.Stdout, stateMgr.Snapshot(), launching, orbiting, isTTY)
		}
	}
}

// writeStatus appends a status line, or redraws it in place on a terminal.
func writeStatus(w io.Writer, snap state.Snapshot, launching, orbiting int, isTTY bool) {
	if !isTTY {
		state.WriteStatusLine(w, snap, launching, orbiting)
		return
	}
	var b strings.Builder
	state.WriteStatusLine(&b, snap, launching, orbiting)
	fmt.Fprint(w, "\r\033[K"+strings.TrimSuffix(b.String(), "\n"))
}

func finish(w io.Writer, stateMgr *state.Manager, world *orbit.World, isTTY bool) {
	if !summaryMode {
		launching, orbiting := world.Counts()
		writeStatus(w, stateMgr.Snapshot(), launching, orbiting, isTTY)
		fmt.Fprintln(w)
		if !isTTY {
			fmt.Fprintln(w)
		}
	}
	state.WriteSummary(w, stateMgr.Snapshot(), world.Entities())
}
