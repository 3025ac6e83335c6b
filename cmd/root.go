package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/trade-sim/sim"
	"github.com/inference-sim/trade-sim/sim/ledger"
	"github.com/inference-sim/trade-sim/sim/metrics"
	"github.com/inference-sim/trade-sim/sim/pricing"
	"github.com/inference-sim/trade-sim/sim/trace"
	"github.com/inference-sim/trade-sim/sim/worldgen"
)

var (
	// CLI flags for the run
	seed        int64  // Seed for world generation and every engine draw
	ticks       int64  // Number of ticks to simulate
	configPath  string // Optional YAML config file
	logLevel    string // Log verbosity level
	verbose     bool   // Echo every record at info level
	jsonlPath   string // Append records as JSON lines to this file
	sqlitePath  string // Store records in this SQLite database
	metricsAddr string // Serve Prometheus metrics on this address
	summary     bool   // Print a record summary at the end of the run

	// CLI flags for world size
	companies int // Number of generated companies
	suppliers int // Number of generated suppliers
	products  int // Number of generated products
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "trade-sim",
	Short: "Tick-based simulator for a closed trading economy",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		sink, memory, err := openSink(jsonlPath, sqlitePath, summary)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() {
			if err := sink.Close(); err != nil {
				logrus.Errorf("closing record sink: %v", err)
			}
		}()

		reg := metrics.NewRegistry()
		if metricsAddr != "" {
			srv := serveMetrics(metricsAddr, reg)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logrus.Infof("Starting simulation: seed=%d ticks=%d companies=%d suppliers=%d products=%d",
			cfg.Seed, ticks, cfg.World.Companies, cfg.World.Suppliers, cfg.World.Products)
		startTime := time.Now()

		engine, runErr := runSimulation(ctx, cfg, ticks, sink, reg, verbose)
		if engine != nil {
			engine.Metrics.Print(os.Stdout)
			if memory != nil {
				printSummary(os.Stdout, trace.Summarize(memory.Entries))
			}
		}
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logrus.Fatalf("Simulation failed: %v", runErr)
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime).Round(time.Millisecond))
	},
}

// buildConfig loads --config (or the defaults) and applies flags the user set
// explicitly, so a flag always wins over the file.
func buildConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("companies") {
		cfg.World.Companies = companies
	}
	if flags.Changed("suppliers") {
		cfg.World.Suppliers = suppliers
	}
	if flags.Changed("products") {
		cfg.World.Products = products
	}
	if ticks < 0 {
		return cfg, fmt.Errorf("--ticks must be non-negative, got %d", ticks)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openSink assembles the record sinks the flags ask for. Records always reach the
// process log; files and databases are added on top. keep also retains every record
// in memory for the end-of-run summary.
func openSink(jsonl, sqlite string, keep bool) (trace.Sink, *trace.MemorySink, error) {
	sinks := trace.MultiSink{trace.NewLogrusSink(logrus.StandardLogger(), logrus.TraceLevel)}
	if jsonl != "" {
		f, err := os.OpenFile(jsonl, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening record file: %w", err)
		}
		sinks = append(sinks, trace.NewJSONLSink(f))
	}
	if sqlite != "" {
		db, err := trace.OpenSQLiteSink(sqlite)
		if err != nil {
			_ = sinks.Close()
			return nil, nil, err
		}
		sinks = append(sinks, db)
	}
	var memory *trace.MemorySink
	if keep {
		memory = trace.NewMemorySink()
		sinks = append(sinks, memory)
	}
	return sinks, memory, nil
}

// runSimulation generates the world from cfg.Seed and advances the engine, feeding
// every tick summary into reg. The engine is returned even when the run stops early.
func runSimulation(ctx context.Context, cfg sim.Config, ticks int64, sink trace.Sink, reg *metrics.Registry, verbose bool) (*sim.Engine, error) {
	store := ledger.NewMemoryStore()
	prices := pricing.NewTable()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	if err := worldgen.Generate(cfg.World, store, prices, rng.ForSubsystem(sim.SubsystemWorld)); err != nil {
		return nil, fmt.Errorf("generating world: %w", err)
	}
	engine, err := sim.NewEngine(cfg, store, prices, sink, rng)
	if err != nil {
		return nil, err
	}

	for i := int64(0); i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			logrus.Warnf("[tick %07d] Run interrupted", engine.State.Tick)
			reg.ObserveRun(engine.Metrics)
			return engine, err
		}
		res, err := engine.AdvanceTick(verbose)
		if err != nil {
			reg.ObserveRun(engine.Metrics)
			return engine, err
		}
		reg.Observe(res)
	}
	reg.ObserveRun(engine.Metrics)
	return engine, nil
}

func serveMetrics(addr string, reg *metrics.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server: %v", err)
		}
	}()
	logrus.Infof("Serving metrics on %s/metrics", addr)
	return srv
}

func printSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Record Summary ===")
	fmt.Fprintf(w, "Purchase Records     : %d\n", s.PurchaseAttempts)
	fmt.Fprintf(w, "Successful           : %d (%.2f%%)\n", s.Successes, 100*s.SuccessRate)
	fmt.Fprintf(w, "Units Bought         : %d\n", s.UnitsBought)
	for _, reason := range sortedKeys(s.FailureReasons) {
		fmt.Fprintf(w, "Failed (%s) : %d\n", reason, s.FailureReasons[reason])
	}
	for _, kind := range sortedKeys(s.EventCounts) {
		fmt.Fprintf(w, "Event (%s) : %d\n", kind, s.EventCounts[kind])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	def := sim.DefaultConfig()

	runCmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for world generation and simulation draws")
	runCmd.Flags().Int64Var(&ticks, "ticks", 100, "Number of ticks to simulate")
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (see `trade-sim config`)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "Log every purchase and event record at info level")

	// Record outputs
	runCmd.Flags().StringVar(&jsonlPath, "jsonl", "", "Append records as JSON lines to this file")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Store records in this SQLite database")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().BoolVar(&summary, "summary", false, "Print a summary of all emitted records at the end")

	// World size
	runCmd.Flags().IntVar(&companies, "companies", def.World.Companies, "Number of generated companies")
	runCmd.Flags().IntVar(&suppliers, "suppliers", def.World.Suppliers, "Number of generated suppliers")
	runCmd.Flags().IntVar(&products, "products", def.World.Products, "Number of generated products")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
