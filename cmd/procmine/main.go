// procmine discovers process trees from event logs with the inductive
// miner.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/logflow/procmine/pkg/config"
	"github.com/logflow/procmine/pkg/lifecycle"
	"github.com/logflow/procmine/pkg/storage/s3"
	"github.com/logflow/procmine/pkg/telemetry"
	"github.com/logflow/procmine/pkg/tui"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, a := newRootCmd()
	err := root.ExecuteContext(ctx)
	// Post-run hooks are skipped when a command fails.
	if serr := a.shutdown.Shutdown(ctx); err == nil {
		err = serr
	}
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by all commands once the root pre-run has
// loaded the configuration.
type app struct {
	configPath string
	logLevel   string
	debug      bool

	cfg     *config.Config
	logger  *zap.Logger
	printer *tui.Printer
	objects *s3.Client

	shutdown *lifecycle.ShutdownManager
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{shutdown: lifecycle.NewShutdownManager(lifecycle.DefaultShutdownConfig())}

	root := &cobra.Command{
		Use:   "procmine",
		Short: "procmine - discover process trees from event logs",
		Long: `procmine mines block-structured process models (process trees) from
event logs with the inductive miner, filtering infrequent behaviour at one
or more noise thresholds.

Logs are read from CSV, XES, JSON lines, XLSX or Parquet files, local or
on S3, or from a DuckDB query.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown.Shutdown(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: /etc/procmine, ~/.procmine, ./.procmine.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Trace the recursion at debug level")

	root.AddCommand(
		newDiscoverCmd(a),
		newStatsCmd(a),
		newStrategiesCmd(a),
		newResultsCmd(a),
		newConfigCmd(a),
	)
	return root, a
}

// setup loads the layered config, applies the global flags and starts
// logging, tracing and the metrics endpoint.
func (a *app) setup(cmd *cobra.Command) error {
	mgr := config.NewManager()
	if a.configPath != "" {
		mgr = config.NewManagerWithPaths(a.configPath)
	}
	if err := mgr.Load(); err != nil {
		return err
	}
	a.cfg = mgr.Get()
	if a.logLevel != "" {
		a.cfg.Telemetry.LogLevel = a.logLevel
	}
	if a.debug {
		a.cfg.Discovery.Debug = true
	}

	logger, _, err := telemetry.NewLogger(a.cfg.Telemetry.LogLevel, a.cfg.Discovery.Debug)
	if err != nil {
		return err
	}
	a.logger = logger
	a.printer = tui.NewPrinter(cmd.OutOrStdout())
	a.shutdown.SetLogger(logger)
	a.shutdown.Register("logger", func(context.Context) error {
		_ = a.logger.Sync()
		return nil
	})
	a.logger.Debug("configuration loaded", zap.Strings("paths", mgr.GetPaths()))

	ctx := cmd.Context()
	if a.cfg.Telemetry.Tracing {
		tc := telemetry.DefaultTracingConfig(a.cfg.Telemetry.OTLPEndpoint)
		tc.ServiceVersion = version
		tc.Insecure = a.cfg.Telemetry.Insecure
		shutdown, err := telemetry.InitTracing(ctx, tc)
		if err != nil {
			return err
		}
		a.shutdown.Register("tracing", lifecycle.CloseFunc(shutdown))
	}

	if addr := a.cfg.Telemetry.MetricsAddr; addr != "" {
		srv, err := telemetry.ListenMetrics(addr, nil, a.logger)
		if err != nil {
			return err
		}
		mctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- srv.Serve(mctx) }()
		a.shutdown.Register("metrics", func(context.Context) error {
			cancel()
			return <-done
		})
	}
	return nil
}

// objectClient lazily creates the S3 client.
func (a *app) objectClient(ctx context.Context) (*s3.Client, error) {
	if a.objects != nil {
		return a.objects, nil
	}
	c, err := s3.NewClient(ctx, a.cfg.S3())
	if err != nil {
		return nil, err
	}
	a.objects = c
	return c, nil
}
