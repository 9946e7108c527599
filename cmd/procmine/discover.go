package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/logflow/procmine/pkg/config"
	"github.com/logflow/procmine/pkg/discovery"
	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/hooks"
	"github.com/logflow/procmine/pkg/parser"
	"github.com/logflow/procmine/pkg/results"
	"github.com/logflow/procmine/pkg/transform"
	"github.com/logflow/procmine/pkg/tui"
)

// inputFlags select and describe the event log.
type inputFlags struct {
	format    string
	caseCol   string
	activity  string
	timestamp string
	delimiter string
	sheet     string
	sql       string
	dsn       string

	sample     int
	sampleRate float64
	perVariant int
	seed       int64
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Input format (csv, xes, jsonl, xlsx, parquet); detected from the extension if empty")
	cmd.Flags().StringVar(&f.caseCol, "case-id", "", "Case ID column")
	cmd.Flags().StringVar(&f.activity, "activity", "", "Activity column")
	cmd.Flags().StringVar(&f.timestamp, "timestamp", "", "Timestamp column")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV field delimiter")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "XLSX sheet name")
	cmd.Flags().StringVar(&f.sql, "sql", "", "Load events with a DuckDB query instead of a file")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "DuckDB database for --sql (default: in-memory)")
	cmd.Flags().IntVar(&f.sample, "sample", 0, "Mine a uniform sample of this many traces")
	cmd.Flags().Float64Var(&f.sampleRate, "sample-rate", 0, "Keep each trace with this probability")
	cmd.Flags().IntVar(&f.perVariant, "max-per-variant", 0, "Keep at most this many traces per variant")
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "Sampling seed")
}

// reduce applies the sampling flags to l.
func (f *inputFlags) reduce(l *eventlog.Log) *eventlog.Log {
	if f.perVariant > 0 {
		l = transform.SampleVariants(l, f.perVariant)
	}
	if f.sampleRate > 0 {
		l = transform.SampleRate(l, f.sampleRate, f.seed)
	}
	if f.sample > 0 {
		l = transform.SampleTraces(l, f.sample, f.seed)
	}
	return l
}

// apply copies the set flags over the input config.
func (f *inputFlags) apply(cmd *cobra.Command, in *config.InputConfig) {
	set := func(name, v string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("case-id", f.caseCol, &in.CaseColumn)
	set("activity", f.activity, &in.ActivityColumn)
	set("timestamp", f.timestamp, &in.TimestampColumn)
	set("delimiter", f.delimiter, &in.Delimiter)
	set("sheet", f.sheet, &in.Sheet)
}

// loadLog reads the log named by args[0], or runs the --sql query.
func (a *app) loadLog(ctx context.Context, f *inputFlags, args []string) (*eventlog.Log, string, error) {
	build, err := a.cfg.BuildOptions()
	if err != nil {
		return nil, "", err
	}

	if f.sql != "" {
		start := time.Now()
		l, err := eventlog.FromSQL(ctx, eventlog.SQLOptions{DSN: f.dsn, Query: f.sql, Build: build})
		if err != nil {
			return nil, "", err
		}
		a.logger.Info("log loaded", zap.String("source", "duckdb"),
			zap.Int("traces", l.Len()), zap.Duration("took", time.Since(start)))
		return a.sampled(f, l), "sql:" + f.sql, nil
	}

	if len(args) == 0 {
		return nil, "", errors.New(errors.CodeInvalidConfig, "no input log given; pass a path or --sql")
	}
	path := args[0]
	opts := eventlog.LoadOptions{
		Path:   path,
		Format: parser.ParseFormat(f.format),
		Parser: a.cfg.ParserConfig(),
		Build:  build,
	}
	if strings.HasPrefix(path, "s3://") {
		objects, err := a.objectClient(ctx)
		if err != nil {
			return nil, "", err
		}
		opts.Objects = objects
	}

	start := time.Now()
	l, err := eventlog.Load(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	a.logger.Info("log loaded", zap.String("path", path), zap.Int("traces", l.Len()),
		zap.Int("events", l.EventCount()), zap.Duration("took", time.Since(start)))
	return a.sampled(f, l), path, nil
}

func (a *app) sampled(f *inputFlags, l *eventlog.Log) *eventlog.Log {
	before := l.Len()
	l = f.reduce(l)
	if l.Len() != before {
		a.logger.Info("log sampled", zap.Int("traces", l.Len()), zap.Int("from", before))
	}
	return l
}

type discoverFlags struct {
	input       inputFlags
	thresholds  string
	policy      string
	parallelism int
	classifier  string
	repair      bool
	timeout     time.Duration
	maxDepth    int
	rename      map[string]string
	save        bool
	jsonOut     bool
	output      string
	quiet       bool
}

func newDiscoverCmd(a *app) *cobra.Command {
	f := &discoverFlags{}
	cmd := &cobra.Command{
		Use:   "discover [log]",
		Short: "Discover a process tree from an event log",
		Long: `Discover a process tree with the inductive miner.

Each noise threshold proposes a cut at every step and the selection policy
picks the one applied. Events that do not fit the chosen cut are discarded
and reported per threshold.

Examples:
  procmine discover orders.xes
  procmine discover events.csv --case-id case --activity task --thresholds 0,0.2
  procmine discover s3://logs/2024/orders.xes.gz --policy fewest-discards --save
  procmine discover --sql "SELECT case_id, activity FROM read_parquet('ev.parquet') ORDER BY 1, ts"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiscover(cmd, f, args)
		},
	}

	f.input.register(cmd)
	cmd.Flags().StringVarP(&f.thresholds, "thresholds", "t", "", "Comma-separated noise thresholds in [0,1]")
	cmd.Flags().StringVar(&f.policy, "policy", "", "Threshold selection policy (lowest, highest, fewest-discards)")
	cmd.Flags().IntVarP(&f.parallelism, "parallelism", "p", 0, "Sub-logs mined concurrently")
	cmd.Flags().StringVar(&f.classifier, "classifier", "", "Event classifier (name, name+lifecycle, name+resource, ...)")
	cmd.Flags().BoolVar(&f.repair, "repair-lifecycle", false, "Pair start/complete events before mining")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Cancel discovery after this long")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "Abort when the recursion is deeper than this")
	cmd.Flags().StringToStringVar(&f.rename, "rename", nil, "Relabel activities in the tree (from=to,...)")
	cmd.Flags().BoolVar(&f.save, "save", false, "Store the result in the configured results backend")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the result record as JSON")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the tree as JSON to this file")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "No spinner")
	return cmd
}

func (f *discoverFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	f.input.apply(cmd, &cfg.Input)
	flags := cmd.Flags()
	if flags.Changed("thresholds") {
		ts, err := config.ParseThresholds(f.thresholds)
		if err != nil {
			return err
		}
		cfg.Discovery.Thresholds = ts
	}
	if flags.Changed("policy") {
		cfg.Discovery.Policy = f.policy
	}
	if flags.Changed("parallelism") {
		cfg.Discovery.Parallelism = f.parallelism
	}
	if flags.Changed("classifier") {
		cfg.Discovery.Classifier = f.classifier
	}
	if flags.Changed("repair-lifecycle") {
		cfg.Discovery.RepairLifecycle = f.repair
	}
	return cfg.Validate()
}

func (f *discoverFlags) hooks() *hooks.HookManager {
	hm := hooks.NewHookManager()
	if f.maxDepth > 0 {
		hm.RegisterPreMine(hooks.MaxDepth(f.maxDepth))
	}
	if len(f.rename) > 0 {
		hm.RegisterNode(hooks.RenameActivities(f.rename))
	}
	return hm
}

func (a *app) runDiscover(cmd *cobra.Command, f *discoverFlags, args []string) error {
	if err := f.apply(cmd, a.cfg); err != nil {
		return err
	}
	ctx := cmd.Context()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	l, input, err := a.loadLog(ctx, &f.input, args)
	if err != nil {
		return err
	}

	cc, err := a.cfg.ControllerConfig(a.logger)
	if err != nil {
		return err
	}
	ctrl, err := discovery.NewController(cc,
		discovery.WithParallelism(a.cfg.Discovery.Parallelism),
		discovery.WithHooks(f.hooks()),
	)
	if err != nil {
		return err
	}

	stop := func() {}
	if !f.quiet && !f.jsonOut {
		stop = tui.Spinner(cmd.ErrOrStderr(), "mining")
	}
	res, err := ctrl.Discover(ctx, l)
	stop()
	if err != nil {
		return err
	}

	shape := results.LogShape{Traces: l.Len(), Events: l.EventCount(), Activities: len(l.Activities())}
	rec := results.NewRecord(input, shape, a.cfg.Discovery.Policy, res)
	a.logger.Info("discovery finished",
		zap.String("id", rec.ID),
		zap.Bool("cancelled", res.Cancelled),
		zap.Int("discarded", rec.TotalDiscarded()),
		zap.Duration("took", res.Duration))

	if f.save {
		if err := a.saveRecord(ctx, rec); err != nil {
			return err
		}
	}
	if f.output != "" && res.Tree != nil {
		data, err := json.MarshalIndent(res.Tree, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(f.output, data, 0o644); err != nil {
			return err
		}
	}

	if f.jsonOut {
		return writeJSON(cmd.OutOrStdout(), rec)
	}
	a.printer.Result(res, shape)
	if f.save {
		a.printer.Rule()
		a.printer.Records([]*results.Record{rec})
	}
	return nil
}
