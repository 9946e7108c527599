package main

import (
	"github.com/spf13/cobra"

	"github.com/logflow/procmine/pkg/discovery"
	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/logstats"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		input      inputFlags
		classifier string
		top        int
		threshold  float64
		jsonOut    bool
	)
	cmd := &cobra.Command{
		Use:   "stats [log]",
		Short: "Show the activities and directly-follows graph of a log",
		Long: `Show the statistics the miner works from: activity counts, start and
end activities and the directly-follows graph. With --threshold the graph
is shown after infrequent edges are filtered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.apply(cmd, &a.cfg.Input)
			if cmd.Flags().Changed("classifier") {
				a.cfg.Discovery.Classifier = classifier
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			l, _, err := a.loadLog(cmd.Context(), &input, args)
			if err != nil {
				return err
			}
			s := logstats.Compute(l)
			if threshold < 0 || threshold > 1 {
				return errors.Newf(errors.CodeInvalidThreshold, "threshold %g outside [0,1]", threshold)
			}
			if threshold > 0 {
				s = s.Filter(threshold)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), newStatsView(s))
			}
			a.printer.Stats(s, top)
			return nil
		},
	}
	input.register(cmd)
	cmd.Flags().StringVar(&classifier, "classifier", "", "Event classifier")
	cmd.Flags().IntVar(&top, "top", 20, "Directly-follows edges to show; 0 shows all")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Filter infrequent edges at this noise threshold")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func newStrategiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the registered base cases, cuts, splitters, fall-throughs and policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printer.Strategies(discovery.Default().List())
			return nil
		},
	}
}

// statsView is the JSON form of a snapshot.
type statsView struct {
	Traces      int             `json:"traces"`
	Events      int             `json:"events"`
	EmptyTraces int             `json:"empty_traces"`
	Activities  map[string]int  `json:"activities"`
	Starts      map[string]int  `json:"starts"`
	Ends        map[string]int  `json:"ends"`
	Edges       []logstats.Edge `json:"edges"`
}

func newStatsView(s *logstats.Snapshot) statsView {
	return statsView{
		Traces:      s.TraceCount,
		Events:      s.EventCount,
		EmptyTraces: s.EmptyTraces,
		Activities:  s.ActivityCounts,
		Starts:      s.Starts,
		Ends:        s.Ends,
		Edges:       s.DFG.EdgeList(),
	}
}
