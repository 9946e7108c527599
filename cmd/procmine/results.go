package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/logflow/procmine/pkg/results"
	"github.com/logflow/procmine/pkg/storage/s3"
)

// openBackend opens the configured results backend. The caller closes it.
func (a *app) openBackend(ctx context.Context) (results.Backend, func(), error) {
	rc := a.cfg.Storage.Results
	var objects *s3.Client
	if rc.Backend == results.BackendS3 {
		c, err := a.objectClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		objects = c
	}
	b, err := results.Open(ctx, rc, objects)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil {
				a.logger.Warn("closing results backend", zap.Error(err))
			}
		}
	}
	return b, closeFn, nil
}

func (a *app) saveRecord(ctx context.Context, rec *results.Record) error {
	b, closeFn, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := b.Save(ctx, rec); err != nil {
		return err
	}
	a.logger.Info("result saved", zap.String("id", rec.ID), zap.String("backend", b.Name()))
	return nil
}

func newResultsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List, show and delete stored discovery results",
	}

	var jsonOut bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			records, err := b.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			a.printer.Records(records)
			return nil
		},
	}
	list.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			rec, err := b.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			a.printer.Record(rec)
			if rec.Tree != nil {
				a.printer.Tree(rec.Tree)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")

	del := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			for _, id := range args {
				if err := b.Delete(cmd.Context(), id); err != nil {
					return err
				}
				a.logger.Info("result deleted", zap.String("id", id))
			}
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
