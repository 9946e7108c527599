package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/logflow/procmine/pkg/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the effective configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := config.NewManagerWithPaths()
			if err := mgr.Load(); err != nil {
				return err
			}
			if path == "" {
				if err := mgr.Save(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote ~/.procmine/config.yaml")
				return nil
			}
			if err := mgr.SaveTo(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote "+path)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&path, "output", "o", "", "Destination (default: ~/.procmine/config.yaml)")

	cmd.AddCommand(show, initCmd)
	return cmd
}
