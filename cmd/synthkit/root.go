package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var outputFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &outputFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "synthkit",
		Short:         "Synthetic data service CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.validateOutput(); err != nil {
				return err
			}
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "Output format: table, json or yaml (default: table on a terminal, json otherwise)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newConnectorCommand(ctx))
	rootCmd.AddCommand(newDatasourceCommand(ctx))
	rootCmd.AddCommand(newSynthesizerCommand(ctx))

	return rootCmd
}
