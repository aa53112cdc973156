package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/clinicroster/internal/application"
	"github.com/JonMunkholm/clinicroster/internal/config"
	"github.com/JonMunkholm/clinicroster/internal/logging"
)

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "rosterctl",
		Short:         "Import and export clinic patient rosters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if err := godotenv.Overload(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file first")

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newTenantCmd())
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// openApp loads configuration and wires the service. Logs go to stderr so
// stdout stays clean for file output and --json.
func openApp(cmd *cobra.Command) (*application.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return application.New(cmd.Context(), cfg, logger)
}
