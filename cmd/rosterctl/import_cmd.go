package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/clinicroster/internal/core"
)

func newImportCmd() *cobra.Command {
	var (
		tenantID          string
		dryRun            bool
		duplicateField    string
		duplicateStrategy string
		asJSON            bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a patient roster into a clinic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := core.ParseOptions(duplicateStrategy, duplicateField, dryRun)
			if err != nil {
				return userError(err)
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := core.ContextWithActor(cmd.Context(), cliActor())
			report, err := app.Service.Import(ctx, tenantID, filepath.Base(path), data, opts)
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, report.Summary())
			}
			writeReport(out, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Clinic (tenant) identifier (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate every row without saving")
	cmd.Flags().StringVar(&duplicateField, "duplicate-field", string(core.MatchEmail), "Duplicate key: email, documentId or both")
	cmd.Flags().StringVar(&duplicateStrategy, "duplicate-strategy", string(core.DuplicateSkip), "What to do with duplicates: skip or update")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func cliActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return "cli:" + u.Username
	}
	return "cli"
}

// userError prefixes known errors with their coded message.
func userError(err error) error {
	if !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s\n  %w", core.FormatUserError(err), err)
}
