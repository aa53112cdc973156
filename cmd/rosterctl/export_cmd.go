package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/clinicroster/internal/core"
)

func newExportCmd() *cobra.Command {
	var (
		tenantID string
		format   string
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a clinic's patients as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			file, err := app.Service.Export(cmd.Context(), tenantID, format)
			if err != nil {
				return userError(err)
			}

			switch outPath {
			case "-":
				_, err = cmd.OutOrStdout().Write(file.Data)
				return err
			case "":
				outPath = file.Name
			}
			if err := os.WriteFile(outPath, file.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", outPath, len(file.Data))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Clinic (tenant) identifier (required)")
	cmd.Flags().StringVar(&format, "format", core.FormatCSV, "Output format: csv or xlsx")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file; - for stdout (default pacientes_<tenant>_<date>.<format>)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Print the CSV import template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(core.Template())
			return err
		},
	}
}
