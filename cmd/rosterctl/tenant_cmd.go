package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/clinicroster/internal/core"
)

func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage clinics",
	}
	cmd.AddCommand(newTenantAddCmd())
	return cmd
}

func newTenantAddCmd() *cobra.Command {
	var (
		name     string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Create or update a clinic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := core.ValidateTenantID(args[0]); err != nil {
				return userError(err)
			}
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			t := core.Tenant{ID: args[0], Name: name, Active: !inactive}
			if t.Name == "" {
				t.Name = t.ID
			}
			if err := app.Store.UpsertTenant(cmd.Context(), t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %s saved (active=%t)\n", t.ID, t.Active)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Mark the clinic inactive")
	return cmd
}
