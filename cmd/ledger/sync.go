package main

import (
	"fmt"

	"ledger/internal/core"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [collection...]",
	Short: "Refresh the local cache from Notion",
	Long: `Fetch collections from Notion and replace their cached snapshots.

With no arguments every collection is refreshed. Collections are
categories, payment-methods and transactions.

Example usage:
  ledger sync
  ledger sync transactions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		coord := state.backend.Coordinator

		if len(args) == 0 {
			if err := coord.RefreshAll(ctx); err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All collections refreshed")
			return nil
		}

		for _, arg := range args {
			coll, err := core.ParseCollection(arg)
			if err != nil {
				return err
			}
			if err := coord.Refresh(ctx, coll); err != nil {
				return fmt.Errorf("sync %s: %w", coll, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %s\n", coll)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
