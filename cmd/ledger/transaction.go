package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/services"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
)

type txFlags struct {
	amount        string
	note          string
	category      string
	paymentMethod string
	date          string
	prepared      bool
	txType        string
}

var txf txFlags

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a transaction in Notion",
	Long: `Create a transaction. Category and payment method accept an id or a
display name.

Example usage:
  ledger add --amount 12.50 --category Food --payment-method Cash --note Lunch
  ledger add --amount 2000 --category Salary --payment-method Card --type income`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		l, err := snapshot(ctx, state.backend.Coordinator)
		if err != nil {
			return err
		}

		in, err := txf.input(core.TransactionInput{}, cmd, l.Categories, l.PaymentMethods, time.Now())
		if err != nil {
			return err
		}
		id, err := state.backend.Mutations.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", id)
		return refreshAfterWrite(ctx, state.backend.Coordinator)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update a transaction in Notion",
	Long: `Update a transaction. Fields without a flag keep their current value.

Example usage:
  ledger edit 3f1c2b8e9a1d --amount 14 --note "Lunch with tip"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		l, err := snapshot(ctx, state.backend.Coordinator)
		if err != nil {
			return err
		}

		var current *core.Transaction
		for i := range l.Transactions {
			if l.Transactions[i].ID == args[0] {
				current = &l.Transactions[i]
				break
			}
		}
		if current == nil {
			return fmt.Errorf("transaction %s not found in local snapshot; run ledger sync", args[0])
		}

		in, err := txf.input(inputFrom(*current), cmd, l.Categories, l.PaymentMethods, time.Now())
		if err != nil {
			return err
		}
		if err := state.backend.Mutations.Update(ctx, args[0], in); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
		return refreshAfterWrite(ctx, state.backend.Coordinator)
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a transaction in Notion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := state.backend.Mutations.Archive(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Archived %s\n", args[0])
		return refreshAfterWrite(ctx, state.backend.Coordinator)
	},
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVar(&txf.amount, "amount", "", "Amount, e.g. 12.50")
		c.Flags().StringVar(&txf.note, "note", "", "Free-text note")
		c.Flags().StringVar(&txf.category, "category", "", "Category id or name")
		c.Flags().StringVar(&txf.paymentMethod, "payment-method", "", "Payment method id or name")
		c.Flags().StringVar(&txf.date, "date", "", "Date (YYYY-MM-DD), defaults to today")
		c.Flags().BoolVar(&txf.prepared, "prepared", false, "Mark as prepared")
		c.Flags().StringVar(&txf.txType, "type", "", "Transaction type: expense or income")
	}
	addCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(addCmd, editCmd, archiveCmd)
}

// changedFlags reports which flags the user set.
type changedFlags interface {
	Changed(name string) bool
}

type cmdFlags struct{ cmd *cobra.Command }

func (c cmdFlags) Changed(name string) bool { return c.cmd.Flags().Changed(name) }

// input overlays the flags the user set onto base.
func (f txFlags) input(base core.TransactionInput, cmd *cobra.Command, cats []core.Category, pms []core.PaymentMethod, now time.Time) (core.TransactionInput, error) {
	return f.overlay(base, cmdFlags{cmd}, cats, pms, now)
}

func (f txFlags) overlay(in core.TransactionInput, changed changedFlags, cats []core.Category, pms []core.PaymentMethod, now time.Time) (core.TransactionInput, error) {
	if changed.Changed("amount") {
		in.Amount = f.amount
	}
	if changed.Changed("note") {
		in.Note = f.note
	}
	if changed.Changed("category") {
		in.CategoryID = resolveCategory(f.category, cats)
	}
	if changed.Changed("payment-method") {
		in.PaymentMethodID = resolvePaymentMethod(f.paymentMethod, pms)
	}
	if changed.Changed("prepared") {
		in.Prepared = f.prepared
	}
	if changed.Changed("type") {
		in.Type = core.TxType(strings.ToLower(strings.TrimSpace(f.txType)))
	}

	switch {
	case changed.Changed("date"):
		d, err := civil.ParseDate(strings.TrimSpace(f.date))
		if err != nil {
			return in, fmt.Errorf("parse --date: %w", err)
		}
		in.Date = d.In(time.UTC)
	case in.Date.IsZero():
		in.Date = civil.DateOf(now).In(time.UTC)
	}
	return in, nil
}

func inputFrom(tx core.Transaction) core.TransactionInput {
	return core.TransactionInput{
		Amount:          strconv.FormatFloat(tx.Amount, 'f', -1, 64),
		Note:            tx.Note,
		CategoryID:      tx.CategoryID,
		PaymentMethodID: tx.PaymentMethodID,
		Date:            tx.Date,
		Prepared:        tx.Prepared.Bool(),
		Type:            tx.Type,
	}
}

func resolveCategory(s string, cats []core.Category) string {
	for _, c := range cats {
		if c.ID == s {
			return c.ID
		}
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, s) {
			return c.ID
		}
	}
	return s
}

func resolvePaymentMethod(s string, pms []core.PaymentMethod) string {
	for _, pm := range pms {
		if pm.ID == s {
			return pm.ID
		}
	}
	for _, pm := range pms {
		if strings.EqualFold(pm.Name, s) {
			return pm.ID
		}
	}
	return s
}

// refreshAfterWrite pulls transactions again so the next view shows the
// write. A failure here does not undo the write, so it is only reported.
func refreshAfterWrite(ctx context.Context, coord *services.Coordinator) error {
	if err := coord.RefreshTransactions(ctx); err != nil {
		state.logger.WarnContext(ctx, "Refresh after write failed", "error", err)
	}
	return nil
}
