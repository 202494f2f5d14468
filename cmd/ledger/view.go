package main

import (
	"context"
	"fmt"
	"time"

	"ledger/internal/core"
	"ledger/internal/services"
	"ledger/internal/view"

	"github.com/spf13/cobra"
)

type viewFlags struct {
	date    string
	txType  string
	from    string
	to      string
	divisor string
}

var flags viewFlags

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "List transactions grouped by day",
	Long: `List transactions from the local snapshot, grouped into day sections
with totals.

Example usage:
  ledger view                                # everything
  ledger view --date this-month --type expense
  ledger view --from 2024-03-01 --to 2024-03-15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildView(cmd.Context(), state.backend.Coordinator, flags, time.Now())
		if err != nil {
			return err
		}
		renderSections(cmd.OutOrStdout(), v)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show spending by category and payment method",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildView(cmd.Context(), state.backend.Coordinator, flags, time.Now())
		if err != nil {
			return err
		}
		renderSummary(cmd.OutOrStdout(), v)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{viewCmd, summaryCmd} {
		c.Flags().StringVar(&flags.date, "date", "all", "Date filter: all, this-month, last-month, custom")
		c.Flags().StringVar(&flags.txType, "type", "all", "Type filter: all, expense, income")
		c.Flags().StringVar(&flags.from, "from", "", "Custom range start (YYYY-MM-DD), implies --date custom; not valid with this-month or last-month")
		c.Flags().StringVar(&flags.to, "to", "", "Custom range end (YYYY-MM-DD), defaults to --from")
		c.Flags().StringVar(&flags.divisor, "divisor", "all", "Percentages relative to: all, expense")
		rootCmd.AddCommand(c)
	}
}

func parseQuery(f viewFlags, now time.Time) (view.Query, error) {
	q := view.Query{Now: now}
	var err error

	if q.Date, err = view.ParseDateFilter(f.date); err != nil {
		return q, err
	}
	if q.Type, err = view.ParseTypeFilter(f.txType); err != nil {
		return q, err
	}
	if q.Divisor, err = view.ParseDivisor(f.divisor); err != nil {
		return q, err
	}

	if f.from == "" && f.to != "" {
		return q, fmt.Errorf("--to needs --from")
	}
	if f.from != "" && (q.Date == view.DateThisMonth || q.Date == view.DateLastMonth) {
		return q, fmt.Errorf("--from cannot be combined with --date %s", q.Date)
	}

	if f.from != "" {
		to := f.to
		if to == "" {
			to = f.from
		}
		r, err := view.ParseDateRange(f.from, to)
		if err != nil {
			return q, err
		}
		q.Date, q.Range = view.DateCustom, &r
	} else if q.Date == view.DateCustom {
		return q, fmt.Errorf("--date custom needs --from")
	}
	return q, nil
}

// snapshot loads every collection, fetching synchronously any collection
// that has never been cached.
func snapshot(ctx context.Context, coord *services.Coordinator) (view.Ledger, error) {
	if _, ok := coord.LoadCategories(ctx); !ok {
		if err := coord.RefreshCategories(ctx); err != nil {
			return view.Ledger{}, fmt.Errorf("no cached categories: %w", err)
		}
	}
	if _, ok := coord.LoadPaymentMethods(ctx); !ok {
		if err := coord.RefreshPaymentMethods(ctx); err != nil {
			return view.Ledger{}, fmt.Errorf("no cached payment methods: %w", err)
		}
	}
	if _, ok := coord.LoadTransactions(ctx); !ok {
		if err := coord.RefreshTransactions(ctx); err != nil {
			return view.Ledger{}, fmt.Errorf("no cached transactions: %w", err)
		}
	}
	return coord.Snapshot(), nil
}

func buildView(ctx context.Context, coord *services.Coordinator, f viewFlags, now time.Time) (view.View, error) {
	q, err := parseQuery(f, now)
	if err != nil {
		return view.View{}, err
	}
	l, err := snapshot(ctx, coord)
	if err != nil {
		return view.View{}, err
	}
	return view.Build(l, q), nil
}

func typeLabel(t core.TxType) string {
	if t == core.Income {
		return "+"
	}
	return "-"
}
