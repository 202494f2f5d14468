package main

import (
	"fmt"
	"io"
	"strings"

	"ledger/internal/core"
	"ledger/internal/view"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	amountStyle  = lipgloss.NewStyle().Width(12).Align(lipgloss.Right)
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func renderTotals(w io.Writer, v view.View) {
	fmt.Fprintf(w, "%s  %s  %s\n",
		titleStyle.Render(fmt.Sprintf("%d transactions", v.Count)),
		expenseStyle.Render("spent "+money(v.Totals.Expense)),
		incomeStyle.Render("income "+money(v.Totals.Income)))
}

func renderSections(w io.Writer, v view.View) {
	renderTotals(w, v)
	if len(v.Sections) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No transactions."))
		return
	}

	for _, sec := range v.Sections {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(sec.Title))
		for _, it := range sec.Items {
			style := expenseStyle
			if it.Type == core.Income {
				style = incomeStyle
			}
			amount := style.Render(typeLabel(it.Type) + decimal.NewFromFloat(it.Amount).StringFixed(2))
			line := strings.TrimSpace(fmt.Sprintf("%s %s", it.CategoryIcon, it.CategoryName))
			fmt.Fprintf(w, "  %s %s  %s %s\n",
				amountStyle.Render(amount),
				line,
				it.Note,
				mutedStyle.Render("· "+it.PaymentMethodName+" · "+it.ID))
		}
	}
}

func renderSummary(w io.Writer, v view.View) {
	renderTotals(w, v)

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("By category"))
	if len(v.ByCategory) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No expenses."))
	}
	for _, c := range v.ByCategory {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("■")
		fmt.Fprintf(w, "  %s %-24s %4d%%  %s\n",
			swatch,
			strings.TrimSpace(c.Icon+" "+c.Name),
			c.Percent,
			money(c.Total))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("By payment method"))
	if len(v.ByPaymentMethod) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Nothing yet."))
	}
	for _, s := range v.ByPaymentMethod {
		fmt.Fprintf(w, "  %-26s %4d  %s\n",
			strings.TrimSpace(s.PaymentMethod.Icon+" "+s.PaymentMethod.Name),
			s.Count,
			money(s.Total))
	}
}
