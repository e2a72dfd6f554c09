// Package cli renders plans and rule previews for the terminal.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/warp/paycheck-planner/generic"
	"github.com/warp/paycheck-planner/planner"
)

var (
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorMuted  = lipgloss.Color("#6F6E69")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorGreen  = lipgloss.Color("#879A39")
	ColorRed    = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	okStyle     = lipgloss.NewStyle().Foreground(ColorGreen)
	overStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	borderStyle = lipgloss.NewStyle().Foreground(ColorBorder)
)

// Table is a bordered text table. The first column is left aligned, the
// rest right aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t, or "" when it has neither headers nor rows.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(borderStyle.Render(left))
		for i, w := range widths {
			b.WriteString(borderStyle.Render(strings.Repeat("─", w+2)))
			if i < cols-1 {
				b.WriteString(borderStyle.Render(mid))
			}
		}
		b.WriteString(borderStyle.Render(right) + "\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(borderStyle.Render("│"))
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(" " + style.Render(cell) + pad + " ")
			} else {
				b.WriteString(" " + pad + style.Render(cell) + " ")
			}
			b.WriteString(borderStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// =============================================================================
// PLAN
// =============================================================================

// RenderPlan renders a planning pass: one table of paychecks with what each
// one covers, one of bills with their cycle, then the changes and the bills
// no paycheck can cover.
func RenderPlan(plan *planner.Plan) string {
	var b strings.Builder

	b.WriteString(RenderTitle(fmt.Sprintf("PLAN %s  (as of %s)", plan.Window, plan.AsOf)))
	b.WriteString("\n\n")

	names := make(map[planner.BillID]string, len(plan.Bills))
	for _, bill := range plan.Bills {
		names[bill.ID] = billLabel(bill)
	}

	paychecks := Table{
		Title:   "Paychecks",
		Headers: []string{"Paycheck", "Date", "Amount", "Bills", "Safe to spend"},
	}
	for _, bk := range plan.Allocation.Buckets {
		covered := make([]string, len(bk.BillIDs))
		for i, id := range bk.BillIDs {
			covered[i] = names[id]
		}
		paychecks.Rows = append(paychecks.Rows, []string{
			string(bk.Paycheck.ID),
			bk.Paycheck.Date.String(),
			bk.Paycheck.Amount.String(),
			strings.Join(covered, ", "),
			safeToSpend(bk),
		})
	}
	if len(paychecks.Rows) == 0 {
		b.WriteString("  " + mutedStyle.Render("No paychecks in this window.") + "\n\n")
	} else {
		b.WriteString(RenderTable(paychecks) + "\n")
	}

	bills := Table{
		Title:   "Bills",
		Headers: []string{"Bill", "Due", "Amount", "Cycle", "Paycheck"},
	}
	for _, bill := range plan.Bills {
		assigned := string(plan.Allocation.Assignments[bill.ID])
		if bill.Paid {
			assigned = "paid"
		}
		bills.Rows = append(bills.Rows, []string{
			billLabel(bill),
			bill.Due.String(),
			bill.Amount.String(),
			string(plan.Cycles[bill.ID]),
			assigned,
		})
	}
	if len(bills.Rows) > 0 {
		b.WriteString(RenderTable(bills) + "\n")
	}

	if len(plan.Allocation.Changes) > 0 {
		changes := Table{Title: "Changes", Headers: []string{"Bill", "New paycheck"}}
		for _, c := range plan.Allocation.Changes {
			changes.Rows = append(changes.Rows, []string{names[c.BillID], string(c.PaycheckID)})
		}
		b.WriteString(RenderTable(changes) + "\n")
	}

	if n := len(plan.Allocation.Unassigned); n > 0 {
		uncovered := make([]string, n)
		for i, id := range plan.Allocation.Unassigned {
			uncovered[i] = names[id]
		}
		b.WriteString("  " + overStyle.Render("Not covered: "+strings.Join(uncovered, ", ")) + "\n")
	}

	status := "dry run"
	if plan.Applied {
		status = fmt.Sprintf("applied %d change(s)", len(plan.Allocation.Changes))
	}
	b.WriteString("  " + mutedStyle.Render(status) + "\n")
	return b.String()
}

func billLabel(b planner.Bill) string {
	if b.Name == "" {
		return string(b.ID)
	}
	return b.Name
}

func safeToSpend(bk planner.Bucket) string {
	s := bk.SafeToSpend().String()
	if bk.Overloaded() {
		return overStyle.Render(s)
	}
	return okStyle.Render(s)
}

// =============================================================================
// OCCURRENCES
// =============================================================================

// RenderOccurrences lists previewed dates with their weekday.
func RenderOccurrences(rule generic.Rule, dates []generic.TimePoint) string {
	t := Table{
		Title:   fmt.Sprintf("Occurrences (%s)", rule.Kind()),
		Headers: []string{"#", "Date", "Weekday"},
	}
	for i, d := range dates {
		t.Rows = append(t.Rows, []string{fmt.Sprint(i + 1), d.String(), d.Weekday().String()})
	}
	return RenderTable(t)
}
