// Package report renders finished audit reports into the plain-text shape
// the chat sinks expect.
package report

import (
	"fmt"
	"strings"

	"docaudit/internal/audit/models"
)

// Render produces a deterministic plain-text summary of a report. Group and
// violation order come from aggregation and are already stable.
func Render(r models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Document audit %s, %s - %s\n",
		r.Region,
		r.Period.From.Format("02.01.2006"),
		r.Period.To.Format("02.01.2006"),
	)
	fmt.Fprintf(&b, "Checked: %d, violations: %d (%.1f%%)\n",
		r.Totals.Checked,
		r.Totals.Violations,
		r.Totals.ViolationRate*100,
	)

	if r.Totals.Violations == 0 {
		b.WriteString("\nNo violations found.\n")
		return b.String()
	}

	for _, g := range r.Groups {
		fmt.Fprintf(&b, "\n%s (%d):\n", g.Owner, len(g.Violations))
		for _, v := range g.Violations {
			fmt.Fprintf(&b, "  - [%s] %s: %s\n", v.Severity, v.DocumentID, v.Message)
		}
	}
	return b.String()
}
