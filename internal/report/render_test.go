package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docaudit/internal/audit/models"
)

// =============================================================================
// Report Rendering Test Suite
// =============================================================================

type RenderSuite struct {
	suite.Suite
}

func TestRenderSuite(t *testing.T) {
	suite.Run(t, new(RenderSuite))
}

func (s *RenderSuite) report() models.Report {
	return models.Report{
		ID:     "rep-1",
		Region: models.RegionBY,
		Period: models.DateRange{
			From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		},
		Totals: models.Totals{Checked: 20, Violations: 2, ViolationRate: 0.1},
		Groups: []models.OwnerGroup{
			{Owner: "Иванов Иван", Violations: []models.Violation{
				{DocumentID: "00042", RuleID: "doc.sales_channel", Severity: models.SeverityError, Message: "sales channel is not filled in", Owner: "Иванов Иван"},
				{DocumentID: "00043", RuleID: "counterparty.groups", Severity: models.SeverityWarning, Message: "no group tag assigned", Owner: "Иванов Иван"},
			}},
		},
	}
}

func (s *RenderSuite) TestRender() {
	s.Run("header carries region, period and totals", func() {
		out := Render(s.report())
		s.Contains(out, "Document audit BY, 01.06.2024 - 14.06.2024")
		s.Contains(out, "Checked: 20, violations: 2 (10.0%)")
	})

	s.Run("violations are listed per owner with severity markers", func() {
		out := Render(s.report())
		s.Contains(out, "Иванов Иван (2):")
		s.Contains(out, "  - [error] 00042: sales channel is not filled in")
		s.Contains(out, "  - [warning] 00043: no group tag assigned")
	})

	s.Run("clean report renders a short confirmation", func() {
		r := s.report()
		r.Totals.Violations = 0
		r.Groups = nil
		out := Render(r)
		s.Contains(out, "No violations found.")
		s.Equal(4, strings.Count(out, "\n"))
	})

	s.Run("rendering is deterministic", func() {
		s.Equal(Render(s.report()), Render(s.report()))
	})
}
