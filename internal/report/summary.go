package report

import (
	"github.com/shopspring/decimal"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

// Summarize derives the totals shown in report listings.
func Summarize(r *domain.Report) *domain.ReportSummary {
	s := &domain.ReportSummary{
		ReportID:    r.ID,
		CatalogID:   r.CatalogID,
		CatalogName: r.Catalog.Name,
		User:        r.User,
		Date:        r.Date,
		SubmittedAt: r.SubmittedAt,
		Rows:        len(r.Rows),
		TotalAmount: decimal.Zero,
		TotalGST:    decimal.Zero,
	}

	for _, row := range r.Rows {
		switch {
		case row.Spending != nil:
			s.TotalAmount = s.TotalAmount.Add(row.Spending.Amount)
			s.TotalGST = s.TotalGST.Add(row.Spending.GST)
		case row.Answer != nil:
			s.MaxScore++
			if row.Answer.Correct {
				s.Score++
			}
		case row.Count != nil:
			if row.Count.BelowPar {
				s.BelowPar++
			}
		}
	}
	return s
}
