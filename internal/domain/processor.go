package domain

import "context"

// ReportSummarizer derives summaries for a batch of reports.
type ReportSummarizer interface {
	// SummarizeReports processes multiple reports while preserving order.
	// The order of results matches the order of input reports.
	SummarizeReports(ctx context.Context, reports []*Report) ([]*ReportSummary, error)
}
