package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Submission is the user input a report is built from. Values are keyed by
// entity id; rows without a value are recorded with zero values.
type Submission struct {
	User   string              `json:"user" validate:"required"`
	Date   string              `json:"date" validate:"required,datetime=2006-01-02"`
	Values map[string]RowInput `json:"values" validate:"dive"`
}

// RowInput holds whatever the user entered for one row. Which fields are
// read depends on the catalog kind.
type RowInput struct {
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	GST      *decimal.Decimal `json:"gst,omitempty"`
	Selected []int            `json:"selected,omitempty"`
	Text     string           `json:"text,omitempty"`
	List     []string         `json:"list,omitempty"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
}

// Report is written once at submission and never modified.
type Report struct {
	ID          string      `json:"id"`
	CatalogID   string      `json:"catalog_id"`
	CatalogKind CatalogKind `json:"catalog_kind"`
	Catalog     Catalog     `json:"catalog"`
	User        string      `json:"user"`
	Date        string      `json:"date"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Rows        []ReportRow `json:"rows"`
}

// ReportRow is the value recorded for one catalog row. Exactly one of the
// value pointers is set, matching the catalog kind.
type ReportRow struct {
	SectionID  string         `json:"section_id"`
	EntityID   string         `json:"entity_id"`
	EntityName string         `json:"entity_name"`
	Spending   *SpendingValue `json:"spending,omitempty"`
	Answer     *QuizAnswer    `json:"answer,omitempty"`
	Count      *StockCount    `json:"count,omitempty"`
}

type SpendingValue struct {
	Amount decimal.Decimal `json:"amount"`
	GST    decimal.Decimal `json:"gst"`
}

type QuizAnswer struct {
	Selected []int    `json:"selected,omitempty"`
	Text     string   `json:"text,omitempty"`
	List     []string `json:"list,omitempty"`
	Correct  bool     `json:"correct"`
}

type StockCount struct {
	Quantity decimal.Decimal `json:"quantity"`
	BelowPar bool            `json:"below_par"`
}

// ReportSummary is derived from a Report for listings.
type ReportSummary struct {
	ReportID    string          `json:"report_id"`
	CatalogID   string          `json:"catalog_id"`
	CatalogName string          `json:"catalog_name"`
	User        string          `json:"user"`
	Date        string          `json:"date"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Rows        int             `json:"rows"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalGST    decimal.Decimal `json:"total_gst"`
	Score       int             `json:"score"`
	MaxScore    int             `json:"max_score"`
	BelowPar    int             `json:"below_par"`
}
