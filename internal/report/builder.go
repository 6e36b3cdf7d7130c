// Package report turns a catalog and the values a user entered against it
// into an immutable report, and summarizes reports for display.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

var gstDivisor = decimal.NewFromInt(11)

// GST returns the GST component to record for a spending row. Under the
// 10% method the amount is GST-inclusive, so the tax part is amount / 11
// and any entered value is ignored. Not-applicable rows carry no GST.
func GST(method domain.GSTMethod, amount decimal.Decimal, entered *decimal.Decimal) (decimal.Decimal, error) {
	switch method {
	case domain.GSTMethodTenPercent:
		return amount.Div(gstDivisor), nil
	case domain.GSTMethodNotApplicable:
		return decimal.Zero, nil
	case domain.GSTMethodInput:
		if entered == nil {
			return decimal.Zero, nil
		}
		return *entered, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown gst method %q", method)
	}
}

// Build projects c and sub into a report. Rows follow catalog display
// order; rows the user left blank are recorded with zero values. Values
// for entities that have no row in c are rejected.
func Build(id string, c domain.Catalog, sub domain.Submission, submittedAt time.Time) (*domain.Report, error) {
	if _, err := c.Kind.EntityKind(); err != nil {
		return nil, domain.NewValidationError("catalog.kind", err.Error())
	}

	var errs []domain.FieldError
	placed := make(map[string]bool)
	var out []domain.ReportRow

	for _, section := range c.Sections {
		for _, row := range section.Rows {
			placed[row.EntityID] = true
			entity, ok := c.FindEntity(row.EntityID)
			if !ok {
				errs = append(errs, domain.FieldError{Field: "catalog", Message: fmt.Sprintf("row references unknown entity: %s", row.EntityID)})
				continue
			}
			built, err := buildRow(c.Kind, entity, sub.Values[row.EntityID])
			if err != nil {
				errs = append(errs, domain.FieldError{Field: "values." + row.EntityID, Message: err.Error()})
				continue
			}
			built.SectionID = section.ID
			out = append(out, built)
		}
	}

	unknown := make([]string, 0)
	for entityID := range sub.Values {
		if !placed[entityID] {
			unknown = append(unknown, entityID)
		}
	}
	slices.Sort(unknown)
	for _, entityID := range unknown {
		errs = append(errs, domain.FieldError{Field: "values." + entityID, Message: "no such row in catalog"})
	}

	if err := domain.NewValidationErrors(errs); err != nil {
		return nil, err
	}

	return &domain.Report{
		ID:          id,
		CatalogID:   c.ID,
		CatalogKind: c.Kind,
		Catalog:     c.Clone(),
		User:        sub.User,
		Date:        sub.Date,
		SubmittedAt: submittedAt.UTC(),
		Rows:        out,
	}, nil
}

func buildRow(kind domain.CatalogKind, e domain.Entity, in domain.RowInput) (domain.ReportRow, error) {
	row := domain.ReportRow{EntityID: e.ID, EntityName: e.Name}

	switch kind {
	case domain.CatalogKindWeeklySpending:
		if e.Supplier == nil {
			return row, fmt.Errorf("entity is not a supplier")
		}
		amount := decimal.Zero
		if in.Amount != nil {
			amount = *in.Amount
		}
		gst, err := GST(e.Supplier.GSTMethod, amount, in.GST)
		if err != nil {
			return row, err
		}
		row.Spending = &domain.SpendingValue{Amount: amount, GST: gst}

	case domain.CatalogKindQuiz:
		if e.QuizItem == nil {
			return row, fmt.Errorf("entity is not a quiz item")
		}
		correct, err := Grade(*e.QuizItem, in)
		if err != nil {
			return row, err
		}
		row.Answer = &domain.QuizAnswer{
			Selected: slices.Clone(in.Selected),
			Text:     in.Text,
			List:     slices.Clone(in.List),
			Correct:  correct,
		}

	case domain.CatalogKindInventory:
		if e.StockItem == nil {
			return row, fmt.Errorf("entity is not a stock item")
		}
		qty := decimal.Zero
		if in.Quantity != nil {
			qty = *in.Quantity
		}
		if qty.IsNegative() {
			return row, fmt.Errorf("quantity must not be negative")
		}
		par := e.StockItem.ParLevel
		row.Count = &domain.StockCount{
			Quantity: qty,
			BelowPar: par.IsPositive() && qty.LessThan(par),
		}

	default:
		return row, fmt.Errorf("unknown catalog kind %q", kind)
	}
	return row, nil
}

// Grade checks a quiz answer against its item.
func Grade(item domain.QuizItem, in domain.RowInput) (bool, error) {
	switch item.Kind {
	case domain.QuizItemSelectedResponse:
		sr := item.SelectedResponse
		if sr == nil {
			return false, fmt.Errorf("selected response payload missing")
		}
		if !sr.MultipleSelection && len(in.Selected) > 1 {
			return false, fmt.Errorf("only one option may be selected")
		}
		for _, idx := range in.Selected {
			if idx < 0 || idx >= len(sr.Options) {
				return false, fmt.Errorf("selected option %d out of range", idx)
			}
		}
		got := slices.Compact(slices.Sorted(slices.Values(in.Selected)))
		want := slices.Compact(slices.Sorted(slices.Values(sr.CorrectOptions)))
		return slices.Equal(got, want), nil

	case domain.QuizItemTextInput:
		ti := item.TextInput
		if ti == nil {
			return false, fmt.Errorf("text input payload missing")
		}
		return slices.ContainsFunc(ti.AcceptedAnswers, func(a string) bool {
			return sameAnswer(a, in.Text, ti.CaseSensitive)
		}), nil

	case domain.QuizItemList:
		li := item.List
		if li == nil {
			return false, fmt.Errorf("list payload missing")
		}
		if len(in.List) != len(li.ExpectedItems) {
			return false, nil
		}
		if li.Ordered {
			for i := range in.List {
				if !sameAnswer(li.ExpectedItems[i], in.List[i], false) {
					return false, nil
				}
			}
			return true, nil
		}
		remaining := slices.Clone(li.ExpectedItems)
		for _, answer := range in.List {
			i := slices.IndexFunc(remaining, func(e string) bool { return sameAnswer(e, answer, false) })
			if i < 0 {
				return false, nil
			}
			remaining = slices.Delete(remaining, i, i+1)
		}
		return true, nil

	default:
		return false, fmt.Errorf("unknown quiz item kind %q", item.Kind)
	}
}

func sameAnswer(want, got string, caseSensitive bool) bool {
	want, got = strings.TrimSpace(want), strings.TrimSpace(got)
	if caseSensitive {
		return want == got
	}
	return strings.EqualFold(want, got)
}
