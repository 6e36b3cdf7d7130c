package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func spendingCatalog() domain.Catalog {
	supplier := func(id string, m domain.GSTMethod) domain.Entity {
		return domain.Entity{ID: id, Name: "Supplier " + id, Kind: domain.EntityKindSupplier, Supplier: &domain.Supplier{GSTMethod: m}}
	}
	return domain.Catalog{
		ID:   "weekly",
		Kind: domain.CatalogKindWeeklySpending,
		Name: "Weekly spending",
		Sections: []domain.Section{
			{ID: "food", Rows: []domain.Row{{EntityID: "e1"}, {EntityID: "e2"}}},
			{ID: "misc", Rows: []domain.Row{{EntityID: "e3"}}},
		},
		Entities: []domain.Entity{
			supplier("e1", domain.GSTMethodTenPercent),
			supplier("e2", domain.GSTMethodInput),
			supplier("e3", domain.GSTMethodNotApplicable),
		},
	}
}

func TestGST(t *testing.T) {
	tests := []struct {
		name    string
		method  domain.GSTMethod
		amount  string
		entered *decimal.Decimal
		want    string
	}{
		{name: "ten percent of inclusive amount", method: domain.GSTMethodTenPercent, amount: "110", want: "10"},
		{name: "ten percent ignores entered value", method: domain.GSTMethodTenPercent, amount: "22", entered: dec("5"), want: "2"},
		{name: "not applicable", method: domain.GSTMethodNotApplicable, amount: "110", entered: dec("3"), want: "0"},
		{name: "input as entered", method: domain.GSTMethodInput, amount: "110", entered: dec("7.25"), want: "7.25"},
		{name: "input left blank", method: domain.GSTMethodInput, amount: "110", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GST(tt.method, decimal.RequireFromString(tt.amount), tt.entered)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := GST("15%", decimal.Zero, nil)
	assert.Error(t, err)
}

func TestBuildWeeklySpending(t *testing.T) {
	c := spendingCatalog()
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	r, err := Build("r1", c, domain.Submission{
		User: "kim",
		Date: "2026-03-01",
		Values: map[string]domain.RowInput{
			"e1": {Amount: dec("110")},
			"e2": {Amount: dec("50"), GST: dec("4.5")},
		},
	}, at)
	require.NoError(t, err)

	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "weekly", r.CatalogID)
	assert.Equal(t, at, r.SubmittedAt)
	require.Len(t, r.Rows, 3)

	assert.Equal(t, "food", r.Rows[0].SectionID)
	assert.Equal(t, "e1", r.Rows[0].EntityID)
	assert.True(t, decimal.NewFromInt(10).Equal(r.Rows[0].Spending.GST))
	assert.True(t, decimal.RequireFromString("4.5").Equal(r.Rows[1].Spending.GST))
	assert.Equal(t, "misc", r.Rows[2].SectionID)
	assert.True(t, r.Rows[2].Spending.Amount.IsZero())

	s := Summarize(r)
	assert.True(t, decimal.NewFromInt(160).Equal(s.TotalAmount))
	assert.True(t, decimal.RequireFromString("14.5").Equal(s.TotalGST))
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, "Weekly spending", s.CatalogName)
}

func TestBuildSnapshotsCatalog(t *testing.T) {
	c := spendingCatalog()
	r, err := Build("r1", c, domain.Submission{User: "kim", Date: "2026-03-01"}, time.Now())
	require.NoError(t, err)

	c.Sections[0].Name = "changed later"
	c.Entities[0].Supplier.GSTMethod = domain.GSTMethodNotApplicable

	assert.Empty(t, r.Catalog.Sections[0].Name)
	assert.Equal(t, domain.GSTMethodTenPercent, r.Catalog.Entities[0].Supplier.GSTMethod)
}

func TestBuildRejectsUnknownValues(t *testing.T) {
	_, err := Build("r1", spendingCatalog(), domain.Submission{
		User:   "kim",
		Date:   "2026-03-01",
		Values: map[string]domain.RowInput{"zz": {}, "aa": {}},
	}, time.Now())

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 2)
	assert.Equal(t, "values.aa", verr.Errors[0].Field)
	assert.Equal(t, "values.zz", verr.Errors[1].Field)
}

func TestBuildQuizGradesAnswers(t *testing.T) {
	c := domain.Catalog{
		ID:   "quiz",
		Kind: domain.CatalogKindQuiz,
		Sections: []domain.Section{{ID: "s1", Rows: []domain.Row{
			{EntityID: "q1"}, {EntityID: "q2"}, {EntityID: "q3"},
		}}},
		Entities: []domain.Entity{
			{ID: "q1", Kind: domain.EntityKindQuizItem, QuizItem: &domain.QuizItem{
				Kind:             domain.QuizItemSelectedResponse,
				SelectedResponse: &domain.SelectedResponseItem{Options: []string{"a", "b", "c"}, CorrectOptions: []int{0, 2}, MultipleSelection: true},
			}},
			{ID: "q2", Kind: domain.EntityKindQuizItem, QuizItem: &domain.QuizItem{
				Kind:      domain.QuizItemTextInput,
				TextInput: &domain.TextInputItem{AcceptedAnswers: []string{"Paris"}},
			}},
			{ID: "q3", Kind: domain.EntityKindQuizItem, QuizItem: &domain.QuizItem{
				Kind: domain.QuizItemList,
				List: &domain.ListItem{ExpectedItems: []string{"red", "green"}, Ordered: true},
			}},
		},
	}

	r, err := Build("r1", c, domain.Submission{
		User: "kim",
		Date: "2026-03-01",
		Values: map[string]domain.RowInput{
			"q1": {Selected: []int{2, 0}},
			"q2": {Text: "  paris "},
			"q3": {List: []string{"green", "red"}},
		},
	}, time.Now())
	require.NoError(t, err)

	assert.True(t, r.Rows[0].Answer.Correct)
	assert.True(t, r.Rows[1].Answer.Correct)
	assert.False(t, r.Rows[2].Answer.Correct)

	s := Summarize(r)
	assert.Equal(t, 2, s.Score)
	assert.Equal(t, 3, s.MaxScore)

	_, err = Build("r2", c, domain.Submission{
		User:   "kim",
		Date:   "2026-03-01",
		Values: map[string]domain.RowInput{"q1": {Selected: []int{5}}},
	}, time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGrade(t *testing.T) {
	single := domain.QuizItem{
		Kind:             domain.QuizItemSelectedResponse,
		SelectedResponse: &domain.SelectedResponseItem{Options: []string{"a", "b"}, CorrectOptions: []int{1}},
	}
	ok, err := Grade(single, domain.RowInput{Selected: []int{1}})
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = Grade(single, domain.RowInput{Selected: []int{0, 1}})
	assert.Error(t, err)

	strict := domain.QuizItem{
		Kind:      domain.QuizItemTextInput,
		TextInput: &domain.TextInputItem{AcceptedAnswers: []string{"NaCl"}, CaseSensitive: true},
	}
	ok, _ = Grade(strict, domain.RowInput{Text: "nacl"})
	assert.False(t, ok)
	ok, _ = Grade(strict, domain.RowInput{Text: "NaCl "})
	assert.True(t, ok)

	unordered := domain.QuizItem{
		Kind: domain.QuizItemList,
		List: &domain.ListItem{ExpectedItems: []string{"x", "y", "x"}},
	}
	ok, _ = Grade(unordered, domain.RowInput{List: []string{"X", "x", "y"}})
	assert.True(t, ok)
	ok, _ = Grade(unordered, domain.RowInput{List: []string{"x", "y", "y"}})
	assert.False(t, ok)
}

func TestBuildInventoryFlagsBelowPar(t *testing.T) {
	stock := func(id, par string) domain.Entity {
		return domain.Entity{ID: id, Kind: domain.EntityKindStockItem, StockItem: &domain.StockItem{ParLevel: decimal.RequireFromString(par)}}
	}
	c := domain.Catalog{
		ID:       "inv",
		Kind:     domain.CatalogKindInventory,
		Sections: []domain.Section{{ID: "s1", Rows: []domain.Row{{EntityID: "i1"}, {EntityID: "i2"}, {EntityID: "i3"}}}},
		Entities: []domain.Entity{stock("i1", "5"), stock("i2", "5"), stock("i3", "0")},
	}

	r, err := Build("r1", c, domain.Submission{
		User:   "kim",
		Date:   "2026-03-01",
		Values: map[string]domain.RowInput{"i1": {Quantity: dec("4.5")}, "i2": {Quantity: dec("5")}},
	}, time.Now())
	require.NoError(t, err)

	assert.True(t, r.Rows[0].Count.BelowPar)
	assert.False(t, r.Rows[1].Count.BelowPar)
	assert.False(t, r.Rows[2].Count.BelowPar, "zero par never flags")
	assert.Equal(t, 1, Summarize(r).BelowPar)

	_, err = Build("r2", c, domain.Submission{
		User:   "kim",
		Date:   "2026-03-01",
		Values: map[string]domain.RowInput{"i1": {Quantity: dec("-1")}},
	}, time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
}
