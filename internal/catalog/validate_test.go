package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

func messages(errs []domain.FieldError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return out
}

func TestValidateExactlyOnceCollectsEveryViolation(t *testing.T) {
	c := domain.Catalog{
		Kind: domain.CatalogKindWeeklySpending,
		Entities: []domain.Entity{
			supplier("a", "A", domain.GSTMethodInput),
			supplier("b", "B", domain.GSTMethodInput),
		},
		Sections: []domain.Section{
			{ID: "s1", Rows: rows("a")},
			{ID: "s2", Rows: rows("a")},
		},
	}

	errs := ValidateExactlyOnce(c)
	assert.Equal(t, []string{
		"supplier used more than once: a",
		"supplier not used in rows: b",
	}, messages(errs))

	err := Validate(c)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "supplier used more than once: a\n")
}

func TestValidateExactlyOnceDanglingRow(t *testing.T) {
	c := domain.Catalog{
		Kind:     domain.CatalogKindWeeklySpending,
		Entities: []domain.Entity{supplier("a", "", domain.GSTMethodInput)},
		Sections: []domain.Section{{ID: "s1", Rows: rows("a", "x", "x")}},
	}

	assert.Equal(t, []string{
		"supplier used more than once: x",
		"supplier not found: x",
	}, messages(ValidateExactlyOnce(c)))
}

func TestValidateAcceptsConsistentCatalogs(t *testing.T) {
	assert.NoError(t, Validate(weeklyCatalog()))

	quiz := domain.Catalog{
		Kind: domain.CatalogKindQuiz,
		Entities: []domain.Entity{
			{ID: "q1", Kind: domain.EntityKindQuizItem, QuizItem: &domain.QuizItem{
				Kind:      domain.QuizItemTextInput,
				Prompt:    "Capital of France?",
				TextInput: &domain.TextInputItem{AcceptedAnswers: []string{"Paris"}},
			}},
			// Quiz items may exist without a row.
			{ID: "q2", Kind: domain.EntityKindQuizItem, QuizItem: &domain.QuizItem{
				Kind: domain.QuizItemList,
				List: &domain.ListItem{ExpectedItems: []string{"red", "green"}},
			}},
		},
		Sections: []domain.Section{{ID: "s1", Rows: rows("q1")}},
	}
	assert.NoError(t, Validate(quiz))
}

func TestValidateStructuralProblems(t *testing.T) {
	c := domain.Catalog{
		Kind: domain.CatalogKindInventory,
		Entities: []domain.Entity{
			{ID: "i1", Code: "X", Kind: domain.EntityKindStockItem, StockItem: &domain.StockItem{}},
			{ID: "i1", Code: "Y", Kind: domain.EntityKindStockItem, StockItem: &domain.StockItem{}},
			{ID: "i2", Code: " X ", Kind: domain.EntityKindStockItem, StockItem: &domain.StockItem{}},
			supplier("i3", "", domain.GSTMethodInput),
			{ID: "i4", Kind: domain.EntityKindStockItem},
		},
		Sections: []domain.Section{
			{ID: "s1", Rows: rows("i1", "i1")},
			{ID: "s1", Rows: rows("ghost")},
			{ID: ""},
		},
	}

	err := Validate(c)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, len(verr.Errors))
	for i, fe := range verr.Errors {
		fields[i] = fe.Field
	}
	assert.Equal(t, []string{
		"entities[1].id",
		"entities[2].code",
		"entities[3].kind",
		"entities[4]",
		"sections[1].id",
		"sections[2].id",
		"sections",
		"sections",
	}, fields)
	assert.Equal(t, "entity used more than once: i1", verr.Errors[6].Message)
	assert.Equal(t, "entity not found: ghost", verr.Errors[7].Message)
}

func TestValidateUnknownKind(t *testing.T) {
	err := Validate(domain.Catalog{Kind: "recipes"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kind", verr.Errors[0].Field)
}
