package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EntityKind selects which payload of an Entity is populated.
type EntityKind string

const (
	EntityKindSupplier  EntityKind = "supplier"
	EntityKindStockItem EntityKind = "stock_item"
	EntityKindQuizItem  EntityKind = "quiz_item"
)

// Entity is a supplier, stock item or quiz item referenced by catalog rows.
// Exactly one payload pointer is set and it must match Kind.
type Entity struct {
	ID        string     `json:"id" validate:"required"`
	Name      string     `json:"name"`
	Code      string     `json:"code,omitempty"`
	Kind      EntityKind `json:"kind" validate:"required,oneof=supplier stock_item quiz_item"`
	Supplier  *Supplier  `json:"supplier,omitempty"`
	StockItem *StockItem `json:"stock_item,omitempty"`
	QuizItem  *QuizItem  `json:"quiz_item,omitempty"`
}

// GSTMethod decides how the GST component of a spending row is obtained.
type GSTMethod string

const (
	// GSTMethodTenPercent derives GST from a GST-inclusive amount.
	GSTMethodTenPercent GSTMethod = "10%"
	// GSTMethodInput takes GST as entered.
	GSTMethodInput GSTMethod = "input"
	// GSTMethodNotApplicable forces GST to zero.
	GSTMethodNotApplicable GSTMethod = "na"
)

type Supplier struct {
	GSTMethod GSTMethod `json:"gst_method" validate:"required,oneof=10% input na"`
}

type StockItem struct {
	Unit     string          `json:"unit,omitempty"`
	ParLevel decimal.Decimal `json:"par_level"`
}

// QuizItemKind selects which payload of a QuizItem is populated.
type QuizItemKind string

const (
	QuizItemSelectedResponse QuizItemKind = "selected_response"
	QuizItemTextInput        QuizItemKind = "text_input"
	QuizItemList             QuizItemKind = "list"
)

type QuizItem struct {
	Kind             QuizItemKind          `json:"kind" validate:"required,oneof=selected_response text_input list"`
	Prompt           string                `json:"prompt"`
	SelectedResponse *SelectedResponseItem `json:"selected_response,omitempty"`
	TextInput        *TextInputItem        `json:"text_input,omitempty"`
	List             *ListItem             `json:"list,omitempty"`
}

type SelectedResponseItem struct {
	Options           []string `json:"options"`
	CorrectOptions    []int    `json:"correct_options"`
	MultipleSelection bool     `json:"multiple_selection"`
}

type TextInputItem struct {
	AcceptedAnswers []string `json:"accepted_answers"`
	CaseSensitive   bool     `json:"case_sensitive"`
}

type ListItem struct {
	ExpectedItems []string `json:"expected_items"`
	Ordered       bool     `json:"ordered"`
}

// CheckPayload reports whether the populated payload matches Kind.
func (e Entity) CheckPayload() error {
	set := 0
	for _, ok := range []bool{e.Supplier != nil, e.StockItem != nil, e.QuizItem != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("entity %q: more than one payload set", e.ID)
	}

	switch e.Kind {
	case EntityKindSupplier:
		if e.Supplier == nil {
			return fmt.Errorf("entity %q: supplier payload missing", e.ID)
		}
		switch e.Supplier.GSTMethod {
		case GSTMethodTenPercent, GSTMethodInput, GSTMethodNotApplicable:
			return nil
		default:
			return fmt.Errorf("entity %q: unknown gst method %q", e.ID, e.Supplier.GSTMethod)
		}
	case EntityKindStockItem:
		if e.StockItem == nil {
			return fmt.Errorf("entity %q: stock item payload missing", e.ID)
		}
		if e.StockItem.ParLevel.IsNegative() {
			return fmt.Errorf("entity %q: par level must not be negative", e.ID)
		}
		return nil
	case EntityKindQuizItem:
		if e.QuizItem == nil {
			return fmt.Errorf("entity %q: quiz item payload missing", e.ID)
		}
		if err := e.QuizItem.check(); err != nil {
			return fmt.Errorf("entity %q: %w", e.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("entity %q: unknown kind %q", e.ID, e.Kind)
	}
}

func (q QuizItem) check() error {
	set := 0
	for _, ok := range []bool{q.SelectedResponse != nil, q.TextInput != nil, q.List != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("quiz item: more than one payload set")
	}

	switch q.Kind {
	case QuizItemSelectedResponse:
		sr := q.SelectedResponse
		if sr == nil {
			return fmt.Errorf("selected response payload missing")
		}
		if len(sr.Options) < 2 {
			return fmt.Errorf("selected response needs at least two options")
		}
		if len(sr.CorrectOptions) == 0 {
			return fmt.Errorf("selected response needs a correct option")
		}
		if !sr.MultipleSelection && len(sr.CorrectOptions) > 1 {
			return fmt.Errorf("single selection item has %d correct options", len(sr.CorrectOptions))
		}
		for _, idx := range sr.CorrectOptions {
			if idx < 0 || idx >= len(sr.Options) {
				return fmt.Errorf("correct option %d out of range", idx)
			}
		}
		return nil
	case QuizItemTextInput:
		if q.TextInput == nil {
			return fmt.Errorf("text input payload missing")
		}
		if len(q.TextInput.AcceptedAnswers) == 0 {
			return fmt.Errorf("text input needs an accepted answer")
		}
		return nil
	case QuizItemList:
		if q.List == nil {
			return fmt.Errorf("list payload missing")
		}
		if len(q.List.ExpectedItems) == 0 {
			return fmt.Errorf("list needs expected items")
		}
		return nil
	default:
		return fmt.Errorf("unknown quiz item kind %q", q.Kind)
	}
}
