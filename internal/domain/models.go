package domain

import (
	"fmt"
	"slices"
	"time"
)

// CatalogKind names the app a catalog belongs to.
type CatalogKind string

const (
	CatalogKindWeeklySpending CatalogKind = "weekly_spending"
	CatalogKindQuiz           CatalogKind = "quiz"
	CatalogKindInventory      CatalogKind = "inventory"
)

// EntityKind returns the only entity kind a catalog of this kind may hold.
func (k CatalogKind) EntityKind() (EntityKind, error) {
	switch k {
	case CatalogKindWeeklySpending:
		return EntityKindSupplier, nil
	case CatalogKindQuiz:
		return EntityKindQuizItem, nil
	case CatalogKindInventory:
		return EntityKindStockItem, nil
	default:
		return "", fmt.Errorf("unknown catalog kind %q", k)
	}
}

// Catalog is the aggregate root: entities plus their ordered placement in
// sections. It is persisted as a single document.
type Catalog struct {
	ID        string      `json:"id"`
	Kind      CatalogKind `json:"kind" validate:"required,oneof=weekly_spending quiz inventory"`
	Name      string      `json:"name" validate:"required"`
	Code      string      `json:"code,omitempty"`
	Sections  []Section   `json:"sections" validate:"dive"`
	Entities  []Entity    `json:"entities" validate:"dive"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Section is a named, ordered group of rows. Slice order is display order.
type Section struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
	Rows []Row  `json:"rows" validate:"dive"`
}

// Row places one entity inside a section.
type Row struct {
	EntityID string `json:"entity_id" validate:"required"`
}

// Clone returns a deep copy that shares no memory with c.
func (c Catalog) Clone() Catalog {
	out := c
	if c.Sections != nil {
		out.Sections = make([]Section, len(c.Sections))
		for i, s := range c.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	if c.Entities != nil {
		out.Entities = make([]Entity, len(c.Entities))
		for i, e := range c.Entities {
			out.Entities[i] = e.Clone()
		}
	}
	return out
}

func (s Section) Clone() Section {
	out := s
	out.Rows = slices.Clone(s.Rows)
	return out
}

func (e Entity) Clone() Entity {
	out := e
	if e.Supplier != nil {
		v := *e.Supplier
		out.Supplier = &v
	}
	if e.StockItem != nil {
		v := *e.StockItem
		out.StockItem = &v
	}
	if e.QuizItem != nil {
		v := e.QuizItem.clone()
		out.QuizItem = &v
	}
	return out
}

func (q QuizItem) clone() QuizItem {
	out := q
	if q.SelectedResponse != nil {
		v := *q.SelectedResponse
		v.Options = slices.Clone(v.Options)
		v.CorrectOptions = slices.Clone(v.CorrectOptions)
		out.SelectedResponse = &v
	}
	if q.TextInput != nil {
		v := *q.TextInput
		v.AcceptedAnswers = slices.Clone(v.AcceptedAnswers)
		out.TextInput = &v
	}
	if q.List != nil {
		v := *q.List
		v.ExpectedItems = slices.Clone(v.ExpectedItems)
		out.List = &v
	}
	return out
}

// FindEntity returns the entity with the given id.
func (c Catalog) FindEntity(id string) (Entity, bool) {
	for _, e := range c.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// CatalogFilter narrows catalog listings.
type CatalogFilter struct {
	Kind CatalogKind
	PaginationParams
}

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PaginatedResult represents a paginated result
type PaginatedResult[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPaginatedResult wraps one page of items together with the total count
// of matching records.
func NewPaginatedResult[T any](items []T, total int, p PaginationParams) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PaginatedResult[T]{
		Items:   items,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.Offset+len(items) < total,
	}
}
