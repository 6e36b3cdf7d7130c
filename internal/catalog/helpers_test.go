package catalog

import (
	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

func supplier(id, code string, method domain.GSTMethod) domain.Entity {
	return domain.Entity{
		ID:       id,
		Name:     "Supplier " + id,
		Code:     code,
		Kind:     domain.EntityKindSupplier,
		Supplier: &domain.Supplier{GSTMethod: method},
	}
}

func rows(ids ...string) []domain.Row {
	out := make([]domain.Row, len(ids))
	for i, id := range ids {
		out[i] = domain.Row{EntityID: id}
	}
	return out
}

// weeklyCatalog has sections s1[e1 e2] and s2[e3].
func weeklyCatalog() domain.Catalog {
	return domain.Catalog{
		ID:   "cat-1",
		Kind: domain.CatalogKindWeeklySpending,
		Name: "Weekly spending",
		Sections: []domain.Section{
			{ID: "s1", Name: "Food", Rows: rows("e1", "e2")},
			{ID: "s2", Name: "Drinks", Rows: rows("e3")},
		},
		Entities: []domain.Entity{
			supplier("e1", "A", domain.GSTMethodTenPercent),
			supplier("e2", "B", domain.GSTMethodInput),
			supplier("e3", "C", domain.GSTMethodNotApplicable),
		},
	}
}

func rowIDs(c domain.Catalog, sectionID string) []string {
	s, ok := SectionList(c.Sections).Get(sectionID)
	if !ok {
		return nil
	}
	ids := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		ids[i] = r.EntityID
	}
	return ids
}

func sectionIDs(c domain.Catalog) []string {
	ids := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		ids[i] = s.ID
	}
	return ids
}
