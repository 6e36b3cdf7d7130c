package catalog

import (
	"fmt"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

// rowUsage counts row references per entity id, remembering first-seen order.
type rowUsage struct {
	order  []string
	counts map[string]int
}

func countRows(sections []domain.Section) rowUsage {
	u := rowUsage{counts: make(map[string]int)}
	for _, s := range sections {
		for _, r := range s.Rows {
			if u.counts[r.EntityID] == 0 {
				u.order = append(u.order, r.EntityID)
			}
			u.counts[r.EntityID]++
		}
	}
	return u
}

func (u rowUsage) check(entities []domain.Entity, noun string) []domain.FieldError {
	var errs []domain.FieldError
	for _, id := range u.order {
		if u.counts[id] > 1 {
			errs = append(errs, domain.FieldError{Field: "sections", Message: fmt.Sprintf("%s used more than once: %s", noun, id)})
		}
	}
	known := make(map[string]bool, len(entities))
	for _, e := range entities {
		known[e.ID] = true
	}
	for _, id := range u.order {
		if !known[id] {
			errs = append(errs, domain.FieldError{Field: "sections", Message: fmt.Sprintf("%s not found: %s", noun, id)})
		}
	}
	return errs
}

// ValidateExactlyOnce checks the weekly spending rule that every supplier
// is placed in exactly one row. All violations are returned: duplicated
// rows first, then rows naming unknown suppliers, then unused suppliers.
func ValidateExactlyOnce(c domain.Catalog) []domain.FieldError {
	usage := countRows(c.Sections)
	errs := usage.check(c.Entities, "supplier")
	for _, e := range c.Entities {
		if usage.counts[e.ID] == 0 {
			errs = append(errs, domain.FieldError{Field: "suppliers", Message: fmt.Sprintf("supplier not used in rows: %s", e.ID)})
		}
	}
	return errs
}

// Validate runs every consistency check for c and returns a
// *domain.ValidationError listing all problems, or nil.
func Validate(c domain.Catalog) error {
	var errs []domain.FieldError

	wantKind, err := c.Kind.EntityKind()
	if err != nil {
		errs = append(errs, domain.FieldError{Field: "kind", Message: err.Error()})
	}

	seen := make(map[string]bool, len(c.Entities))
	for i, e := range c.Entities {
		field := fmt.Sprintf("entities[%d]", i)
		switch {
		case e.ID == "":
			errs = append(errs, domain.FieldError{Field: field + ".id", Message: "required"})
		case seen[e.ID]:
			errs = append(errs, domain.FieldError{Field: field + ".id", Message: fmt.Sprintf("duplicate entity id: %s", e.ID)})
		}
		seen[e.ID] = true

		if wantKind != "" && e.Kind != wantKind {
			errs = append(errs, domain.FieldError{Field: field + ".kind", Message: fmt.Sprintf("%s catalog cannot hold %s", c.Kind, e.Kind)})
		} else if err := e.CheckPayload(); err != nil {
			errs = append(errs, domain.FieldError{Field: field, Message: err.Error()})
		}

		if msg := EntityStore(c.Entities[:i]).ValidateUniqueCode(e.Code, e.ID); msg != "" {
			errs = append(errs, domain.FieldError{Field: field + ".code", Message: msg})
		}
	}

	sectionIDs := make(map[string]bool, len(c.Sections))
	for i, s := range c.Sections {
		field := fmt.Sprintf("sections[%d].id", i)
		switch {
		case s.ID == "":
			errs = append(errs, domain.FieldError{Field: field, Message: "required"})
		case sectionIDs[s.ID]:
			errs = append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf("duplicate section id: %s", s.ID)})
		}
		sectionIDs[s.ID] = true
	}

	if c.Kind == domain.CatalogKindWeeklySpending {
		errs = append(errs, ValidateExactlyOnce(c)...)
	} else {
		errs = append(errs, countRows(c.Sections).check(c.Entities, "entity")...)
	}

	return domain.NewValidationErrors(errs)
}
