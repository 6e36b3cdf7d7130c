// Package catalog implements the ordered catalog model shared by the
// weekly spending, quiz and inventory apps: an entity store, the ordered
// section list placing those entities, and the editor operations that keep
// both consistent.
//
// Editor functions are pure. They take a catalog value and return a new
// one; the argument is never modified, so callers can keep the previous
// value for undo or unsaved-change detection. On error the returned
// catalog is the zero value and the caller keeps its own.
package catalog

import (
	"errors"
	"fmt"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

// edit runs fn against a deep copy of c and returns the copy if fn succeeds.
func edit(c domain.Catalog, fn func(entities *EntityStore, sections *SectionList) error) (domain.Catalog, error) {
	next := c.Clone()
	entities := EntityStore(next.Entities)
	sections := SectionList(next.Sections)
	if err := fn(&entities, &sections); err != nil {
		return domain.Catalog{}, err
	}
	next.Entities = entities
	next.Sections = sections
	return next, nil
}

func addNew(entities *EntityStore, sections SectionList, e domain.Entity) error {
	if e.ID == "" {
		return domain.NewValidationError("entity.id", "required")
	}
	if sections.Contains(e.ID) {
		return fmt.Errorf("entity %q already placed in a row: %w", e.ID, domain.ErrDuplicateID)
	}
	return entities.Add(e)
}

// AddEntity adds e and places its row right after the row of anchorEntityID.
// A missing anchor fails with ErrNotFound and nothing is added.
func AddEntity(c domain.Catalog, e domain.Entity, anchorEntityID string) (domain.Catalog, error) {
	return edit(c, func(entities *EntityStore, sections *SectionList) error {
		if err := addNew(entities, *sections, e); err != nil {
			return err
		}
		if !sections.InsertRowAfter(e.ID, anchorEntityID) {
			return fmt.Errorf("anchor entity %q: %w", anchorEntityID, domain.ErrNotFound)
		}
		return nil
	})
}

// AddEntityToSection adds e and appends its row to the section.
func AddEntityToSection(c domain.Catalog, e domain.Entity, sectionID string) (domain.Catalog, error) {
	return edit(c, func(entities *EntityStore, sections *SectionList) error {
		if err := addNew(entities, *sections, e); err != nil {
			return err
		}
		return sections.AppendRowToSection(e.ID, sectionID)
	})
}

// EditEntity replaces the stored entity with the same id. Rows are
// untouched because entity identity does not change.
func EditEntity(c domain.Catalog, e domain.Entity) (domain.Catalog, error) {
	return edit(c, func(entities *EntityStore, _ *SectionList) error {
		return entities.Update(e)
	})
}

// DeleteEntity removes the entity's row first and then the entity, so a
// row never outlives its entity.
func DeleteEntity(c domain.Catalog, entityID string) (domain.Catalog, error) {
	return edit(c, func(entities *EntityStore, sections *SectionList) error {
		if !entities.Has(entityID) {
			return fmt.Errorf("entity %q: %w", entityID, domain.ErrNotFound)
		}
		sections.RemoveRow(entityID)
		return entities.Remove(entityID)
	})
}

// AddSection inserts an empty section next to anchorID, or appends it when
// anchorID is empty.
func AddSection(c domain.Catalog, s domain.Section, anchorID string, pos Position) (domain.Catalog, error) {
	return edit(c, func(_ *EntityStore, sections *SectionList) error {
		if s.ID == "" {
			return domain.NewValidationError("section.id", "required")
		}
		if _, ok := sections.Get(s.ID); ok {
			return fmt.Errorf("section %q: %w", s.ID, domain.ErrDuplicateID)
		}
		if len(s.Rows) > 0 {
			return domain.NewValidationError("section.rows", "a new section must be empty")
		}
		s.Rows = []domain.Row{}
		if anchorID == "" {
			sections.AppendSection(s)
			return nil
		}
		return sections.InsertSection(s, anchorID, pos)
	})
}

// EditSection renames a section. Its rows are changed only through row
// operations.
func EditSection(c domain.Catalog, sectionID, name string) (domain.Catalog, error) {
	return edit(c, func(_ *EntityStore, sections *SectionList) error {
		return sections.RenameSection(sectionID, name)
	})
}

// DeleteSection removes the section together with every entity whose only
// row was in it.
func DeleteSection(c domain.Catalog, sectionID string) (domain.Catalog, error) {
	return edit(c, func(entities *EntityStore, sections *SectionList) error {
		orphaned, err := sections.DeleteSection(sectionID)
		if err != nil {
			return err
		}
		for _, id := range orphaned {
			// A row may point at an entity that was never stored; there is
			// nothing to cascade to in that case.
			if err := entities.Remove(id); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}

// MoveRow moves a row within or across sections.
func MoveRow(c domain.Catalog, fromSectionID string, fromIndex int, toSectionID string, toIndex int) (domain.Catalog, error) {
	return edit(c, func(_ *EntityStore, sections *SectionList) error {
		return sections.MoveRow(fromSectionID, fromIndex, toSectionID, toIndex)
	})
}

// MoveSection reorders sections.
func MoveSection(c domain.Catalog, fromIndex, toIndex int) (domain.Catalog, error) {
	return edit(c, func(_ *EntityStore, sections *SectionList) error {
		return sections.MoveSection(fromIndex, toIndex)
	})
}

// ValidateEntityCode checks code against the other entities of c. Pass the
// entity being edited as owner, or nil for a new entity. It returns "" when
// the code is acceptable.
func ValidateEntityCode(c domain.Catalog, code string, owner *domain.Entity) string {
	excluding := ""
	if owner != nil {
		excluding = owner.ID
	}
	return EntityStore(c.Entities).ValidateUniqueCode(code, excluding)
}
