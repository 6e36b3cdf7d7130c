package catalog

import (
	"fmt"
	"slices"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

// Position places a new section relative to an anchor section.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// SectionList is the ordered sequence of sections of one catalog. No two
// rows across the list reference the same entity.
//
// Moves follow a single convention: the row (or section) is popped at the
// source index first, then spliced into the resulting list at the target
// index. There is no manual index adjustment.
type SectionList []domain.Section

func (l SectionList) index(id string) int {
	return slices.IndexFunc(l, func(s domain.Section) bool { return s.ID == id })
}

// Get returns the section with the given id.
func (l SectionList) Get(id string) (domain.Section, bool) {
	if i := l.index(id); i >= 0 {
		return l[i], true
	}
	return domain.Section{}, false
}

// Locate returns the section index and row index of the row referencing
// entityID.
func (l SectionList) Locate(entityID string) (int, int, bool) {
	for si, s := range l {
		for ri, r := range s.Rows {
			if r.EntityID == entityID {
				return si, ri, true
			}
		}
	}
	return -1, -1, false
}

// Contains reports whether any row references entityID.
func (l SectionList) Contains(entityID string) bool {
	_, _, ok := l.Locate(entityID)
	return ok
}

// EntityIDs returns every referenced entity id in display order,
// duplicates included.
func (l SectionList) EntityIDs() []string {
	var ids []string
	for _, s := range l {
		for _, r := range s.Rows {
			ids = append(ids, r.EntityID)
		}
	}
	return ids
}

// InsertSection splices section next to the section with anchorID.
func (l *SectionList) InsertSection(section domain.Section, anchorID string, pos Position) error {
	i := l.index(anchorID)
	if i < 0 {
		return fmt.Errorf("anchor section %q: %w", anchorID, domain.ErrNotFound)
	}
	switch pos {
	case Before:
	case After:
		i++
	default:
		return domain.NewValidationError("position", fmt.Sprintf("unknown position %q", pos))
	}
	*l = slices.Insert(*l, i, section)
	return nil
}

// AppendSection adds section at the end.
func (l *SectionList) AppendSection(section domain.Section) {
	*l = append(*l, section)
}

// RenameSection changes the name of a section in place.
func (l SectionList) RenameSection(id, name string) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("section %q: %w", id, domain.ErrNotFound)
	}
	l[i].Name = name
	return nil
}

// ReplaceSection swaps the section with the given id for section.
func (l SectionList) ReplaceSection(id string, section domain.Section) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("section %q: %w", id, domain.ErrNotFound)
	}
	l[i] = section
	return nil
}

// DeleteSection removes the section and returns the entity ids that were
// referenced only by its rows.
func (l *SectionList) DeleteSection(id string) ([]string, error) {
	i := l.index(id)
	if i < 0 {
		return nil, fmt.Errorf("section %q: %w", id, domain.ErrNotFound)
	}
	removed := (*l)[i]
	*l = slices.Delete(*l, i, i+1)

	var orphaned []string
	for _, r := range removed.Rows {
		if l.Contains(r.EntityID) || slices.Contains(orphaned, r.EntityID) {
			continue
		}
		orphaned = append(orphaned, r.EntityID)
	}
	return orphaned, nil
}

// MoveRow pops the row at fromIndex of the source section and splices it
// at toIndex of the destination section. toIndex is read against the
// destination list after the pop, so it may equal that list's length.
func (l SectionList) MoveRow(fromSectionID string, fromIndex int, toSectionID string, toIndex int) error {
	from := l.index(fromSectionID)
	if from < 0 {
		return fmt.Errorf("section %q: %w", fromSectionID, domain.ErrNotFound)
	}
	to := l.index(toSectionID)
	if to < 0 {
		return fmt.Errorf("section %q: %w", toSectionID, domain.ErrNotFound)
	}
	if fromIndex < 0 || fromIndex >= len(l[from].Rows) {
		return fmt.Errorf("row %d of section %q: %w", fromIndex, fromSectionID, domain.ErrNotFound)
	}
	if from == to && fromIndex == toIndex {
		return nil
	}

	destLen := len(l[to].Rows)
	if from == to {
		destLen--
	}
	if toIndex < 0 || toIndex > destLen {
		return fmt.Errorf("target index %d of section %q: %w", toIndex, toSectionID, domain.ErrNotFound)
	}

	row := l[from].Rows[fromIndex]
	l[from].Rows = slices.Delete(l[from].Rows, fromIndex, fromIndex+1)
	l[to].Rows = slices.Insert(l[to].Rows, toIndex, row)
	return nil
}

// MoveSection pops the section at fromIndex and splices it at toIndex.
func (l SectionList) MoveSection(fromIndex, toIndex int) error {
	if fromIndex < 0 || fromIndex >= len(l) {
		return fmt.Errorf("section index %d: %w", fromIndex, domain.ErrNotFound)
	}
	if toIndex < 0 || toIndex >= len(l) {
		return fmt.Errorf("section index %d: %w", toIndex, domain.ErrNotFound)
	}
	if fromIndex == toIndex {
		return nil
	}
	s := l[fromIndex]
	// Length is unchanged by the move, so rotate in place.
	if fromIndex < toIndex {
		copy(l[fromIndex:toIndex], l[fromIndex+1:toIndex+1])
	} else {
		copy(l[toIndex+1:fromIndex+1], l[toIndex:fromIndex])
	}
	l[toIndex] = s
	return nil
}

// InsertRowAfter adds a row for entityID right after the row referencing
// afterEntityID. It reports false, and changes nothing, when no row
// references afterEntityID.
func (l SectionList) InsertRowAfter(entityID, afterEntityID string) bool {
	si, ri, ok := l.Locate(afterEntityID)
	if !ok {
		return false
	}
	l[si].Rows = slices.Insert(l[si].Rows, ri+1, domain.Row{EntityID: entityID})
	return true
}

// AppendRowToSection adds a row for entityID at the end of the section.
func (l SectionList) AppendRowToSection(entityID, sectionID string) error {
	i := l.index(sectionID)
	if i < 0 {
		return fmt.Errorf("section %q: %w", sectionID, domain.ErrNotFound)
	}
	l[i].Rows = append(l[i].Rows, domain.Row{EntityID: entityID})
	return nil
}

// RemoveRow deletes the row referencing entityID, reporting whether one
// was found.
func (l SectionList) RemoveRow(entityID string) bool {
	si, ri, ok := l.Locate(entityID)
	if !ok {
		return false
	}
	l[si].Rows = slices.Delete(l[si].Rows, ri, ri+1)
	return true
}
