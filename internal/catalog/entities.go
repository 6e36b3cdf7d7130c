package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

// EntityStore is the unordered set of entities of one catalog, keyed by id.
// Methods mutate the receiver; callers that need value semantics work on a
// clone (see the editor functions).
type EntityStore []domain.Entity

func (s EntityStore) index(id string) int {
	return slices.IndexFunc(s, func(e domain.Entity) bool { return e.ID == id })
}

// Get returns the entity with the given id.
func (s EntityStore) Get(id string) (domain.Entity, bool) {
	if i := s.index(id); i >= 0 {
		return s[i], true
	}
	return domain.Entity{}, false
}

// Has reports whether an entity with the given id exists.
func (s EntityStore) Has(id string) bool {
	return s.index(id) >= 0
}

// Add appends e. Fails with ErrDuplicateID if its id is already present.
func (s *EntityStore) Add(e domain.Entity) error {
	if s.Has(e.ID) {
		return fmt.Errorf("entity %q: %w", e.ID, domain.ErrDuplicateID)
	}
	*s = append(*s, e)
	return nil
}

// Update replaces the entity with the same id.
func (s EntityStore) Update(e domain.Entity) error {
	i := s.index(e.ID)
	if i < 0 {
		return fmt.Errorf("entity %q: %w", e.ID, domain.ErrNotFound)
	}
	s[i] = e
	return nil
}

// Remove deletes the entity. Rows referencing it are left alone.
func (s *EntityStore) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("entity %q: %w", id, domain.ErrNotFound)
	}
	*s = slices.Delete(*s, i, i+1)
	return nil
}

// IDs returns entity ids in store order.
func (s EntityStore) IDs() []string {
	ids := make([]string, len(s))
	for i, e := range s {
		ids[i] = e.ID
	}
	return ids
}

// ValidateUniqueCode returns a message when another entity already uses
// code, or "" when code is free. Codes compare after trimming surrounding
// whitespace and are case-sensitive. A blank code never conflicts.
func (s EntityStore) ValidateUniqueCode(code, excludingID string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for _, e := range s {
		if e.ID == excludingID {
			continue
		}
		if strings.TrimSpace(e.Code) == code {
			return fmt.Sprintf("code %q is already used by %q", code, e.Name)
		}
	}
	return ""
}
