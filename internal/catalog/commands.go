package catalog

import (
	"fmt"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

// Op names an editor operation carried by a Command.
type Op string

const (
	OpAddEntity          Op = "add_entity"
	OpAddEntityToSection Op = "add_entity_to_section"
	OpEditEntity         Op = "edit_entity"
	OpDeleteEntity       Op = "delete_entity"
	OpAddSection         Op = "add_section"
	OpEditSection        Op = "edit_section"
	OpDeleteSection      Op = "delete_section"
	OpMoveRow            Op = "move_row"
	OpMoveSection        Op = "move_section"
)

// Command is one editor operation in wire form. Which fields are read
// depends on Op.
type Command struct {
	Op            Op              `json:"op" validate:"required"`
	Entity        *domain.Entity  `json:"entity,omitempty"`
	Section       *domain.Section `json:"section,omitempty"`
	EntityID      string          `json:"entity_id,omitempty"`
	SectionID     string          `json:"section_id,omitempty"`
	AnchorID      string          `json:"anchor_id,omitempty"`
	Position      Position        `json:"position,omitempty"`
	Name          string          `json:"name,omitempty"`
	FromSectionID string          `json:"from_section_id,omitempty"`
	FromIndex     int             `json:"from_index"`
	ToSectionID   string          `json:"to_section_id,omitempty"`
	ToIndex       int             `json:"to_index"`
}

// Apply reduces c by cmd.
func Apply(c domain.Catalog, cmd Command) (domain.Catalog, error) {
	switch cmd.Op {
	case OpAddEntity:
		if cmd.Entity == nil {
			return domain.Catalog{}, domain.NewValidationError("entity", "required")
		}
		return AddEntity(c, *cmd.Entity, cmd.AnchorID)
	case OpAddEntityToSection:
		if cmd.Entity == nil {
			return domain.Catalog{}, domain.NewValidationError("entity", "required")
		}
		return AddEntityToSection(c, *cmd.Entity, cmd.SectionID)
	case OpEditEntity:
		if cmd.Entity == nil {
			return domain.Catalog{}, domain.NewValidationError("entity", "required")
		}
		return EditEntity(c, *cmd.Entity)
	case OpDeleteEntity:
		return DeleteEntity(c, cmd.EntityID)
	case OpAddSection:
		if cmd.Section == nil {
			return domain.Catalog{}, domain.NewValidationError("section", "required")
		}
		pos := cmd.Position
		if pos == "" {
			pos = After
		}
		return AddSection(c, *cmd.Section, cmd.AnchorID, pos)
	case OpEditSection:
		return EditSection(c, cmd.SectionID, cmd.Name)
	case OpDeleteSection:
		return DeleteSection(c, cmd.SectionID)
	case OpMoveRow:
		return MoveRow(c, cmd.FromSectionID, cmd.FromIndex, cmd.ToSectionID, cmd.ToIndex)
	case OpMoveSection:
		return MoveSection(c, cmd.FromIndex, cmd.ToIndex)
	default:
		return domain.Catalog{}, domain.NewValidationError("op", fmt.Sprintf("unknown operation %q", cmd.Op))
	}
}
