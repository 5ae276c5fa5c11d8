package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CategoryLevel is the position of a category in the three-level tree
type CategoryLevel string

const (
	// LevelTop categories are roots (e.g. "Jewelry")
	LevelTop CategoryLevel = "C1"
	// LevelMid categories hang under top categories (e.g. "Rings")
	LevelMid CategoryLevel = "C2"
	// LevelLeaf categories hang under mid categories and carry catalog items
	LevelLeaf CategoryLevel = "C3"
)

// Valid reports whether the level is one of the three allowed values
func (l CategoryLevel) Valid() bool {
	switch l {
	case LevelTop, LevelMid, LevelLeaf:
		return true
	}
	return false
}

// ParentLevel returns the level every parent must have, and false for top categories
func (l CategoryLevel) ParentLevel() (CategoryLevel, bool) {
	switch l {
	case LevelMid:
		return LevelTop, true
	case LevelLeaf:
		return LevelMid, true
	}
	return "", false
}

// ParseCategoryLevel validates a raw level value
func ParseCategoryLevel(raw string) (CategoryLevel, error) {
	level := CategoryLevel(raw)
	if !level.Valid() {
		return "", Invalidf("invalid level, must be C1, C2 or C3")
	}
	return level, nil
}

// Category is a node of the category tree
type Category struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name" validate:"required,min=1,max=255"`
	Description *string       `json:"description,omitempty"`
	Level       CategoryLevel `json:"level" validate:"required"`
	ParentIDs   []uuid.UUID   `json:"parent_ids"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// HasParent reports whether id is one of the category's parents
func (c *Category) HasParent(id uuid.UUID) bool {
	for _, p := range c.ParentIDs {
		if p == id {
			return true
		}
	}
	return false
}

// ValidateHierarchy checks the level-specific parent rules against the resolved parents.
// parents must hold every category referenced by ParentIDs.
func (c *Category) ValidateHierarchy(parents []*Category) error {
	if !c.Level.Valid() {
		return Invalidf("invalid level, must be C1, C2 or C3")
	}

	want, needsParents := c.Level.ParentLevel()
	if !needsParents {
		if len(c.ParentIDs) > 0 {
			return Invalidf("C1 category cannot have parents")
		}
		return nil
	}

	if len(c.ParentIDs) == 0 {
		return Invalidf("%s category must have parents", c.Level)
	}
	if len(parents) != len(c.ParentIDs) {
		return Invalidf("%s category references unknown parents", c.Level)
	}
	for _, p := range parents {
		if p.Level != want {
			return Invalidf("%s category must have %s parents only", c.Level, want)
		}
	}
	return nil
}

// DedupeIDs removes repeated ids keeping first occurrence order
func DedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CategoryPatch is a partial category update; nil fields are left untouched
type CategoryPatch struct {
	Name        *string
	Description *string
	Level       *CategoryLevel
	ParentIDs   *[]uuid.UUID
}

// Apply copies the set fields onto c
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.ParentIDs != nil {
		c.ParentIDs = DedupeIDs(*p.ParentIDs)
	}
}

// CategoryDetail is a category with resolved parents, direct children and attached items
type CategoryDetail struct {
	Category
	Parents  []*Category    `json:"parents"`
	Children []*Category    `json:"children"`
	Items    []*CatalogItem `json:"items"`
}

// CategoryNode is a node of the assembled hierarchy
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
	Items    []*CatalogItem  `json:"items,omitempty"`
}

// Ancestors are the denormalized mid/top references of a leaf category
type Ancestors struct {
	MidID *uuid.UUID
	TopID *uuid.UUID
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// Create persists a new category; duplicate (name, parents, level) returns ErrConflict
	Create(ctx context.Context, category *Category) error

	// GetByID retrieves a category by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// GetByIDs retrieves every existing category among ids
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Category, error)

	// List retrieves all categories ordered by name
	List(ctx context.Context) ([]*Category, error)

	// ListByLevel retrieves all categories at a level ordered by name
	ListByLevel(ctx context.Context, level CategoryLevel) ([]*Category, error)

	// ListChildren retrieves categories whose parent set contains id
	ListChildren(ctx context.Context, id uuid.UUID) ([]*Category, error)

	// Update overwrites an existing category
	Update(ctx context.Context, category *Category) error

	// Delete removes a category without cascading
	Delete(ctx context.Context, id uuid.UUID) error
}
