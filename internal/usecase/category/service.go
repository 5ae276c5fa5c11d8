package category

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/validator"
)

// HierarchyCache stores assembled category trees
type HierarchyCache interface {
	GetHierarchy(ctx context.Context, withItems bool) ([]*domain.CategoryNode, error)
	SetHierarchy(ctx context.Context, withItems bool, nodes []*domain.CategoryNode) error
	InvalidateHierarchy(ctx context.Context) error
}

// Service handles the category tree and hierarchy queries
type Service struct {
	repo   domain.CategoryRepository
	items  domain.CatalogItemRepository
	cache  HierarchyCache
	logger *logger.Logger
}

// NewService creates a new category service
func NewService(
	repo domain.CategoryRepository,
	items domain.CatalogItemRepository,
	cache HierarchyCache,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:   repo,
		items:  items,
		cache:  cache,
		logger: log,
	}
}

// Create validates the level-specific parent rules and persists a new category
func (s *Service) Create(ctx context.Context, c *domain.Category) error {
	if err := validator.Struct(c); err != nil {
		s.logger.Error("Category validation failed", err)
		return err
	}
	if !c.Level.Valid() {
		return domain.Invalidf("invalid level, must be C1, C2 or C3")
	}

	c.ParentIDs = domain.DedupeIDs(c.ParentIDs)

	var parents []*domain.Category
	if len(c.ParentIDs) > 0 {
		var err error
		parents, err = s.repo.GetByIDs(ctx, c.ParentIDs)
		if err != nil {
			s.logger.Error("Failed to load parent categories", err)
			return err
		}
	}

	if err := c.ValidateHierarchy(parents); err != nil {
		s.logger.Debugf("Category hierarchy rejected: %v", err)
		return err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("Failed to create category", err)
		return err
	}

	s.invalidateHierarchy(ctx)

	s.logger.WithFields(map[string]interface{}{
		"category_id": c.ID,
		"level":       c.Level,
		"parents":     len(c.ParentIDs),
	}).Info("Category created successfully")

	return nil
}

// Update applies a partial update. Hierarchy rules are not re-checked, but items
// below the category get their ancestor references re-indexed when its shape changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch) (*domain.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get category for update", err)
		}
		return nil, err
	}

	if patch.Level != nil && !patch.Level.Valid() {
		return nil, domain.Invalidf("invalid level, must be C1, C2 or C3")
	}

	patch.Apply(c)
	if err := validator.Struct(c); err != nil {
		s.logger.Error("Category validation failed", err)
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("Failed to update category", err)
		return nil, err
	}

	if patch.ParentIDs != nil || patch.Level != nil {
		s.reindexSubtree(ctx, c.ID)
	}
	s.invalidateHierarchy(ctx)

	s.logger.WithFields(map[string]interface{}{
		"category_id": c.ID,
		"level":       c.Level,
	}).Info("Category updated successfully")

	return c, nil
}

// Delete removes a category. Children and items are not cascaded; their ancestor
// references are re-indexed so they no longer point at the removed node.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete category", err)
		}
		return err
	}

	s.reindexSubtree(ctx, id)
	s.invalidateHierarchy(ctx)

	s.logger.WithFields(map[string]interface{}{
		"category_id": id,
	}).Info("Category deleted successfully")

	return nil
}

// Get returns a category with resolved parents, direct children and directly attached items
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.CategoryDetail, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Category not found: %s", id)
		} else {
			s.logger.Error("Failed to get category", err)
		}
		return nil, err
	}

	detail := &domain.CategoryDetail{
		Category: *c,
		Parents:  []*domain.Category{},
		Items:    []*domain.CatalogItem{},
	}

	if len(c.ParentIDs) > 0 {
		parents, err := s.repo.GetByIDs(ctx, c.ParentIDs)
		if err != nil {
			s.logger.Error("Failed to resolve category parents", err)
			return nil, err
		}
		detail.Parents = orderByIDs(parents, c.ParentIDs)
	}

	detail.Children, err = s.repo.ListChildren(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list category children", err)
		return nil, err
	}

	if c.Level == domain.LevelLeaf {
		detail.Items, err = s.items.ListByCategory(ctx, id, domain.LevelLeaf)
		if err != nil {
			s.logger.Error("Failed to list category items", err)
			return nil, err
		}
	}

	return detail, nil
}

// List returns every category ordered by name
func (s *Service) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

// ListByLevel returns the categories at one level
func (s *Service) ListByLevel(ctx context.Context, rawLevel string) ([]*domain.Category, error) {
	level, err := domain.ParseCategoryLevel(rawLevel)
	if err != nil {
		return nil, err
	}

	categories, err := s.repo.ListByLevel(ctx, level)
	if err != nil {
		s.logger.Error("Failed to list categories by level", err)
		return nil, err
	}
	return categories, nil
}

// ResolveAncestors finds the mid and top categories of a leaf. The first mid parent
// in parent order is used, and the first top parent of that mid.
func (s *Service) ResolveAncestors(ctx context.Context, leafID uuid.UUID) (domain.Ancestors, error) {
	leaf, err := s.repo.GetByID(ctx, leafID)
	if err != nil {
		return domain.Ancestors{}, err
	}
	if leaf.Level != domain.LevelLeaf {
		return domain.Ancestors{}, domain.Invalidf("category %s is not a C3 category", leafID)
	}
	return s.ancestorsOf(ctx, leaf)
}

func (s *Service) ancestorsOf(ctx context.Context, leaf *domain.Category) (domain.Ancestors, error) {
	var ancestors domain.Ancestors

	mid, err := s.firstParentAt(ctx, leaf.ParentIDs, domain.LevelMid)
	if err != nil || mid == nil {
		return ancestors, err
	}
	midID := mid.ID
	ancestors.MidID = &midID

	top, err := s.firstParentAt(ctx, mid.ParentIDs, domain.LevelTop)
	if err != nil || top == nil {
		return ancestors, err
	}
	topID := top.ID
	ancestors.TopID = &topID

	return ancestors, nil
}

func (s *Service) firstParentAt(ctx context.Context, ids []uuid.UUID, level domain.CategoryLevel) (*domain.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parents, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range orderByIDs(parents, ids) {
		if p.Level == level {
			return p, nil
		}
	}
	return nil, nil
}

// Hierarchy assembles the Top -> Mid -> Leaf tree sorted by name at every level.
// With items, leaf nodes carry their directly attached catalog items.
func (s *Service) Hierarchy(ctx context.Context, withItems bool) ([]*domain.CategoryNode, error) {
	if nodes, err := s.cache.GetHierarchy(ctx, withItems); err == nil {
		s.logger.Debug("Cache hit for category hierarchy")
		return nodes, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Failed to read cached hierarchy: %v", err)
	}

	categories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories for hierarchy", err)
		return nil, err
	}

	var itemsByLeaf map[uuid.UUID][]*domain.CatalogItem
	if withItems {
		itemsByLeaf, err = s.leafItems(ctx, categories)
		if err != nil {
			s.logger.Error("Failed to list items for hierarchy", err)
			return nil, err
		}
	}

	nodes := BuildTree(categories, itemsByLeaf)

	if err := s.cache.SetHierarchy(ctx, withItems, nodes); err != nil {
		s.logger.Warnf("Failed to cache category hierarchy: %v", err)
	}

	return nodes, nil
}

func (s *Service) leafItems(ctx context.Context, categories []*domain.Category) (map[uuid.UUID][]*domain.CatalogItem, error) {
	leafIDs := make([]uuid.UUID, 0)
	for _, c := range categories {
		if c.Level == domain.LevelLeaf {
			leafIDs = append(leafIDs, c.ID)
		}
	}

	grouped := make(map[uuid.UUID][]*domain.CatalogItem, len(leafIDs))
	if len(leafIDs) == 0 {
		return grouped, nil
	}

	items, err := s.items.ListByLeafIDs(ctx, leafIDs)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		grouped[item.CategoryID] = append(grouped[item.CategoryID], item)
	}
	return grouped, nil
}

// BuildTree nests categories under their parents. A node with several parents
// appears under each of them. itemsByLeaf may be nil.
func BuildTree(categories []*domain.Category, itemsByLeaf map[uuid.UUID][]*domain.CatalogItem) []*domain.CategoryNode {
	sorted := make([]*domain.Category, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	children := make(map[uuid.UUID][]*domain.Category)
	for _, c := range sorted {
		for _, pid := range c.ParentIDs {
			children[pid] = append(children[pid], c)
		}
	}

	var build func(c *domain.Category) *domain.CategoryNode
	build = func(c *domain.Category) *domain.CategoryNode {
		node := &domain.CategoryNode{Category: *c, Children: []*domain.CategoryNode{}}
		if c.Level == domain.LevelLeaf {
			if itemsByLeaf != nil {
				node.Items = itemsByLeaf[c.ID]
			}
			return node
		}
		want := domain.LevelMid
		if c.Level == domain.LevelMid {
			want = domain.LevelLeaf
		}
		for _, child := range children[c.ID] {
			if child.Level == want {
				node.Children = append(node.Children, build(child))
			}
		}
		return node
	}

	roots := []*domain.CategoryNode{}
	for _, c := range sorted {
		if c.Level == domain.LevelTop {
			roots = append(roots, build(c))
		}
	}
	return roots
}

// Path returns the root-first breadcrumb of a category following the first parent
// at every step. Missing parents and cycles end the walk.
func (s *Service) Path(ctx context.Context, id uuid.UUID) ([]*domain.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get category for path", err)
		}
		return nil, err
	}

	path := []*domain.Category{c}
	visited := map[uuid.UUID]bool{c.ID: true}

	for len(c.ParentIDs) > 0 {
		parentID := c.ParentIDs[0]
		if visited[parentID] {
			s.logger.Warnf("Cycle detected in category path at %s", parentID)
			break
		}

		parent, err := s.repo.GetByID(ctx, parentID)
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if err != nil {
			s.logger.Error("Failed to get parent category for path", err)
			return nil, err
		}

		visited[parent.ID] = true
		path = append(path, parent)
		c = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// ItemsByCategory lists items below a category. With a level only that
// denormalized reference is matched, otherwise any of the three.
func (s *Service) ItemsByCategory(ctx context.Context, id uuid.UUID, rawLevel string) ([]*domain.CatalogItem, error) {
	var level domain.CategoryLevel
	if rawLevel != "" {
		var err error
		level, err = domain.ParseCategoryLevel(rawLevel)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.items.ListByCategory(ctx, id, level)
	if err != nil {
		s.logger.Error("Failed to list items by category", err)
		return nil, err
	}
	return items, nil
}

// TopItems lists every item whose top ancestor is the given C1 category
func (s *Service) TopItems(ctx context.Context, id uuid.UUID) ([]*domain.CatalogItem, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to get category", err)
		}
		return nil, err
	}
	if c.Level != domain.LevelTop {
		return nil, domain.Invalidf("category must be a C1 category")
	}

	items, err := s.items.ListByCategory(ctx, id, domain.LevelTop)
	if err != nil {
		s.logger.Error("Failed to list items under top category", err)
		return nil, err
	}
	return items, nil
}

// ReindexAll recomputes the ancestor references of every catalog item
func (s *Service) ReindexAll(ctx context.Context) (int64, error) {
	leafIDs, err := s.items.ListLeafCategoryIDs(ctx)
	if err != nil {
		s.logger.Error("Failed to list leaf categories for reindex", err)
		return 0, err
	}

	var total int64
	for _, leafID := range leafIDs {
		n, err := s.reindexLeaf(ctx, leafID)
		if err != nil {
			s.logger.Errorf(err, "Failed to reindex items of category %s", leafID)
			continue
		}
		total += n
	}

	if total > 0 {
		s.invalidateHierarchy(ctx)
	}

	s.logger.WithFields(map[string]interface{}{
		"leaves":  len(leafIDs),
		"updated": total,
	}).Info("Catalog ancestors reindexed")

	return total, nil
}

// reindexSubtree re-resolves ancestors for items attached to any leaf at or below id
func (s *Service) reindexSubtree(ctx context.Context, id uuid.UUID) {
	leaves, err := s.subtreeLeaves(ctx, id)
	if err != nil {
		s.logger.Errorf(err, "Failed to collect subtree of category %s", id)
		return
	}

	for _, leafID := range leaves {
		if _, err := s.reindexLeaf(ctx, leafID); err != nil {
			s.logger.Errorf(err, "Failed to reindex items of category %s", leafID)
		}
	}
}

func (s *Service) subtreeLeaves(ctx context.Context, root uuid.UUID) ([]uuid.UUID, error) {
	var leaves []uuid.UUID
	visited := map[uuid.UUID]bool{}
	queue := []uuid.UUID{root}

	// A deleted root is no longer stored, so it is treated as a possible leaf too
	leaves = append(leaves, root)
	visited[root] = true

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children, err := s.repo.ListChildren(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			if child.Level == domain.LevelLeaf {
				leaves = append(leaves, child.ID)
			}
			queue = append(queue, child.ID)
		}
	}
	return leaves, nil
}

func (s *Service) reindexLeaf(ctx context.Context, leafID uuid.UUID) (int64, error) {
	var ancestors domain.Ancestors

	leaf, err := s.repo.GetByID(ctx, leafID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// orphaned items keep their leaf reference but lose mid/top
	case err != nil:
		return 0, err
	case leaf.Level == domain.LevelLeaf:
		ancestors, err = s.ancestorsOf(ctx, leaf)
		if err != nil {
			return 0, err
		}
	}

	return s.items.ReindexLeaf(ctx, leafID, ancestors)
}

func (s *Service) invalidateHierarchy(ctx context.Context) {
	if err := s.cache.InvalidateHierarchy(ctx); err != nil {
		s.logger.Warnf("Failed to invalidate hierarchy cache: %v", err)
	}
}

// orderByIDs returns categories in the order of ids, skipping unknown ids
func orderByIDs(categories []*domain.Category, ids []uuid.UUID) []*domain.Category {
	byID := make(map[uuid.UUID]*domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	ordered := make([]*domain.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
