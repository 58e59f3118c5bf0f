package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/metrics"
	"github.com/forgo/mediacms/api/internal/migrate"
	"github.com/forgo/mediacms/api/internal/model"
	"github.com/forgo/mediacms/api/internal/mptt"
	"github.com/forgo/mediacms/api/internal/taxonomy"
)

// TechniqueRepository defines the interface for technique storage
type TechniqueRepository interface {
	List(ctx context.Context) ([]*model.Technique, error)
	GetBySlug(ctx context.Context, slug string) (*model.Technique, error)
	Create(ctx context.Context, t *model.Technique) error
	CreateInTree(ctx context.Context, t *model.Technique, shifted []model.TreeFields) error
	UpdateTreeFields(ctx context.Context, fields []model.TreeFields) error
	DeleteInTree(ctx context.Context, ids []string, shifted []model.TreeFields) error
	DeleteAll(ctx context.Context) error
}

// TechniqueMediaRepository defines the interface for technique/media associations
type TechniqueMediaRepository interface {
	Create(ctx context.Context, tm *model.TechniqueMedia) error
	Get(ctx context.Context, techniqueID, mediaID string) (*model.TechniqueMedia, error)
	Delete(ctx context.Context, id string) error
	ListWithMedia(ctx context.Context) ([]*model.TechniqueMediaItem, error)
}

// MediaRepository defines the interface for media lookups
type MediaRepository interface {
	GetByFriendlyToken(ctx context.Context, token string) (*model.Media, error)
	List(ctx context.Context, limit, offset int) ([]*model.Media, int, error)
}

// TechniqueServiceConfig holds configuration for the technique service
type TechniqueServiceConfig struct {
	Techniques     TechniqueRepository
	TechniqueMedia TechniqueMediaRepository
	Media          MediaRepository
	Authorizer     Authorizer
	Logger         *slog.Logger
}

// TechniqueService manages the technique taxonomy and its media
type TechniqueService struct {
	techniques TechniqueRepository
	links      TechniqueMediaRepository
	media      MediaRepository
	authz      Authorizer
	logger     *slog.Logger

	// serializes tree renumbering within this process
	treeMu sync.Mutex
}

// NewTechniqueService creates a new technique service
func NewTechniqueService(cfg TechniqueServiceConfig) *TechniqueService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TechniqueService{
		techniques: cfg.Techniques,
		links:      cfg.TechniqueMedia,
		media:      cfg.Media,
		authz:      cfg.Authorizer,
		logger:     logger,
	}
}

// Document returns the whole taxonomy with attached media merged into each
// node, newest media first
func (s *TechniqueService) Document(ctx context.Context, p *model.Principal) (*model.TechniquesDocument, error) {
	if err := authorize(s.authz, p, ObjectTechniques, ActionRead); err != nil {
		return nil, err
	}

	techniques, err := s.techniques.List(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.links.ListWithMedia(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AddDate.After(items[j].AddDate)
	})
	bySlug := make(map[string][]*model.TechniqueMediaItem)
	for _, item := range items {
		if item.TitleOverride != "" {
			item.Title = item.TitleOverride
		}
		bySlug[item.TechniqueID] = append(bySlug[item.TechniqueID], item)
	}

	return &model.TechniquesDocument{
		Version: model.TechniqueDocumentVersion,
		Tree:    s.buildTree(techniques, bySlug),
	}, nil
}

// Tree returns the taxonomy without media. Superuser only.
func (s *TechniqueService) Tree(ctx context.Context, p *model.Principal) ([]*model.TechniqueNode, error) {
	if err := authorize(s.authz, p, ObjectTechniqueTree, ActionRead); err != nil {
		return nil, err
	}

	techniques, err := s.techniques.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildTree(techniques, nil), nil
}

// buildTree nests techniques under their parents. Siblings are ordered by lft.
func (s *TechniqueService) buildTree(techniques []*model.Technique, media map[string][]*model.TechniqueMediaItem) []*model.TechniqueNode {
	sorted := make([]*model.Technique, len(techniques))
	copy(sorted, techniques)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TreeID != sorted[j].TreeID {
			return sorted[i].TreeID < sorted[j].TreeID
		}
		return sorted[i].Lft < sorted[j].Lft
	})

	byID := make(map[string]*model.TechniqueNode, len(sorted))
	roots := make([]*model.TechniqueNode, 0)
	for _, t := range sorted {
		resources := t.Resources
		if resources == nil {
			resources = []model.Resource{}
		}
		attached := media[t.Slug]
		if attached == nil {
			attached = []*model.TechniqueMediaItem{}
		}
		node := &model.TechniqueNode{
			ID:        t.Slug,
			Title:     t.Title,
			Status:    t.Status,
			Notes:     t.Notes,
			Resources: resources,
			Media:     attached,
			Children:  []*model.TechniqueNode{},
		}
		byID[t.ID] = node

		if t.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[*t.ParentID]
		if !ok {
			s.logger.Warn("technique parent missing from tree order",
				slog.String("slug", t.Slug),
				slog.String("parent_id", *t.ParentID),
			)
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}

// AuthorizeAddMedia checks that p may attach media, before any request body
// is read
func (s *TechniqueService) AuthorizeAddMedia(p *model.Principal) error {
	return authorize(s.authz, p, ObjectTechniqueMedia, ActionCreate)
}

// AddMedia attaches a media item to a technique. Superuser only.
func (s *TechniqueService) AddMedia(ctx context.Context, p *model.Principal, slug string, req *model.AddTechniqueMediaRequest) (*model.TechniqueMediaItem, error) {
	if err := authorize(s.authz, p, ObjectTechniqueMedia, ActionCreate); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(req.MediaFriendlyToken)
	if token == "" {
		return nil, ErrMediaTokenRequired
	}
	if utf8.RuneCountInString(req.TitleOverride) > model.MaxTitleOverrideLength {
		return nil, ErrTitleOverrideTooLong
	}

	technique, err := s.techniques.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if technique == nil {
		return nil, ErrTechniqueNotFound
	}

	media, err := s.media.GetByFriendlyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, ErrMediaNotFound
	}

	existing, err := s.links.Get(ctx, technique.ID, media.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTechniqueMediaExists
	}

	link := &model.TechniqueMedia{
		TechniqueID:   technique.ID,
		MediaID:       media.ID,
		AddedByID:     p.UserID,
		TitleOverride: req.TitleOverride,
	}
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrTechniqueMediaExists
		}
		return nil, err
	}

	metrics.RecordTechniqueMutation("media_added")
	s.logger.Info("media attached to technique",
		slog.String("technique", technique.Slug),
		slog.String("media", media.FriendlyToken),
		slog.String("user_id", p.UserID),
	)

	title := media.Title
	if link.TitleOverride != "" {
		title = link.TitleOverride
	}
	return &model.TechniqueMediaItem{
		FriendlyToken: media.FriendlyToken,
		Title:         title,
		ThumbnailURL:  media.ThumbnailURL,
		URL:           media.AbsoluteURL(),
		AddedBy:       p.Username,
		AddDate:       link.AddDate,
		TechniqueID:   technique.Slug,
		TitleOverride: link.TitleOverride,
	}, nil
}

// RemoveMedia detaches a media item from a technique. Superuser only.
func (s *TechniqueService) RemoveMedia(ctx context.Context, p *model.Principal, slug, token string) error {
	if err := authorize(s.authz, p, ObjectTechniqueMedia, ActionDelete); err != nil {
		return err
	}

	technique, err := s.techniques.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if technique == nil {
		return ErrTechniqueNotFound
	}

	media, err := s.media.GetByFriendlyToken(ctx, token)
	if err != nil {
		return err
	}
	if media == nil {
		return ErrMediaNotFound
	}

	link, err := s.links.Get(ctx, technique.ID, media.ID)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrTechniqueMediaNotFound
	}

	if err := s.links.Delete(ctx, link.ID); err != nil {
		return err
	}
	metrics.RecordTechniqueMutation("media_removed")
	return nil
}

// AuthorizeCreateCategory checks that p may create categories
func (s *TechniqueService) AuthorizeCreateCategory(p *model.Principal) error {
	return authorize(s.authz, p, ObjectTechniqueCategories, ActionCreate)
}

// CreateCategory adds a technique as the last child of req.ParentID, or as a
// new root when ParentID is empty, and renumbers the tree. Superuser only.
func (s *TechniqueService) CreateCategory(ctx context.Context, p *model.Principal, req *model.CreateTechniqueCategoryRequest) (*model.TechniqueCategoryResponse, error) {
	if err := authorize(s.authz, p, ObjectTechniqueCategories, ActionCreate); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTechniqueTitleRequired
	}
	if utf8.RuneCountInString(title) > model.MaxTechniqueTitleLength {
		return nil, ErrTechniqueTitleTooLong
	}
	if taxonomy.Slugify(title) == "" {
		return nil, ErrTechniqueTitleInvalid
	}

	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	var parent *model.Technique
	parentSlug := strings.TrimSpace(req.ParentID)
	if parentSlug != "" {
		var err error
		parent, err = s.techniques.GetBySlug(ctx, parentSlug)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrParentNotFound
		}
	}

	var slug string
	if parent != nil {
		slug = taxonomy.ChildSlug(parent.Slug, title)
	} else {
		slug = taxonomy.ChildSlug("", title)
	}
	if len(slug) > model.MaxTechniqueSlugLength {
		return nil, ErrTechniqueSlugTooLong
	}

	existing, err := s.techniques.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTechniqueExists
	}

	forest, before, err := s.loadForest(ctx)
	if err != nil {
		return nil, err
	}

	const pendingKey = "\x00pending"
	node := mptt.Node{Key: pendingKey}
	if parent != nil {
		node.ParentKey = parent.ID
	}
	placed, err := forest.Append(node)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTechniqueTreeCorrupt, err)
	}

	technique := &model.Technique{
		Title:     title,
		Slug:      slug,
		Resources: []model.Resource{},
		Lft:       placed.Lft,
		Rght:      placed.Rght,
		TreeID:    placed.TreeID,
		Level:     placed.Level,
	}
	if parent != nil {
		technique.ParentID = &parent.ID
	}
	shifted := changedFields(forest, before, pendingKey)
	if err := s.techniques.CreateInTree(ctx, technique, shifted); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrTechniqueExists
		}
		return nil, err
	}

	metrics.RecordTechniqueMutation("category_created")
	s.logger.Info("technique category created",
		slog.String("slug", slug),
		slog.Int("tree_id", technique.TreeID),
		slog.Int("level", technique.Level),
	)

	resp := &model.TechniqueCategoryResponse{
		ID:    slug,
		Title: title,
		Level: technique.Level,
	}
	if parent != nil {
		resp.ParentID = &parent.Slug
	}
	return resp, nil
}

// DeleteTechnique removes a technique, its whole subtree and every media
// association of the removed nodes, then renumbers. Superuser only.
func (s *TechniqueService) DeleteTechnique(ctx context.Context, p *model.Principal, slug string) error {
	if err := authorize(s.authz, p, ObjectTechniques, ActionDelete); err != nil {
		return err
	}

	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	technique, err := s.techniques.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if technique == nil {
		return ErrTechniqueNotFound
	}

	forest, before, err := s.loadForest(ctx)
	if err != nil {
		return err
	}
	removed, err := forest.Remove(technique.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTechniqueTreeCorrupt, err)
	}

	if err := s.techniques.DeleteInTree(ctx, removed, changedFields(forest, before, "")); err != nil {
		return err
	}

	metrics.RecordTechniqueMutation("technique_deleted")
	s.logger.Info("technique deleted",
		slog.String("slug", slug),
		slog.Int("removed", len(removed)),
	)
	return nil
}

// ImportSeed creates the techniques of doc in an empty taxonomy and returns
// how many were created
func (s *TechniqueService) ImportSeed(ctx context.Context, doc *taxonomy.Document) (int, error) {
	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	existing, err := s.techniques.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, ErrTaxonomyNotEmpty
	}

	ids, err := migrate.CreateTechniques(ctx, s.techniques, doc)
	if err != nil {
		// the taxonomy was empty, so everything present was written by this call
		if cleanupErr := s.techniques.DeleteAll(ctx); cleanupErr != nil {
			s.logger.Error("failed to clear partial technique import",
				slog.String("error", cleanupErr.Error()),
			)
		}
		if errors.Is(err, database.ErrDuplicate) {
			return 0, ErrTechniqueExists
		}
		return 0, err
	}
	return len(ids), nil
}

// loadForest builds the stored techniques into a forest keyed by record ID.
// The stored bookkeeping is returned alongside for change detection.
func (s *TechniqueService) loadForest(ctx context.Context) (*mptt.Forest, []mptt.Node, error) {
	techniques, err := s.techniques.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	sort.SliceStable(techniques, func(i, j int) bool {
		if techniques[i].TreeID != techniques[j].TreeID {
			return techniques[i].TreeID < techniques[j].TreeID
		}
		return techniques[i].Lft < techniques[j].Lft
	})

	stored := make([]mptt.Node, 0, len(techniques))
	for _, t := range techniques {
		n := mptt.Node{
			Key:    t.ID,
			Lft:    t.Lft,
			Rght:   t.Rght,
			TreeID: t.TreeID,
			Level:  t.Level,
		}
		if t.ParentID != nil {
			n.ParentKey = *t.ParentID
		}
		stored = append(stored, n)
	}

	forest, err := mptt.Build(stored)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTechniqueTreeCorrupt, err)
	}
	return forest, stored, nil
}

// persistChanged writes the bookkeeping of every node whose counters moved
func (s *TechniqueService) persistChanged(ctx context.Context, forest *mptt.Forest, before []mptt.Node) error {
	fields := changedFields(forest, before, "")
	if len(fields) == 0 {
		return nil
	}
	return s.techniques.UpdateTreeFields(ctx, fields)
}

// changedFields lists the bookkeeping of every node whose counters moved.
// skip names a node written separately.
func changedFields(forest *mptt.Forest, before []mptt.Node, skip string) []model.TreeFields {
	changed := forest.Changed(before)
	fields := make([]model.TreeFields, 0, len(changed))
	for _, n := range changed {
		if n.Key == skip {
			continue
		}
		fields = append(fields, model.TreeFields{
			ID:     n.Key,
			Lft:    n.Lft,
			Rght:   n.Rght,
			TreeID: n.TreeID,
			Level:  n.Level,
		})
	}
	return fields
}
