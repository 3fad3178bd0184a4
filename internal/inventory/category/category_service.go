package category

import (
	"context"
	"errors"

	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/schema"

	"go.uber.org/zap"
)

// Store persists category definitions.
type Store interface {
	ListCategories(ctx context.Context) ([]schema.CategoryDefinition, error)
	CreateCategory(ctx context.Context, def schema.CategoryDefinition) (*schema.CategoryDefinition, error)
	UpdateCategory(ctx context.Context, id int, def schema.CategoryDefinition) (*schema.CategoryDefinition, error)
}

// CategoryService keeps the in-process registry in step with the store.
type CategoryService struct {
	store    Store
	registry *schema.Registry
	logger   *zap.Logger
}

func NewCategoryService(store Store, registry *schema.Registry, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		store:    store,
		registry: registry,
		logger:   logger,
	}
}

// List reloads every definition from the store into the registry.
func (s *CategoryService) List(ctx context.Context) ([]schema.CategoryDefinition, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.registry.List(), nil
}

func (s *CategoryService) Create(ctx context.Context, def schema.CategoryDefinition) (*schema.CategoryDefinition, error) {
	def = schema.Normalize(def)
	if err := schema.Validate(def); err != nil {
		return nil, err
	}

	created, err := s.store.CreateCategory(ctx, def)
	if err != nil {
		s.logger.Error("Failed to create category", zap.String("name", def.Name), zap.Error(err))
		return nil, custom_error.WrapCollaboratorError("create category", err)
	}

	if err := s.registry.Register(*created); err != nil {
		s.logger.Warn("Created category rejected by registry", zap.String("name", created.Name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Category created", zap.Int("id", created.ID), zap.String("name", created.Name), zap.String("prefix", created.Prefix))
	return created, nil
}

// Update replaces a definition. Assets keep their stored values; fields
// removed from the schema are reported as unknown on the next edit.
func (s *CategoryService) Update(ctx context.Context, id int, def schema.CategoryDefinition) (*schema.CategoryDefinition, error) {
	def = schema.Normalize(def)
	if err := schema.Validate(def); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateCategory(ctx, id, def)
	if err != nil {
		s.logger.Error("Failed to update category", zap.Int("id", id), zap.Error(err))
		return nil, custom_error.WrapCollaboratorError("update category", err)
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Category updated", zap.Int("id", id), zap.String("name", updated.Name))
	return updated, nil
}

// Resolve looks the category up in the registry and reloads the registry
// from the store once on a miss.
func (s *CategoryService) Resolve(ctx context.Context, name string) (*schema.CategoryDefinition, error) {
	def, err := s.registry.Resolve(name)
	if err == nil {
		return def, nil
	}
	if !errors.Is(err, custom_error.ErrCategoryNotFound) {
		return nil, err
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.registry.Resolve(name)
}

func (s *CategoryService) refresh(ctx context.Context) error {
	defs, err := s.store.ListCategories(ctx)
	if err != nil {
		s.logger.Error("Failed to load categories", zap.Error(err))
		return custom_error.WrapCollaboratorError("list categories", err)
	}

	if err := s.registry.Replace(defs); err != nil {
		s.logger.Warn("Some categories could not be loaded", zap.Error(err))
	}
	return nil
}
