package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/blogsphere/core/internal/pkg/slug"
	"github.com/blogsphere/core/internal/pkg/validate"
	"github.com/blogsphere/core/internal/store"
)

type CreateCategoryDTO struct {
	Name        string `json:"name"        binding:"required,max=50" label:"Category name"`
	Description string `json:"description" binding:"max=200"         label:"Description"`
}

type Service struct {
	categories store.CategoryStore
}

func NewService(categories store.CategoryStore) *Service {
	return &Service{categories: categories}
}

// Exists reports whether id names a stored category. Malformed ids simply
// do not exist.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if !models.IsObjectID(id) {
		return false, nil
	}
	_, err := s.categories.FindCategoryByID(ctx, models.NormalizeID(id))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns every category sorted by name.
func (s *Service) List(ctx context.Context) ([]models.CategoryModel, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.CategoryModel, error) {
	cat, err := s.categories.FindCategoryByID(ctx, models.NormalizeID(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return cat, nil
}

func (s *Service) Create(ctx context.Context, dto *CreateCategoryDTO) (*models.CategoryModel, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}
	cat := &models.CategoryModel{
		Base:        models.Base{ID: models.NewID()},
		Name:        dto.Name,
		Description: dto.Description,
	}
	cat.Slug = slug.Generate(dto.Name)
	if cat.Slug == "" {
		cat.Slug = cat.ID
	}
	err := s.categories.CreateCategory(ctx, cat)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Category with this name already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}
