package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadlane/threadlane-backend/pkg/db/models"
	pkgerrors "github.com/threadlane/threadlane-backend/pkg/errors"
)

// Service defines the behavior needed by the catalog controllers.
type Service interface {
	ListProducts(ctx context.Context, query ListQuery) (*ProductListResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID, slug string) (*ProductDetailDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

type catalogRepository interface {
	ListAvailable(ctx context.Context, query ListQuery) (*ListResult, error)
	FindAvailableByIDAndSlug(ctx context.Context, id uuid.UUID, slug string) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type service struct {
	repo catalogRepository
}

// NewService constructs a catalog service with the provided repository.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, query ListQuery) (*ProductListResponse, error) {
	if query.CategorySlug != "" {
		if _, err := s.repo.FindCategoryBySlug(ctx, query.CategorySlug); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
		}
	}

	result, err := s.repo.ListAvailable(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	products := make([]ProductSummaryDTO, 0, len(result.Products))
	for i := range result.Products {
		products = append(products, summaryFromModel(&result.Products[i]))
	}

	return &ProductListResponse{
		Products:   products,
		NextCursor: result.NextCursor,
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID, slug string) (*ProductDetailDTO, error) {
	if id == uuid.Nil || slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and slug are required")
	}

	product, err := s.repo.FindAvailableByIDAndSlug(ctx, id, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}

	return detailFromModel(product), nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}

	categories := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		categories = append(categories, *categoryFromModel(&rows[i]))
	}
	return categories, nil
}
