package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlane/threadlane-backend/pkg/db/models"
	"github.com/threadlane/threadlane-backend/pkg/enums"
	"github.com/threadlane/threadlane-backend/pkg/pagination"
)

// ListQuery captures the filters accepted by the product listing.
type ListQuery struct {
	CategorySlug string
	Search       string
	Pagination   pagination.Params
}

// ProductSummaryDTO is the listing shape for a product.
type ProductSummaryDTO struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	Price     decimal.Decimal  `json:"price"`
	OldPrice  *decimal.Decimal `json:"old_price,omitempty"`
	ImageURL  string           `json:"image_url"`
	Sizes     []enums.Size     `json:"sizes"`
	Category  *CategoryDTO     `json:"category,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ProductDetailDTO extends the summary with description and stock data.
type ProductDetailDTO struct {
	ProductSummaryDTO
	Description string `json:"description"`
	Stock       int    `json:"stock"`
	Available   bool   `json:"available"`
}

// CategoryDTO is the transport shape for a category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
}

// ProductListResponse wraps a page of products with its continuation cursor.
type ProductListResponse struct {
	Products   []ProductSummaryDTO `json:"products"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func summaryFromModel(p *models.Product) ProductSummaryDTO {
	return ProductSummaryDTO{
		ID:        p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Price:     p.Price,
		OldPrice:  p.OldPrice,
		ImageURL:  p.ImageURL,
		Sizes:     p.AvailableSizes(),
		Category:  categoryFromModel(p.Category),
		CreatedAt: p.CreatedAt,
	}
}

func detailFromModel(p *models.Product) *ProductDetailDTO {
	if p == nil {
		return nil
	}
	return &ProductDetailDTO{
		ProductSummaryDTO: summaryFromModel(p),
		Description:       p.Description,
		Stock:             p.Stock,
		Available:         p.Available,
	}
}

func categoryFromModel(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
	}
}
