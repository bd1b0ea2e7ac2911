package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlane/threadlane-backend/pkg/db/models"
	"github.com/threadlane/threadlane-backend/pkg/enums"
)

// Owner identifies which shopper a cart belongs to. Exactly one of UserID or
// SessionToken must be set.
type Owner struct {
	UserID       *uuid.UUID
	SessionToken *string
}

// Valid reports whether the owner has exactly one identity.
func (o Owner) Valid() bool {
	return (o.UserID != nil) != (o.SessionToken != nil)
}

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	Size      enums.Size `json:"size" validate:"required"`
	Quantity  int        `json:"quantity"`
}

// UpdateItemRequest is the payload for changing a cart line's quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartItemDTO is the transport shape for one cart line.
type CartItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	ImageURL    string          `json:"image_url"`
	Size        enums.Size      `json:"size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CartDTO is the transport shape for the whole cart.
type CartDTO struct {
	ID         uuid.UUID       `json:"id"`
	Items      []CartItemDTO   `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func fromModel(cart *models.Cart) *CartDTO {
	if cart == nil {
		return &CartDTO{Items: []CartItemDTO{}, TotalPrice: decimal.Zero}
	}

	items := make([]CartItemDTO, 0, len(cart.Items))
	for i := range cart.Items {
		items = append(items, itemFromModel(&cart.Items[i]))
	}

	return &CartDTO{
		ID:         cart.ID,
		Items:      items,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
}

func itemFromModel(item *models.CartItem) CartItemDTO {
	dto := CartItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Size:      item.Size,
		Quantity:  item.Quantity,
		LineTotal: item.Cost(),
	}
	if item.Product != nil {
		dto.ProductName = item.Product.Name
		dto.ProductSlug = item.Product.Slug
		dto.ImageURL = item.Product.ImageURL
		dto.UnitPrice = item.Product.Price
	}
	return dto
}
