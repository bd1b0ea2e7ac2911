package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlane/threadlane-backend/pkg/db/models"
	"github.com/threadlane/threadlane-backend/pkg/enums"
)

// OrderItemDTO is one purchased line with its snapshotted product data.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Size        enums.Size      `json:"size"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the transport shape for a confirmed order.
type OrderDTO struct {
	ID          uuid.UUID       `json:"id"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	PostalCode  string          `json:"postal_code"`
	Paid        bool            `json:"paid"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaymentID   *string         `json:"payment_id,omitempty"`
	Items       []OrderItemDTO  `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderListResponse wraps a page of orders with its continuation cursor.
type OrderListResponse struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel maps a persisted order onto its transport shape.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}

	items := make([]OrderItemDTO, 0, len(o.Items))
	for i := range o.Items {
		item := o.Items[i]
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
			Size:        item.Size,
			LineTotal:   item.Cost(),
		})
	}

	return &OrderDTO{
		ID:          o.ID,
		FirstName:   o.FirstName,
		LastName:    o.LastName,
		Email:       o.Email,
		Address:     o.Address,
		City:        o.City,
		PostalCode:  o.PostalCode,
		Paid:        o.Paid,
		TotalAmount: o.TotalAmount,
		PaymentID:   o.PaymentID,
		Items:       items,
		CreatedAt:   o.CreatedAt,
	}
}
