package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlane/threadlane-backend/pkg/enums"
)

// CartItem is one (product, size) line in a cart. The unique index collapses
// repeated adds into a single row.
type CartItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_product_size"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_product_size"`
	Product   *Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Quantity  int        `gorm:"column:quantity;not null;default:1"`
	Size      enums.Size `gorm:"column:size;not null;uniqueIndex:idx_cart_product_size"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Cost is the live product price multiplied by the quantity. Returns zero when
// the product is not loaded.
func (i CartItem) Cost() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
