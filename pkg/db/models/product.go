package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlane/threadlane-backend/pkg/enums"
)

// Product represents a catalog listing.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	Category    *Category        `gorm:"foreignKey:CategoryID"`
	Name        string           `gorm:"column:name;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex"`
	Description string           `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	OldPrice    *decimal.Decimal `gorm:"column:old_price;type:numeric(10,2)"`
	ImageURL    string           `gorm:"column:image_url;not null;default:''"`
	Stock       int              `gorm:"column:stock;not null;default:10"`
	Available   bool             `gorm:"column:available;not null;default:true"`
	SizeS       bool             `gorm:"column:size_s;not null;default:true"`
	SizeM       bool             `gorm:"column:size_m;not null;default:true"`
	SizeL       bool             `gorm:"column:size_l;not null;default:true"`
	SizeXL      bool             `gorm:"column:size_xl;not null;default:true"`
	SizeXXL     bool             `gorm:"column:size_xxl;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableSizes derives the offerable sizes from the per-size flags.
func (p Product) AvailableSizes() []enums.Size {
	flags := map[enums.Size]bool{
		enums.SizeS:   p.SizeS,
		enums.SizeM:   p.SizeM,
		enums.SizeL:   p.SizeL,
		enums.SizeXL:  p.SizeXL,
		enums.SizeXXL: p.SizeXXL,
	}
	sizes := make([]enums.Size, 0, len(flags))
	for _, size := range enums.AllSizes() {
		if flags[size] {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// OffersSize reports whether the product can be sold in the given size.
func (p Product) OffersSize(size enums.Size) bool {
	for _, s := range p.AvailableSizes() {
		if s == size {
			return true
		}
	}
	return false
}
