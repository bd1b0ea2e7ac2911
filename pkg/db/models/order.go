package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a confirmed purchase. It is created only after the payment
// gateway's signature has been verified. TotalAmount is snapshotted at
// checkout time and never recomputed.
type Order struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           *uuid.UUID      `gorm:"column:user_id;type:uuid;index"`
	FirstName        string          `gorm:"column:first_name;not null"`
	LastName         string          `gorm:"column:last_name;not null"`
	Email            string          `gorm:"column:email;not null"`
	Address          string          `gorm:"column:address;not null"`
	City             string          `gorm:"column:city;not null"`
	PostalCode       string          `gorm:"column:postal_code;not null"`
	Paid             bool            `gorm:"column:paid;not null;default:false"`
	TotalAmount      decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2);not null;default:0"`
	PaymentID        *string         `gorm:"column:payment_id"`
	GatewayOrderID   *string         `gorm:"column:gateway_order_id;uniqueIndex"`
	PaymentSignature *string         `gorm:"column:payment_signature"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
