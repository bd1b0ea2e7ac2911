package checkout

import (
	"github.com/google/uuid"

	"github.com/threadlane/threadlane-backend/pkg/enums"
)

// CheckoutRequest carries the buyer details collected at checkout.
type CheckoutRequest struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// BuyNowRequest checks out a single product without touching the cart.
type BuyNowRequest struct {
	CheckoutRequest
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	Size      enums.Size `json:"size" validate:"required"`
	Quantity  int        `json:"quantity"`
}

// CheckoutResponse is returned after a gateway order has been registered. The
// client completes payment against GatewayOrderID using KeyID.
type CheckoutResponse struct {
	GatewayOrderID string `json:"gateway_order_id"`
	AmountPaise    int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
}

// ConfirmRequest carries the gateway's payment callback fields.
type ConfirmRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	Signature      string `json:"razorpay_signature" validate:"required"`
}

// ConfirmResponse reports the persisted order after verification.
type ConfirmResponse struct {
	OrderID uuid.UUID `json:"order_id"`
	Paid    bool      `json:"paid"`
}
