package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/threadlane/threadlane-backend/internal/cart"
	"github.com/threadlane/threadlane-backend/internal/orders"
	"github.com/threadlane/threadlane-backend/pkg/db"
	"github.com/threadlane/threadlane-backend/pkg/db/models"
	pkgerrors "github.com/threadlane/threadlane-backend/pkg/errors"
	"github.com/threadlane/threadlane-backend/pkg/metrics"
	"github.com/threadlane/threadlane-backend/pkg/razorpay"
)

const defaultMaxQuantity = 99

type paymentGateway interface {
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

type pendingStore interface {
	Save(ctx context.Context, gatewayOrderID string, pending PendingCheckout) error
	Load(ctx context.Context, gatewayOrderID string) (*PendingCheckout, error)
	Delete(ctx context.Context, gatewayOrderID string) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the two-step payment flow: stage a gateway order from the
// cart (or a single product), then confirm the callback and persist the order.
type Service interface {
	CreateOrder(ctx context.Context, owner cart.Owner, req CheckoutRequest) (*CheckoutResponse, error)
	BuyNow(ctx context.Context, owner cart.Owner, req BuyNowRequest) (*CheckoutResponse, error)
	Confirm(ctx context.Context, owner cart.Owner, req ConfirmRequest) (*ConfirmResponse, error)
}

type service struct {
	orders      *orders.Repository
	carts       cart.CartRepository
	products    productLoader
	pending     pendingStore
	gateway     paymentGateway
	tx          txRunner
	metrics     *metrics.CheckoutMetrics
	currency    string
	keyID       string
	maxQuantity int
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Orders      *orders.Repository
	Carts       cart.CartRepository
	Products    productLoader
	Pending     pendingStore
	Gateway     paymentGateway
	TxRunner    txRunner
	Metrics     *metrics.CheckoutMetrics
	Currency    string
	KeyID       string
	MaxQuantity int
}

// NewService wires the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil || params.Carts == nil || params.Products == nil {
		return nil, errors.New("orders, carts and products dependencies are required")
	}
	if params.Pending == nil {
		return nil, errors.New("pending checkout store is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("payment gateway is required")
	}
	if params.TxRunner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if strings.TrimSpace(params.Currency) == "" {
		return nil, errors.New("checkout currency is required")
	}
	maxQuantity := params.MaxQuantity
	if maxQuantity <= 0 {
		maxQuantity = defaultMaxQuantity
	}
	return &service{
		orders:      params.Orders,
		carts:       params.Carts,
		products:    params.Products,
		pending:     params.Pending,
		gateway:     params.Gateway,
		tx:          params.TxRunner,
		metrics:     params.Metrics,
		currency:    params.Currency,
		keyID:       params.KeyID,
		maxQuantity: maxQuantity,
	}, nil
}

// CreateOrder stages a gateway order for the owner's cart. The cart itself is
// left untouched until the payment callback is confirmed.
func (s *service) CreateOrder(ctx context.Context, owner cart.Owner, req CheckoutRequest) (*CheckoutResponse, error) {
	started := time.Now()
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if err := validateBuyer(req); err != nil {
		return nil, err
	}

	crt, err := s.findCart(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(crt.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	items := make([]PendingItem, 0, len(crt.Items))
	for _, item := range crt.Items {
		if item.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart item is missing its product")
		}
		items = append(items, PendingItem{
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Price:       item.Product.Price,
			Quantity:    item.Quantity,
			Size:        item.Size,
		})
	}

	total := crt.TotalPrice()
	pending := PendingCheckout{
		UserID:       owner.UserID,
		SessionToken: owner.SessionToken,
		CartID:       &crt.ID,
		TotalAmount:  total,
		Items:        items,
	}
	resp, err := s.stageOrder(ctx, req, &pending, crt.ID.String())
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStep("order", time.Since(started))
	return resp, nil
}

// BuyNow stages a gateway order for a single product without involving the
// cart.
func (s *service) BuyNow(ctx context.Context, owner cart.Owner, req BuyNowRequest) (*CheckoutResponse, error) {
	started := time.Now()
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if err := validateBuyer(req.CheckoutRequest); err != nil {
		return nil, err
	}
	if !req.Size.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown size "+string(req.Size))
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}
	if !product.Available {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if !product.OffersSize(req.Size) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size "+string(req.Size)+" is not offered for this product")
	}

	quantity := s.clampQuantity(req.Quantity)
	total := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
	pending := PendingCheckout{
		UserID:       owner.UserID,
		SessionToken: owner.SessionToken,
		TotalAmount:  total,
		Items: []PendingItem{{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    quantity,
			Size:        req.Size,
		}},
	}
	resp, err := s.stageOrder(ctx, req.CheckoutRequest, &pending, product.ID.String())
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStep("buy_now", time.Since(started))
	return resp, nil
}

// Confirm verifies the gateway's payment signature, then persists the order
// and clears the originating cart in one transaction. Replays of an already
// confirmed payment return the existing order.
func (s *service) Confirm(ctx context.Context, owner cart.Owner, req ConfirmRequest) (*ConfirmResponse, error) {
	started := time.Now()
	if req.GatewayOrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id, payment id and signature are required")
	}

	if !s.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
		s.metrics.IncVerifyFailures()
		return nil, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature verification failed")
	}

	pending, err := s.pending.Load(ctx, req.GatewayOrderID)
	if err != nil {
		if errors.Is(err, ErrPendingNotFound) {
			return s.confirmedReplay(ctx, owner, req.GatewayOrderID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pending checkout")
	}
	if !ownerMatches(pending, owner) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
	}

	order := &models.Order{
		UserID:           pending.UserID,
		FirstName:        pending.FirstName,
		LastName:         pending.LastName,
		Email:            pending.Email,
		Address:          pending.Address,
		City:             pending.City,
		PostalCode:       pending.PostalCode,
		Paid:             true,
		TotalAmount:      pending.TotalAmount,
		PaymentID:        &req.PaymentID,
		GatewayOrderID:   &req.GatewayOrderID,
		PaymentSignature: &req.Signature,
		Items:            orderItemsFromPending(pending.Items),
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, cerr := s.orders.WithTx(tx).Create(ctx, order); cerr != nil {
			return cerr
		}
		if pending.CartID != nil {
			txCarts := s.carts.WithTx(tx)
			if derr := txCarts.DeleteItems(ctx, *pending.CartID); derr != nil {
				return derr
			}
			if derr := txCarts.Delete(ctx, *pending.CartID); derr != nil {
				return derr
			}
		}
		return nil
	})
	if txErr != nil {
		// Concurrent confirmation of the same payment; hand back the winner.
		if db.IsUniqueViolation(txErr) {
			return s.confirmedReplay(ctx, owner, req.GatewayOrderID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "confirm order")
	}

	_ = s.pending.Delete(ctx, req.GatewayOrderID)
	s.metrics.IncOrdersConfirmed()
	s.metrics.ObserveStep("confirm", time.Since(started))
	return &ConfirmResponse{OrderID: order.ID, Paid: order.Paid}, nil
}

// stageOrder registers the order with the gateway and stages the pending
// checkout under the returned gateway order id.
func (s *service) stageOrder(ctx context.Context, buyer CheckoutRequest, pending *PendingCheckout, receipt string) (*CheckoutResponse, error) {
	paise := toPaise(pending.TotalAmount)
	if paise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		Amount:   paise,
		Currency: s.currency,
		Receipt:  receipt,
	})
	if err != nil {
		s.metrics.IncGatewayFailures()
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "create gateway order")
	}

	pending.FirstName = buyer.FirstName
	pending.LastName = buyer.LastName
	pending.Email = strings.ToLower(strings.TrimSpace(buyer.Email))
	pending.Address = buyer.Address
	pending.City = buyer.City
	pending.PostalCode = buyer.PostalCode
	pending.AmountPaise = paise
	pending.Currency = s.currency
	pending.CreatedAt = time.Now().UTC()

	if err := s.pending.Save(ctx, gatewayOrder.ID, *pending); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stage checkout")
	}

	s.metrics.IncOrdersCreated()
	return &CheckoutResponse{
		GatewayOrderID: gatewayOrder.ID,
		AmountPaise:    paise,
		Currency:       s.currency,
		KeyID:          s.keyID,
	}, nil
}

// confirmedReplay resolves a confirmation whose pending state is gone by
// looking up the order that was already written for the gateway order id.
func (s *service) confirmedReplay(ctx context.Context, owner cart.Owner, gatewayOrderID string) (*ConfirmResponse, error) {
	existing, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout expired or not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup confirmed order")
	}
	if existing.UserID != nil && (owner.UserID == nil || *owner.UserID != *existing.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
	}
	return &ConfirmResponse{OrderID: existing.ID, Paid: existing.Paid}, nil
}

func (s *service) findCart(ctx context.Context, owner cart.Owner) (*models.Cart, error) {
	if owner.UserID != nil {
		return s.carts.FindByUser(ctx, *owner.UserID)
	}
	return s.carts.FindBySessionToken(ctx, *owner.SessionToken)
}

func (s *service) clampQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	if quantity > s.maxQuantity {
		return s.maxQuantity
	}
	return quantity
}

func validateBuyer(req CheckoutRequest) error {
	switch {
	case strings.TrimSpace(req.FirstName) == "",
		strings.TrimSpace(req.LastName) == "",
		strings.TrimSpace(req.Email) == "",
		strings.TrimSpace(req.Address) == "",
		strings.TrimSpace(req.City) == "",
		strings.TrimSpace(req.PostalCode) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "all shipping fields are required")
	}
	return nil
}

func ownerMatches(pending *PendingCheckout, owner cart.Owner) bool {
	if pending.UserID != nil {
		return owner.UserID != nil && *owner.UserID == *pending.UserID
	}
	if pending.SessionToken != nil {
		return owner.SessionToken != nil && *owner.SessionToken == *pending.SessionToken
	}
	return true
}

func orderItemsFromPending(items []PendingItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		productID := item.ProductID
		out = append(out, models.OrderItem{
			ProductID:   &productID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
			Size:        item.Size,
		})
	}
	return out
}

// toPaise converts a rupee amount into the integer minor units the gateway
// expects.
func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
