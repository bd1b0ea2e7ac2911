package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/threadlane/threadlane-backend/pkg/enums"
	redisclient "github.com/threadlane/threadlane-backend/pkg/redis"
)

// ErrPendingNotFound signals that no staged checkout exists for a gateway
// order id, either because it expired or was already consumed.
var ErrPendingNotFound = errors.New("pending checkout not found")

// PendingItem snapshots one cart line at the moment the gateway order was
// created, so confirmation does not depend on the product still existing.
type PendingItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Size        enums.Size      `json:"size"`
}

// PendingCheckout is the full state staged between gateway order creation and
// the payment callback. It is stored in Redis with a TTL so abandoned
// checkouts clean themselves up.
type PendingCheckout struct {
	UserID       *uuid.UUID      `json:"user_id,omitempty"`
	SessionToken *string         `json:"session_token,omitempty"`
	CartID       *uuid.UUID      `json:"cart_id,omitempty"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	PostalCode   string          `json:"postal_code"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	AmountPaise  int64           `json:"amount_paise"`
	Currency     string          `json:"currency"`
	Items        []PendingItem   `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

type pendingBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type pendingKeyer interface {
	PendingCheckoutKey(gatewayOrderID string) string
}

// RedisPendingStore persists pending checkouts in Redis keyed by gateway
// order id.
type RedisPendingStore struct {
	backend pendingBackend
	keyer   pendingKeyer
	ttl     time.Duration
}

// NewRedisPendingStore wires a pending store on top of the shared Redis client.
func NewRedisPendingStore(client *redisclient.Client, ttl time.Duration) (*RedisPendingStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("pending checkout ttl must be positive")
	}
	return &RedisPendingStore{backend: client, keyer: client, ttl: ttl}, nil
}

// Save stages a pending checkout under the gateway order id.
func (s *RedisPendingStore) Save(ctx context.Context, gatewayOrderID string, pending PendingCheckout) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encoding pending checkout: %w", err)
	}
	key := s.keyer.PendingCheckoutKey(gatewayOrderID)
	if err := s.backend.Set(ctx, key, payload, s.ttl); err != nil {
		return fmt.Errorf("storing pending checkout: %w", err)
	}
	return nil
}

// Load returns the staged checkout for a gateway order id, or
// ErrPendingNotFound if it expired or never existed.
func (s *RedisPendingStore) Load(ctx context.Context, gatewayOrderID string) (*PendingCheckout, error) {
	key := s.keyer.PendingCheckoutKey(gatewayOrderID)
	payload, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("loading pending checkout: %w", err)
	}
	var pending PendingCheckout
	if err := json.Unmarshal([]byte(payload), &pending); err != nil {
		return nil, fmt.Errorf("decoding pending checkout: %w", err)
	}
	return &pending, nil
}

// Delete removes a staged checkout once it has been consumed.
func (s *RedisPendingStore) Delete(ctx context.Context, gatewayOrderID string) error {
	return s.backend.Del(ctx, s.keyer.PendingCheckoutKey(gatewayOrderID))
}
