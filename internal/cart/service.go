package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadlane/threadlane-backend/pkg/db"
	"github.com/threadlane/threadlane-backend/pkg/db/models"
	"github.com/threadlane/threadlane-backend/pkg/enums"
	pkgerrors "github.com/threadlane/threadlane-backend/pkg/errors"
)

const defaultMaxQuantity = 99

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for both anonymous and signed-in shoppers.
type Service interface {
	GetCart(ctx context.Context, owner Owner) (*CartDTO, error)
	AddItem(ctx context.Context, owner Owner, req AddItemRequest) (*CartDTO, error)
	UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, req UpdateItemRequest) (*CartDTO, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartDTO, error)
	MergeIntoUser(ctx context.Context, sessionToken string, userID uuid.UUID) error
}

type service struct {
	repo        CartRepository
	tx          txRunner
	products    productLoader
	maxQuantity int
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo        CartRepository
	TxRunner    txRunner
	Products    productLoader
	MaxQuantity int
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	maxQty := params.MaxQuantity
	if maxQty <= 0 {
		maxQty = defaultMaxQuantity
	}
	return &service{
		repo:        params.Repo,
		tx:          params.TxRunner,
		products:    params.Products,
		maxQuantity: maxQty,
	}, nil
}

// GetCart returns the owner's cart, or an empty cart when none exists yet.
func (s *service) GetCart(ctx context.Context, owner Owner) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}

	cart, err := s.findCart(ctx, s.repo, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fromModel(nil), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return fromModel(cart), nil
}

// AddItem puts a (product, size) line into the cart, merging quantities when
// the line already exists.
func (s *service) AddItem(ctx context.Context, owner Owner, req AddItemRequest) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if !req.Size.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown size "+string(req.Size))
	}
	quantity := s.clampQuantity(req.Quantity)

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

	cart, err := s.getOrCreateCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		return s.upsertItem(ctx, repo, cart.ID, req.ProductID, req.Size, quantity)
	})
	if txErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "add cart item")
	}

	return s.reload(ctx, owner)
}

// UpdateItem sets the quantity of a line the owner holds.
func (s *service) UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, req UpdateItemRequest) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.ownedItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, s.clampQuantity(req.Quantity)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return s.reload(ctx, owner)
}

// RemoveItem deletes a line the owner holds.
func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}

	item, err := s.ownedItem(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return s.reload(ctx, owner)
}

// MergeIntoUser folds an anonymous session cart into the user's cart. The
// session cart is deleted afterwards. A missing session cart is not an error.
func (s *service) MergeIntoUser(ctx context.Context, sessionToken string, userID uuid.UUID) error {
	if sessionToken == "" || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session token and user id are required")
	}

	sessionCart, err := s.repo.FindBySessionToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session cart")
	}
	if len(sessionCart.Items) == 0 {
		if err := s.repo.Delete(ctx, sessionCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "discard empty session cart")
		}
		return nil
	}

	userCart, err := s.getOrCreateCart(ctx, Owner{UserID: &userID})
	if err != nil {
		return err
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range sessionCart.Items {
			item := sessionCart.Items[i]
			if err := s.upsertItem(ctx, repo, userCart.ID, item.ProductID, item.Size, item.Quantity); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, sessionCart.ID)
	})
	if txErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "merge session cart")
	}
	return nil
}

func (s *service) findCart(ctx context.Context, repo CartRepository, owner Owner) (*models.Cart, error) {
	if owner.UserID != nil {
		return repo.FindByUser(ctx, *owner.UserID)
	}
	return repo.FindBySessionToken(ctx, *owner.SessionToken)
}

func (s *service) getOrCreateCart(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart, err := s.findCart(ctx, s.repo, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{
		UserID:       owner.UserID,
		SessionToken: owner.SessionToken,
	})
	if err != nil {
		// Concurrent request may have created the cart already.
		if db.IsUniqueViolation(err) {
			return s.loadExisting(ctx, owner)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return created, nil
}

func (s *service) loadExisting(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart, err := s.findCart(ctx, s.repo, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

// upsertItem merges quantity into the (cart, product, size) line, creating it
// when absent. Runs inside the caller's transaction.
func (s *service) upsertItem(ctx context.Context, repo CartRepository, cartID, productID uuid.UUID, size enums.Size, quantity int) error {
	existing, err := repo.FindItem(ctx, cartID, productID, size)
	if err == nil {
		return repo.UpdateItemQuantity(ctx, existing.ID, s.clampQuantity(existing.Quantity+quantity))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	_, err = repo.CreateItem(ctx, &models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Size:      size,
		Quantity:  s.clampQuantity(quantity),
	})
	if err != nil && db.IsUniqueViolation(err) {
		// Lost the insert race; fold into the winning row.
		winner, findErr := repo.FindItem(ctx, cartID, productID, size)
		if findErr != nil {
			return findErr
		}
		return repo.UpdateItemQuantity(ctx, winner.ID, s.clampQuantity(winner.Quantity+quantity))
	}
	return err
}

func (s *service) ownedItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := s.findCart(ctx, s.repo, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	item, err := s.repo.FindItemInCart(ctx, itemID, cart.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	return item, nil
}

func (s *service) reload(ctx context.Context, owner Owner) (*CartDTO, error) {
	cart, err := s.findCart(ctx, s.repo, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return fromModel(cart), nil
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
