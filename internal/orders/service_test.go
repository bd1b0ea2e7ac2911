package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/threadlane/threadlane-backend/pkg/db/models"
	"github.com/threadlane/threadlane-backend/pkg/enums"
	pkgerrors "github.com/threadlane/threadlane-backend/pkg/errors"
	"github.com/threadlane/threadlane-backend/pkg/pagination"
)

type stubOrderRepo struct {
	byID   map[uuid.UUID]*models.Order
	byUser map[uuid.UUID][]models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		byID:   make(map[uuid.UUID]*models.Order),
		byUser: make(map[uuid.UUID][]models.Order),
	}
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, _ pagination.Params) (*ListResult, error) {
	return &ListResult{Orders: s.byUser[userID]}, nil
}

func (s *stubOrderRepo) add(order *models.Order) {
	s.byID[order.ID] = order
	if order.UserID != nil {
		s.byUser[*order.UserID] = append(s.byUser[*order.UserID], *order)
	}
}

func paidOrder(userID *uuid.UUID) *models.Order {
	paymentID := "pay_test123"
	return &models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		FirstName:   "Asha",
		LastName:    "Rao",
		Email:       "asha@example.com",
		Address:     "12 MG Road",
		City:        "Bengaluru",
		PostalCode:  "560001",
		Paid:        true,
		TotalAmount: decimal.NewFromInt(1998),
		PaymentID:   &paymentID,
		Items: []models.OrderItem{
			{
				ID:          uuid.New(),
				ProductName: "Graphite Crew Tee",
				Price:       decimal.NewFromInt(999),
				Quantity:    2,
				Size:        enums.SizeM,
			},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func assertOrderCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", want)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != want {
		t.Fatalf("expected code %s, got %s (%s)", want, typed.Code(), typed.Message())
	}
}

func TestGetOrderReturnsOwnedOrder(t *testing.T) {
	repo := newStubOrderRepo()
	userID := uuid.New()
	order := paidOrder(&userID)
	repo.add(order)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.GetOrder(context.Background(), userID, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("expected order %s, got %s", order.ID, got.ID)
	}
	if !got.Paid {
		t.Fatalf("expected paid order")
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	if !got.Items[0].LineTotal.Equal(decimal.NewFromInt(1998)) {
		t.Fatalf("expected line total 1998, got %s", got.Items[0].LineTotal)
	}
}

func TestGetOrderForeignOwnerReportsNotFound(t *testing.T) {
	repo := newStubOrderRepo()
	ownerID := uuid.New()
	order := paidOrder(&ownerID)
	repo.add(order)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetOrder(context.Background(), uuid.New(), order.ID)
	assertOrderCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetOrderGuestOrderHiddenFromUsers(t *testing.T) {
	repo := newStubOrderRepo()
	order := paidOrder(nil)
	repo.add(order)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetOrder(context.Background(), uuid.New(), order.ID)
	assertOrderCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetOrderUnknownIDReportsNotFound(t *testing.T) {
	svc, err := NewService(newStubOrderRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetOrder(context.Background(), uuid.New(), uuid.New())
	assertOrderCode(t, err, pkgerrors.CodeNotFound)
}

func TestListOrdersMapsPage(t *testing.T) {
	repo := newStubOrderRepo()
	userID := uuid.New()
	repo.add(paidOrder(&userID))
	repo.add(paidOrder(&userID))

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	page, err := svc.ListOrders(context.Background(), userID, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(page.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(page.Orders))
	}
}

func TestListOrdersRequiresUser(t *testing.T) {
	svc, err := NewService(newStubOrderRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.ListOrders(context.Background(), uuid.Nil, pagination.Params{})
	assertOrderCode(t, err, pkgerrors.CodeValidation)
}
