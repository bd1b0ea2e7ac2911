package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/threadlane/threadlane-backend/pkg/errors"
)

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "rzp_test_secret" {
			t.Fatalf("missing or wrong basic auth")
		}

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Amount != 349700 {
			t.Fatalf("expected amount 349700, got %d", req.Amount)
		}
		if req.Currency != "INR" {
			t.Fatalf("expected currency INR, got %s", req.Currency)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Order{
			ID:       "order_Nxy123",
			Amount:   req.Amount,
			Currency: req.Currency,
			Status:   "created",
		})
	}))
	defer server.Close()

	client, err := NewClient("rzp_test_key", "rzp_test_secret", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:   349700,
		Currency: "INR",
		Notes:    map[string]string{"cart_id": "abc"},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "order_Nxy123" {
		t.Fatalf("unexpected order id %s", order.ID)
	}
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"description":"authentication failed"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient("rzp_test_key", "wrong", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, Currency: "INR"})
	if err == nil {
		t.Fatal("expected gateway error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway code, got %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	client, err := NewClient("rzp_test_key", "rzp_test_secret")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 0, Currency: "INR"})
	if err == nil {
		t.Fatal("expected validation error for zero amount")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "rzp_test_secret"
	orderID := "order_Nxy123"
	paymentID := "pay_Mab456"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	valid := hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature(secret, orderID, paymentID, valid) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature(secret, orderID, paymentID, valid+"00") {
		t.Fatal("expected longer signature to fail")
	}
	if VerifySignature(secret, orderID, "pay_other", valid) {
		t.Fatal("expected signature over different payment id to fail")
	}
	if VerifySignature("other-secret", orderID, paymentID, valid) {
		t.Fatal("expected signature under different secret to fail")
	}
	if VerifySignature(secret, orderID, paymentID, "") {
		t.Fatal("expected empty signature to fail")
	}
}
