package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tempandmajor/commonly-sub007/internal/config"
)

func testClient(baseURL string, retryCount int) Charger {
	return NewClient(config.PaymentConfig{
		BaseURL:    baseURL,
		SecretKey:  "sk_test",
		Timeout:    5 * time.Second,
		RetryCount: retryCount,
		RetryDelay: time.Millisecond,
	}, zap.NewNop())
}

func TestChargeSuccess(t *testing.T) {
	var gotAuth string
	var gotReq chargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Charge{ID: "ch_123", Amount: gotReq.Amount, Currency: gotReq.Currency, Status: "succeeded"})
	}))
	defer srv.Close()

	userID := uuid.New()
	charge, err := testClient(srv.URL, 0).Charge(context.Background(), userID, 50, "USD", "promotion: test")
	if err != nil {
		t.Fatalf("Charge() error = %v", err)
	}
	if charge.ID != "ch_123" || charge.Amount != 50 {
		t.Errorf("charge = %+v, want ch_123 for 50", charge)
	}
	if gotAuth != "Bearer sk_test" {
		t.Errorf("Authorization = %q, want bearer secret", gotAuth)
	}
	if gotReq.UserID != userID.String() || gotReq.Currency != "USD" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestChargeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Charge{ID: "ch_retry", Status: "succeeded"})
	}))
	defer srv.Close()

	charge, err := testClient(srv.URL, 2).Charge(context.Background(), uuid.New(), 10, "USD", "x")
	if err != nil {
		t.Fatalf("Charge() error = %v", err)
	}
	if charge.ID != "ch_retry" {
		t.Errorf("charge.ID = %q, want ch_retry", charge.ID)
	}
	if calls.Load() != 3 {
		t.Errorf("provider hit %d times, want 3", calls.Load())
	}
}

func TestChargeDeclinedNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(providerError{Message: "card declined", Code: "card_declined"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5).Charge(context.Background(), uuid.New(), 10, "USD", "x")
	if !errors.Is(err, ErrChargeDeclined) {
		t.Fatalf("Charge() error = %v, want ErrChargeDeclined", err)
	}
	if calls.Load() != 1 {
		t.Errorf("declined charge retried: %d provider hits, want 1", calls.Load())
	}
}

func TestChargeNoPaymentMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 0).Charge(context.Background(), uuid.New(), 10, "USD", "x")
	if !errors.Is(err, ErrNoPaymentMethod) {
		t.Fatalf("Charge() error = %v, want ErrNoPaymentMethod", err)
	}
}

func TestChargeExhaustedRetriesSurfaceProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(providerError{Message: "maintenance"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 1).Charge(context.Background(), uuid.New(), 10, "USD", "x")
	if err == nil {
		t.Fatal("Charge() error = nil, want provider error")
	}
}
