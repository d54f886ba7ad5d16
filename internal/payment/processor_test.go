package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newStripeTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestStripeProcessor_CreatePaymentIntent(t *testing.T) {
	var gotForm map[string][]string
	var gotAuth string
	srv := newStripeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("request = %s %s, want POST /v1/payment_intents", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":4999,"currency":"usd","client_secret":"pi_123_secret_abc"}`))
	})

	p := NewStripeProcessor(StripeConfig{
		SecretKey:  "sk_test_123",
		APIURL:     srv.URL,
		HTTPClient: srv.Client(),
	})

	secret, err := p.CreatePaymentIntent(context.Background(), IntentRequest{
		Amount:   4999,
		Currency: "usd",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "pi_123_secret_abc" {
		t.Errorf("client secret = %q, want pi_123_secret_abc", secret)
	}
	if gotAuth != "Bearer sk_test_123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if v := gotForm["amount"]; len(v) != 1 || v[0] != "4999" {
		t.Errorf("amount = %v, want 4999", v)
	}
	if v := gotForm["currency"]; len(v) != 1 || v[0] != "usd" {
		t.Errorf("currency = %v, want usd", v)
	}
	if v := gotForm["payment_method_types[0]"]; len(v) != 1 || v[0] != "card" {
		t.Errorf("payment_method_types = %v, want [card]", v)
	}
}

func TestStripeProcessor_ErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := newStripeTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"type":"api_error","message":"temporarily unavailable"}}`))
	})

	p := NewStripeProcessor(StripeConfig{
		SecretKey:  "sk_test_123",
		APIURL:     srv.URL,
		HTTPClient: srv.Client(),
	})

	_, err := p.CreatePaymentIntent(context.Background(), IntentRequest{Amount: 1000, Currency: "usd"})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}
