package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/langschool/internal/auth"
	"github.com/hitoshi/langschool/internal/model"
)

// --- モック定義 ---

type mockVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (m *mockVerifier) Verify(token string) (*auth.Claims, error) {
	if m.verifyFn != nil {
		return m.verifyFn(token)
	}
	return nil, auth.ErrInvalidToken
}

// tokenVerifier は "token-<email>" 形式のトークンを受け付ける検証器を返す。
func tokenVerifier() *mockVerifier {
	return &mockVerifier{
		verifyFn: func(token string) (*auth.Claims, error) {
			if len(token) > 6 && token[:6] == "token-" {
				return &auth.Claims{Email: token[6:]}, nil
			}
			return nil, auth.ErrInvalidToken
		},
	}
}

type mockRoleFinder struct {
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	calls         int
}

func (m *mockRoleFinder) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.calls++
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

type mockAuthRecorder struct {
	reasons []string
}

func (m *mockAuthRecorder) RecordAuthFailure(reason string) {
	m.reasons = append(m.reasons, reason)
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

// --- Guard ---

func TestGuard_EvaluatesGatesInOrderAndStopsAtFirstFailure(t *testing.T) {
	var order []string
	pass := func(name string) Gate {
		return func(r *http.Request) (*http.Request, error) {
			order = append(order, name)
			return r, nil
		}
	}
	fail := func(r *http.Request) (*http.Request, error) {
		order = append(order, "fail")
		return nil, model.NewForbiddenError()
	}

	called := false
	handler := Guard(pass("first"), fail, pass("never"))(okHandler(&called))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if called {
		t.Error("handler should not be called")
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "fail" {
		t.Errorf("order = %v, want [first fail]", order)
	}
}

func TestGuard_PassesEnrichedRequestToNextGate(t *testing.T) {
	called := false
	var seen string
	handler := Guard(
		RequireToken(tokenVerifier(), nil),
		func(r *http.Request) (*http.Request, error) {
			seen = EmailFromContext(r.Context())
			return r, nil
		},
	)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token-a@example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("handler should be called")
	}
	if seen != "a@example.com" {
		t.Errorf("email seen by second gate = %q, want %q", seen, "a@example.com")
	}
}

func TestGuard_NonAPIErrorBecomes500(t *testing.T) {
	called := false
	handler := Guard(func(r *http.Request) (*http.Request, error) {
		return nil, errors.New("db down")
	})(okHandler(&called))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// --- RequireToken ---

func TestRequireToken_RejectsWithoutValidToken(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantReason string
	}{
		{"no header", "", AuthFailureMissingToken},
		{"wrong scheme", "Basic token-a@example.com", AuthFailureMissingToken},
		{"empty token", "Bearer ", AuthFailureMissingToken},
		{"invalid token", "Bearer garbage", AuthFailureInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &mockAuthRecorder{}
			called := false
			handler := Guard(RequireToken(tokenVerifier(), recorder))(okHandler(&called))

			req := httptest.NewRequest(http.MethodPost, "/selects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if called {
				t.Error("handler should not be called")
			}
			if len(recorder.reasons) != 1 || recorder.reasons[0] != tt.wantReason {
				t.Errorf("reasons = %v, want [%s]", recorder.reasons, tt.wantReason)
			}
		})
	}
}

func TestRequireToken_ExpiredTokenReason(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(token string) (*auth.Claims, error) {
			return nil, fmt.Errorf("%w: %w", auth.ErrInvalidToken, jwt.ErrTokenExpired)
		},
	}
	recorder := &mockAuthRecorder{}
	called := false
	handler := Guard(RequireToken(verifier, recorder))(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer old")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if len(recorder.reasons) != 1 || recorder.reasons[0] != AuthFailureExpiredToken {
		t.Errorf("reasons = %v, want [%s]", recorder.reasons, AuthFailureExpiredToken)
	}
}

func TestBearerToken_SchemeIsCaseInsensitive(t *testing.T) {
	for _, header := range []string{"Bearer abc", "bearer abc", "BEARER   abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		token, ok := BearerToken(req)
		if !ok || token != "abc" {
			t.Errorf("BearerToken(%q) = %q, %v; want abc, true", header, token, ok)
		}
	}
}

// --- RequireRole ---

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *model.User
		findErr    error
		wantStatus int
	}{
		{"admin passes", &model.User{Email: "a@example.com", Role: model.RoleAdmin}, nil, http.StatusOK},
		{"instructor is not admin", &model.User{Email: "a@example.com", Role: model.RoleInstructor}, nil, http.StatusForbidden},
		{"no role", &model.User{Email: "a@example.com"}, nil, http.StatusForbidden},
		{"absent record", nil, nil, http.StatusForbidden},
		{"lookup failure", nil, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockRoleFinder{
				findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
					if email != "a@example.com" {
						t.Errorf("looked up %q, want caller email", email)
					}
					return tt.user, tt.findErr
				},
			}
			called := false
			handler := Guard(
				RequireToken(tokenVerifier(), nil),
				RequireRole(finder, model.RoleAdmin, nil),
			)(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			req.Header.Set("Authorization", "Bearer token-a@example.com")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
		})
	}
}

func TestRequireRole_WithoutTokenDoesNotConsultStore(t *testing.T) {
	finder := &mockRoleFinder{}
	called := false
	handler := Guard(
		RequireToken(tokenVerifier(), nil),
		RequireRole(finder, model.RoleAdmin, nil),
	)(okHandler(&called))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if finder.calls != 0 {
		t.Errorf("finder calls = %d, want 0", finder.calls)
	}
}
