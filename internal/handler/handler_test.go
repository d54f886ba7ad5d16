package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/langschool/internal/auth"
	"github.com/hitoshi/langschool/internal/cart"
	"github.com/hitoshi/langschool/internal/catalog"
	"github.com/hitoshi/langschool/internal/middleware"
	"github.com/hitoshi/langschool/internal/model"
	"github.com/hitoshi/langschool/internal/payment"
	"github.com/hitoshi/langschool/internal/user"
)

// --- モック定義 ---

type mockTokenIssuer struct {
	issueFn func(identity auth.IdentityClaims) (string, error)
}

func (m *mockTokenIssuer) Issue(identity auth.IdentityClaims) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(identity)
	}
	return "token-" + identity.Email, nil
}

type mockUserService struct {
	listAllFn      func(ctx context.Context) ([]*model.User, error)
	upsertFn       func(ctx context.Context, in user.UpsertInput) (*user.UpsertResult, error)
	promoteFn      func(ctx context.Context, id string, role model.Role) (model.UpdateResult, error)
	isAdminFn      func(ctx context.Context, callerEmail, email string) (bool, error)
	isInstructorFn func(ctx context.Context, callerEmail, email string) (bool, error)
	calls          int
}

func (m *mockUserService) ListAll(ctx context.Context) ([]*model.User, error) {
	m.calls++
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return []*model.User{}, nil
}

func (m *mockUserService) Upsert(ctx context.Context, in user.UpsertInput) (*user.UpsertResult, error) {
	m.calls++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, in)
	}
	return &user.UpsertResult{Acknowledged: true, InsertedID: "u-1"}, nil
}

func (m *mockUserService) Promote(ctx context.Context, id string, role model.Role) (model.UpdateResult, error) {
	m.calls++
	if m.promoteFn != nil {
		return m.promoteFn(ctx, id, role)
	}
	return model.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockUserService) IsAdmin(ctx context.Context, callerEmail, email string) (bool, error) {
	m.calls++
	if m.isAdminFn != nil {
		return m.isAdminFn(ctx, callerEmail, email)
	}
	return false, nil
}

func (m *mockUserService) IsInstructor(ctx context.Context, callerEmail, email string) (bool, error) {
	m.calls++
	if m.isInstructorFn != nil {
		return m.isInstructorFn(ctx, callerEmail, email)
	}
	return false, nil
}

type mockCatalogService struct {
	listTeachersFn func(ctx context.Context) ([]*model.Teacher, error)
	listClassesFn  func(ctx context.Context) ([]*model.Class, error)
	createClassFn  func(ctx context.Context, in catalog.CreateClassInput) (model.InsertResult, error)
	forInstructor  func(ctx context.Context, callerEmail, email string) ([]*model.Class, error)
	calls          int
}

func (m *mockCatalogService) ListTeachers(ctx context.Context) ([]*model.Teacher, error) {
	m.calls++
	if m.listTeachersFn != nil {
		return m.listTeachersFn(ctx)
	}
	return []*model.Teacher{}, nil
}

func (m *mockCatalogService) ListClasses(ctx context.Context) ([]*model.Class, error) {
	m.calls++
	if m.listClassesFn != nil {
		return m.listClassesFn(ctx)
	}
	return []*model.Class{}, nil
}

func (m *mockCatalogService) CreateClass(ctx context.Context, in catalog.CreateClassInput) (model.InsertResult, error) {
	m.calls++
	if m.createClassFn != nil {
		return m.createClassFn(ctx, in)
	}
	return model.InsertResult{Acknowledged: true, InsertedID: "c-1"}, nil
}

func (m *mockCatalogService) ClassesForInstructor(ctx context.Context, callerEmail, email string) ([]*model.Class, error) {
	m.calls++
	if m.forInstructor != nil {
		return m.forInstructor(ctx, callerEmail, email)
	}
	return []*model.Class{}, nil
}

type mockCartService struct {
	listFn   func(ctx context.Context, callerEmail, email string) ([]*model.Selection, error)
	addFn    func(ctx context.Context, callerEmail string, in cart.AddInput) (model.InsertResult, error)
	removeFn func(ctx context.Context, callerEmail, id string) (model.DeleteResult, error)
	calls    int
}

func (m *mockCartService) ListForUser(ctx context.Context, callerEmail, email string) ([]*model.Selection, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx, callerEmail, email)
	}
	return []*model.Selection{}, nil
}

func (m *mockCartService) Add(ctx context.Context, callerEmail string, in cart.AddInput) (model.InsertResult, error) {
	m.calls++
	if m.addFn != nil {
		return m.addFn(ctx, callerEmail, in)
	}
	return model.InsertResult{Acknowledged: true, InsertedID: "s-1"}, nil
}

func (m *mockCartService) Remove(ctx context.Context, callerEmail, id string) (model.DeleteResult, error) {
	m.calls++
	if m.removeFn != nil {
		return m.removeFn(ctx, callerEmail, id)
	}
	return model.DeleteResult{Acknowledged: true}, nil
}

type mockPaymentService struct {
	createIntentFn func(ctx context.Context, price float64) (*model.PaymentIntent, error)
	finalizeFn     func(ctx context.Context, callerEmail string, in payment.FinalizeInput) (model.FinalizeResult, error)
	historyFn      func(ctx context.Context, callerEmail, email string) ([]*model.Payment, error)
	calls          int
}

func (m *mockPaymentService) CreateIntent(ctx context.Context, price float64) (*model.PaymentIntent, error) {
	m.calls++
	if m.createIntentFn != nil {
		return m.createIntentFn(ctx, price)
	}
	amount, _ := payment.ToMinorUnits(price)
	return &model.PaymentIntent{Amount: amount, Currency: "usd", ClientSecret: "secret"}, nil
}

func (m *mockPaymentService) Finalize(ctx context.Context, callerEmail string, in payment.FinalizeInput) (model.FinalizeResult, error) {
	m.calls++
	if m.finalizeFn != nil {
		return m.finalizeFn(ctx, callerEmail, in)
	}
	return model.FinalizeResult{}, nil
}

func (m *mockPaymentService) History(ctx context.Context, callerEmail, email string) ([]*model.Payment, error) {
	m.calls++
	if m.historyFn != nil {
		return m.historyFn(ctx, callerEmail, email)
	}
	return []*model.Payment{}, nil
}

// --- ヘルパー ---

// withEmail はテスト用に検証済みクレームをコンテキストに注入するヘルパー。
func withEmail(r *http.Request, email string) *http.Request {
	return r.WithContext(middleware.ContextWithClaims(r.Context(), &auth.Claims{Email: email}))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func jsonRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseAPIErrorResponse はレスポンスボディから統一エラーフォーマットをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var result middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v (body=%q)", err, w.Body.String())
	}
}
