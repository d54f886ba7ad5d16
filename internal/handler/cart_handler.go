package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/langschool/internal/cart"
	"github.com/hitoshi/langschool/internal/middleware"
	"github.com/hitoshi/langschool/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	ListForUser(ctx context.Context, callerEmail, email string) ([]*model.Selection, error)
	Add(ctx context.Context, callerEmail string, in cart.AddInput) (model.InsertResult, error)
	Remove(ctx context.Context, callerEmail, id string) (model.DeleteResult, error)
}

// CartHandler はカート（受講申込）のHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

// addSelectionRequest はカート追加リクエストのボディ。
// emailは省略可能で、指定する場合はトークンのemailと一致させる。
type addSelectionRequest struct {
	Email   string `json:"email" validate:"omitempty,email"`
	ClassID string `json:"classId" validate:"required"`
}

// ListSelections は呼び出し元のカート内容を返す。
// GET /selects?email=
func (h *CartHandler) ListSelections(w http.ResponseWriter, r *http.Request) {
	selections, err := h.service.ListForUser(r.Context(),
		middleware.EmailFromContext(r.Context()),
		r.URL.Query().Get("email"),
	)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selections)
}

// AddSelection は呼び出し元のカートに講座を追加する。
// POST /selects
func (h *CartHandler) AddSelection(w http.ResponseWriter, r *http.Request) {
	var req addSelectionRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Add(r.Context(), middleware.EmailFromContext(r.Context()), cart.AddInput{
		Email:   req.Email,
		ClassID: req.ClassID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RemoveSelection は呼び出し元のカートから指定IDの内容を削除する。
// 該当がない場合も200で {"deletedCount": 0} を返す。
// DELETE /selects/{id}
func (h *CartHandler) RemoveSelection(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Remove(r.Context(),
		middleware.EmailFromContext(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
