package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/langschool/internal/middleware"
	"github.com/hitoshi/langschool/internal/model"
	"github.com/hitoshi/langschool/internal/payment"
)

// PaymentServiceInterface は支払いハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	CreateIntent(ctx context.Context, price float64) (*model.PaymentIntent, error)
	Finalize(ctx context.Context, callerEmail string, in payment.FinalizeInput) (model.FinalizeResult, error)
	History(ctx context.Context, callerEmail, email string) ([]*model.Payment, error)
}

// PaymentHandler は支払いのHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// createIntentRequest はインテント作成リクエストのボディ。
type createIntentRequest struct {
	Price float64 `json:"price" validate:"gt=0,lte=9999999999.99"`
}

type clientSecretResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// finalizeRequest は支払い確定リクエストのボディ。
type finalizeRequest struct {
	Email         string  `json:"email" validate:"omitempty,email"`
	ClassID       string  `json:"classId" validate:"required"`
	Price         float64 `json:"price" validate:"gte=0,lte=9999999999.99"`
	TransactionID string  `json:"transactionId" validate:"required,max=255"`
}

// CreateIntent は支払いインテントを作成し、client secretを返す。
// POST /create-payment-intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	intent, err := h.service.CreateIntent(r.Context(), req.Price)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clientSecretResponse{ClientSecret: intent.ClientSecret})
}

// Finalize は支払いを記録し、該当講座をカートから削除する。
// POST /payments
func (h *PaymentHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Finalize(r.Context(), middleware.EmailFromContext(r.Context()), payment.FinalizeInput{
		Email:         req.Email,
		ClassID:       req.ClassID,
		Amount:        req.Price,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// History は支払い履歴を返す。本人または管理者のみ。
// GET /payments/{email}
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.History(r.Context(),
		middleware.EmailFromContext(r.Context()),
		chi.URLParam(r, "email"),
	)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
