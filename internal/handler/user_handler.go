package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/langschool/internal/middleware"
	"github.com/hitoshi/langschool/internal/model"
	"github.com/hitoshi/langschool/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	ListAll(ctx context.Context) ([]*model.User, error)
	Upsert(ctx context.Context, in user.UpsertInput) (*user.UpsertResult, error)
	Promote(ctx context.Context, id string, role model.Role) (model.UpdateResult, error)
	IsAdmin(ctx context.Context, callerEmail, email string) (bool, error)
	IsInstructor(ctx context.Context, callerEmail, email string) (bool, error)
}

// UserHandler はユーザーとロール管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// upsertUserRequest はユーザー登録リクエストのボディ。
type upsertUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=200"`
	Photo string `json:"photo" validate:"max=2048"`
}

// ListUsers は全ユーザーを返す。
// GET /users（管理者のみ）
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpsertUser は初回サインイン時にユーザーを登録する。
// 既に登録済みの場合は {"message": "existing user"} を返す。
// POST /users
func (h *UserHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Upsert(r.Context(), user.UpsertInput{
		Email: req.Email,
		Name:  req.Name,
		Photo: req.Photo,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CheckAdmin は呼び出し元自身が管理者かを返す。
// パスのemailがトークンのemailと異なる場合はストアを参照せず {"admin": false} を返す。
// GET /users/admin/{subject}（subjectはemail）
func (h *UserHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	ok, err := h.service.IsAdmin(r.Context(), middleware.EmailFromContext(r.Context()), chi.URLParam(r, subjectParam))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"admin": ok})
}

// CheckInstructor は呼び出し元自身が講師かを返す。
// GET /users/instructor/{subject}（subjectはemail）
func (h *UserHandler) CheckInstructor(w http.ResponseWriter, r *http.Request) {
	ok, err := h.service.IsInstructor(r.Context(), middleware.EmailFromContext(r.Context()), chi.URLParam(r, subjectParam))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"instructor": ok})
}

// PromoteToAdmin は指定IDのユーザーを管理者にする。
// PATCH /users/admin/{subject}（subjectはユーザーID、管理者のみ）
func (h *UserHandler) PromoteToAdmin(w http.ResponseWriter, r *http.Request) {
	h.promote(w, r, model.RoleAdmin)
}

// PromoteToInstructor は指定IDのユーザーを講師にする。
// PATCH /users/instructor/{subject}（subjectはユーザーID、管理者のみ）
func (h *UserHandler) PromoteToInstructor(w http.ResponseWriter, r *http.Request) {
	h.promote(w, r, model.RoleInstructor)
}

func (h *UserHandler) promote(w http.ResponseWriter, r *http.Request, role model.Role) {
	result, err := h.service.Promote(r.Context(), chi.URLParam(r, subjectParam), role)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
