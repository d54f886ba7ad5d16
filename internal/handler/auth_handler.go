package handler

import (
	"net/http"

	"github.com/hitoshi/langschool/internal/auth"
)

// TokenIssuer はトークン発行ハンドラーが必要とするインターフェース。
type TokenIssuer interface {
	Issue(identity auth.IdentityClaims) (string, error)
}

// AuthHandler はアイデンティティトークン発行のHTTPハンドラー。
type AuthHandler struct {
	issuer TokenIssuer
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// issueTokenRequest はトークン発行リクエストのボディ。
type issueTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=200"`
	Photo string `json:"photo" validate:"max=2048"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// IssueToken はサインイン済みの利用者にトークンを発行する。
// POST /jwt
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	token, err := h.issuer.Issue(auth.IdentityClaims{
		Email: req.Email,
		Name:  req.Name,
		Photo: req.Photo,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
