// Package auth は署名付きアイデンティティトークンの発行と検証を提供する。
//
// トークンはHS256で署名したJWTで、利用者のemailを必ず含む。
// サーバー側の失効リストは持たず、有効期限（既定72時間）の経過でのみ無効になる。
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL はトークンの既定有効期間。
const DefaultTokenTTL = 72 * time.Hour

var (
	// ErrInvalidToken はトークンが未指定・不正・期限切れ・署名不一致の場合に返される。
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingEmail は発行対象のクレームにemailが含まれない場合に返される。
	ErrMissingEmail = errors.New("identity claims must include email")
)

// IdentityClaims はトークン発行時に受け取る利用者情報。
type IdentityClaims struct {
	Email string
	Name  string
	Photo string
}

// Claims はトークンに埋め込まれるクレーム。
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
	jwt.RegisteredClaims
}

// TokenService はトークンの発行と検証を行う。
// 状態を持たないため、複数のgoroutineから同時に利用できる。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。
// ttlが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL はトークンの有効期間を返す。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue はクレームに署名してトークンを発行する。
func (s *TokenService) Issue(identity IdentityClaims) (string, error) {
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return "", ErrMissingEmail
	}

	issuedAt := s.now()
	claims := Claims{
		Email: email,
		Name:  identity.Name,
		Photo: identity.Photo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify はトークンを検証し、クレームを返す。
// 失敗時はErrInvalidTokenを返す。期限切れの場合はjwt.ErrTokenExpiredもラップする。
func (s *TokenService) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
