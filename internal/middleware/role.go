package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/langschool/internal/model"
)

// RoleFinder はロール判定に必要なユーザー検索インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type RoleFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// RequireRole は呼び出し元のユーザーレコードが指定ロールを持つことを要求するGateを返す。
// RequireTokenの後に配置する。レコードが存在しない場合はロールなしとして扱い403を返す。
// 検索に失敗した場合は500とする。
func RequireRole(finder RoleFinder, role model.Role, recorder AuthFailureRecorder) Gate {
	return func(r *http.Request) (*http.Request, error) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			return nil, model.NewUnauthorizedError()
		}

		user, err := finder.FindByEmail(r.Context(), claims.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to find caller for role check: %w", err)
		}
		if !user.HasRole(role) {
			recordAuthFailure(recorder, AuthFailureRoleMismatch)
			return nil, model.NewForbiddenError()
		}

		return r, nil
	}
}
