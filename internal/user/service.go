// Package user はユーザーレコードとロールの管理を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/langschool/internal/model"
	"github.com/hitoshi/langschool/internal/repository"
	"github.com/hitoshi/langschool/internal/security"
)

// ExistingUserMessage は既に登録済みのemailで作成要求を受けた場合の応答メッセージ。
const ExistingUserMessage = "existing user"

// UpsertInput は初回サインイン時に登録するユーザー情報。
type UpsertInput struct {
	Email string
	Name  string
	Photo string
}

// UpsertResult はユーザー登録の結果を表す。
// 既存ユーザーの場合はMessageのみを持つ。
type UpsertResult struct {
	Message      string `json:"message,omitempty"`
	Acknowledged bool   `json:"acknowledged,omitempty"`
	InsertedID   string `json:"insertedId,omitempty"`
}

// Service はユーザーとロールに関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		userRepo:  userRepo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// ListAll は全ユーザーを返す。管理者ロールのGateの後で呼び出す。
func (s *Service) ListAll(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Upsert はemailをキーにユーザーを登録する。
// 同じemailのユーザーが既に存在する場合は何もせず、ExistingUserMessageを返す。
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (*UpsertResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, model.NewValidationError("email is required")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if existing != nil {
		return &UpsertResult{Message: ExistingUserMessage}, nil
	}

	u := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      s.sanitize(in.Name),
		Photo:     strings.TrimSpace(in.Photo),
		Role:      model.RoleNone,
		CreatedAt: s.now().UTC(),
	}

	// 検索と登録の間に同じemailが登録された場合もユニーク制約により重複しない
	result, inserted, err := s.userRepo.InsertIfAbsent(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの登録に失敗しました: %w", err)
	}
	if !inserted {
		return &UpsertResult{Message: ExistingUserMessage}, nil
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", u.ID),
	)

	return &UpsertResult{
		Acknowledged: result.Acknowledged,
		InsertedID:   result.InsertedID,
	}, nil
}

// Promote は指定IDのユーザーにロールを設定する。管理者ロールのGateの後で呼び出す。
// IDが不正な場合はINVALID_ID、昇格先として許可されないロールの場合はINVALID_ROLEを返す。
// 対象が存在しない場合はエラーにせずMatchedCount=0を返す。
func (s *Service) Promote(ctx context.Context, id string, role model.Role) (model.UpdateResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.UpdateResult{}, model.NewInvalidIDError(id)
	}
	if !role.IsPromotable() {
		return model.UpdateResult{}, model.NewInvalidRoleError(string(role))
	}

	result, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		return model.UpdateResult{}, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}

	slog.Info("ユーザーのロールを更新しました",
		slog.String("user_id", id),
		slog.String("role", string(role)),
		slog.Int64("matched", result.MatchedCount),
		slog.Int64("modified", result.ModifiedCount),
	)

	return result, nil
}

// IsAdmin は指定emailのユーザーが管理者かを返す。
// callerEmailとemailが一致しない場合はストアを参照せずfalseを返す。
func (s *Service) IsAdmin(ctx context.Context, callerEmail, email string) (bool, error) {
	return s.hasRole(ctx, callerEmail, email, model.RoleAdmin)
}

// IsInstructor は指定emailのユーザーが講師かを返す。
// callerEmailとemailが一致しない場合はストアを参照せずfalseを返す。
func (s *Service) IsInstructor(ctx context.Context, callerEmail, email string) (bool, error) {
	return s.hasRole(ctx, callerEmail, email, model.RoleInstructor)
}

func (s *Service) hasRole(ctx context.Context, callerEmail, email string, role model.Role) (bool, error) {
	if callerEmail == "" || callerEmail != email {
		return false, nil
	}

	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u.HasRole(role), nil
}

func (s *Service) sanitize(v string) string {
	if s.sanitizer == nil {
		return strings.TrimSpace(v)
	}
	return s.sanitizer.SanitizeText(v)
}
