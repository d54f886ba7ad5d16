// Package catalog は講師・講座の一覧と講座作成を提供する。
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/langschool/internal/model"
	"github.com/hitoshi/langschool/internal/repository"
	"github.com/hitoshi/langschool/internal/security"
)

// CreateClassInput は講座作成の入力。
// InstructorEmailは検証済みトークンから設定し、リクエストボディの値は使わない。
type CreateClassInput struct {
	InstructorEmail string
	InstructorName  string
	Title           string
	Image           string
	Price           float64
	Seats           int
}

// Service は講師・講座に関するビジネスロジックを提供する。
type Service struct {
	teacherRepo repository.TeacherRepository
	classRepo   repository.ClassRepository
	sanitizer   security.TextSanitizer
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	teacherRepo repository.TeacherRepository,
	classRepo repository.ClassRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		teacherRepo: teacherRepo,
		classRepo:   classRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// ListTeachers は全講師を返す。
func (s *Service) ListTeachers(ctx context.Context) ([]*model.Teacher, error) {
	teachers, err := s.teacherRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("講師一覧の取得に失敗しました: %w", err)
	}
	return teachers, nil
}

// ListClasses は全講座を返す。
func (s *Service) ListClasses(ctx context.Context) ([]*model.Class, error) {
	classes, err := s.classRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("講座一覧の取得に失敗しました: %w", err)
	}
	return classes, nil
}

// CreateClass は講座を作成する。講師ロールのGateの後で呼び出す。
// 文字列項目はサニタイズし、価格は小数第2位に丸めて保存する。
func (s *Service) CreateClass(ctx context.Context, in CreateClassInput) (model.InsertResult, error) {
	if in.InstructorEmail == "" {
		return model.InsertResult{}, model.NewUnauthorizedError()
	}

	title := s.sanitizer.SanitizeText(in.Title)
	if title == "" {
		return model.InsertResult{}, model.NewValidationError("title is required")
	}

	price := decimal.NewFromFloat(in.Price).Round(2)
	if price.IsNegative() {
		return model.InsertResult{}, model.NewValidationError("price must be greater than or equal to 0")
	}
	if price.GreaterThan(model.MaxPrice) {
		return model.InsertResult{}, model.NewValidationError("price is too large")
	}
	if in.Seats < 0 {
		return model.InsertResult{}, model.NewValidationError("seats must be greater than or equal to 0")
	}

	image := strings.TrimSpace(in.Image)
	if err := security.ValidateImageURL(image); err != nil {
		return model.InsertResult{}, model.NewInvalidImageURLError(err.Error())
	}

	c := &model.Class{
		ID:              uuid.NewString(),
		Title:           title,
		InstructorName:  s.sanitizer.SanitizeText(in.InstructorName),
		InstructorEmail: in.InstructorEmail,
		Image:           image,
		Price:           price.InexactFloat64(),
		Seats:           in.Seats,
		CreatedAt:       s.now().UTC(),
	}

	result, err := s.classRepo.Insert(ctx, c)
	if err != nil {
		return model.InsertResult{}, fmt.Errorf("講座の作成に失敗しました: %w", err)
	}

	slog.Info("講座を作成しました",
		slog.String("class_id", c.ID),
		slog.String("instructor_email", c.InstructorEmail),
	)

	return result, nil
}

// ClassesForInstructor は講師本人が作成した講座を返す。
// emailが空の場合は空の一覧を返し、呼び出し元と一致しない場合はFORBIDDENを返す。
func (s *Service) ClassesForInstructor(ctx context.Context, callerEmail, email string) ([]*model.Class, error) {
	if email == "" {
		return []*model.Class{}, nil
	}
	if callerEmail != email {
		return nil, model.NewForbiddenError()
	}

	classes, err := s.classRepo.FindByInstructorEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("講座一覧の取得に失敗しました: %w", err)
	}
	return classes, nil
}
