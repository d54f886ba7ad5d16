// Package cart は受講申込カート（支払い待ちの講座選択）を提供する。
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/langschool/internal/metrics"
	"github.com/hitoshi/langschool/internal/model"
	"github.com/hitoshi/langschool/internal/repository"
)

// ClassFinder はスナップショット作成のための講座検索インターフェース。
// repository.ClassRepositoryの部分集合として定義する。
type ClassFinder interface {
	FindByID(ctx context.Context, id string) (*model.Class, error)
}

// EnrollmentChecker は支払い済みかどうかの判定インターフェース。
// repository.PaymentRepositoryの部分集合として定義する。
type EnrollmentChecker interface {
	ExistsByEmailAndClass(ctx context.Context, email, classID string) (bool, error)
}

// AddInput はカート追加の入力。
// Emailは省略可能で、指定された場合は呼び出し元と一致しなければならない。
type AddInput struct {
	Email   string
	ClassID string
}

// Service はカートに関するビジネスロジックを提供する。
type Service struct {
	selectionRepo repository.SelectionRepository
	classes       ClassFinder
	enrollments   EnrollmentChecker
	metrics       metrics.MetricsCollector
	now           func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	selectionRepo repository.SelectionRepository,
	classes ClassFinder,
	enrollments EnrollmentChecker,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		selectionRepo: selectionRepo,
		classes:       classes,
		enrollments:   enrollments,
		metrics:       collector,
		now:           time.Now,
	}
}

// ListForUser は指定ユーザーのカート内容を返す。
// emailが空の場合は空の一覧を返し、呼び出し元と一致しない場合はFORBIDDENを返す。
func (s *Service) ListForUser(ctx context.Context, callerEmail, email string) ([]*model.Selection, error) {
	if email == "" {
		return []*model.Selection{}, nil
	}
	if callerEmail != email {
		return nil, model.NewForbiddenError()
	}

	selections, err := s.selectionRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	return selections, nil
}

// Add は呼び出し元のカートに講座を追加する。
// 講座のメタデータは追加時点のスナップショットとして保存する。
// 同じ講座が既にカートにある場合はDUPLICATE_SELECTION、支払い済みの場合はALREADY_ENROLLEDを返す。
func (s *Service) Add(ctx context.Context, callerEmail string, in AddInput) (model.InsertResult, error) {
	if callerEmail == "" {
		return model.InsertResult{}, model.NewUnauthorizedError()
	}
	if in.Email != "" && in.Email != callerEmail {
		return model.InsertResult{}, model.NewForbiddenError()
	}
	if _, err := uuid.Parse(in.ClassID); err != nil {
		return model.InsertResult{}, model.NewInvalidIDError(in.ClassID)
	}

	// 1. 講座の存在確認とスナップショット取得
	class, err := s.classes.FindByID(ctx, in.ClassID)
	if err != nil {
		return model.InsertResult{}, fmt.Errorf("講座の取得に失敗しました: %w", err)
	}
	if class == nil {
		return model.InsertResult{}, model.NewClassNotFoundError()
	}

	// 2. 支払い済みの講座は追加しない
	paid, err := s.enrollments.ExistsByEmailAndClass(ctx, callerEmail, in.ClassID)
	if err != nil {
		return model.InsertResult{}, fmt.Errorf("支払い状況の確認に失敗しました: %w", err)
	}
	if paid {
		return model.InsertResult{}, model.NewAlreadyEnrolledError()
	}

	// 3. (email, classId)につき1件のみ登録
	selection := &model.Selection{
		ID:      uuid.NewString(),
		Email:   callerEmail,
		ClassID: class.ID,
		Class: model.ClassSnapshot{
			Title:          class.Title,
			InstructorName: class.InstructorName,
			Image:          class.Image,
			Price:          class.Price,
		},
		CreatedAt: s.now().UTC(),
	}
	result, inserted, err := s.selectionRepo.InsertIfAbsent(ctx, selection)
	if err != nil {
		return model.InsertResult{}, fmt.Errorf("カートへの追加に失敗しました: %w", err)
	}
	if !inserted {
		return model.InsertResult{}, model.NewDuplicateSelectionError()
	}

	s.metrics.RecordSelectionAdded()
	slog.Info("カートに講座を追加しました",
		slog.String("selection_id", selection.ID),
		slog.String("class_id", selection.ClassID),
	)

	return result, nil
}

// Remove は呼び出し元のカートから指定IDの内容を削除する。
// 他人のカート内容や存在しないIDの場合はエラーにせずDeletedCount=0を返す。
func (s *Service) Remove(ctx context.Context, callerEmail, id string) (model.DeleteResult, error) {
	if callerEmail == "" {
		return model.DeleteResult{}, model.NewUnauthorizedError()
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.DeleteResult{}, model.NewInvalidIDError(id)
	}

	result, err := s.selectionRepo.DeleteByIDAndEmail(ctx, id, callerEmail)
	if err != nil {
		return model.DeleteResult{}, fmt.Errorf("カートからの削除に失敗しました: %w", err)
	}

	s.metrics.RecordSelectionRemoved(result.DeletedCount)
	return result, nil
}
