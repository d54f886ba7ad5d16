package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/langschool/internal/model"
)

// PostgresSelectionRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresSelectionRepo struct {
	db *sql.DB
}

// NewPostgresSelectionRepo はPostgresSelectionRepoを生成する。
func NewPostgresSelectionRepo(db *sql.DB) *PostgresSelectionRepo {
	return &PostgresSelectionRepo{db: db}
}

// FindByEmail は指定ユーザーのカート内容を追加順に返す。
func (r *PostgresSelectionRepo) FindByEmail(ctx context.Context, email string) ([]*model.Selection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, class_id, class_title, class_instructor_name, class_image, class_price, created_at
		 FROM selections
		 WHERE email = $1
		 ORDER BY created_at, id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}
	defer rows.Close()

	selections := make([]*model.Selection, 0)
	for rows.Next() {
		s := &model.Selection{}
		if err := rows.Scan(
			&s.ID, &s.Email, &s.ClassID,
			&s.Class.Title, &s.Class.InstructorName, &s.Class.Image, &s.Class.Price,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		selections = append(selections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate selections: %w", err)
	}
	return selections, nil
}

// InsertIfAbsent は(email, classId)の組が未登録の場合のみカートに追加する。
func (r *PostgresSelectionRepo) InsertIfAbsent(ctx context.Context, s *model.Selection) (model.InsertResult, bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO selections (id, email, class_id, class_title, class_instructor_name, class_image, class_price, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (email, class_id) DO NOTHING`,
		s.ID, s.Email, s.ClassID,
		s.Class.Title, s.Class.InstructorName, s.Class.Image, s.Class.Price,
		s.CreatedAt,
	)
	if err != nil {
		return model.InsertResult{}, false, fmt.Errorf("failed to insert selection: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.InsertResult{}, false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.InsertResult{}, false, nil
	}
	return model.InsertResult{Acknowledged: true, InsertedID: s.ID}, true, nil
}

// DeleteByIDAndEmail はIDと所有者emailが一致するカート内容を削除する。
// 該当がない場合はDeletedCount=0を返し、エラーにしない。
func (r *PostgresSelectionRepo) DeleteByIDAndEmail(ctx context.Context, id, email string) (model.DeleteResult, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM selections WHERE id = $1 AND email = $2`,
		id, email,
	)
	if err != nil {
		return model.DeleteResult{}, fmt.Errorf("failed to delete selection: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.DeleteResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return model.DeleteResult{Acknowledged: true, DeletedCount: rowsAffected}, nil
}

// compile-time interface check
var _ SelectionRepository = (*PostgresSelectionRepo)(nil)
