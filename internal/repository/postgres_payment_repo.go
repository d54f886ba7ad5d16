package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/langschool/internal/model"
)

// PostgresPaymentRepo はPostgreSQLを使用した支払いリポジトリ。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

// FindByEmail は指定ユーザーの支払い履歴を新しい順に返す。
func (r *PostgresPaymentRepo) FindByEmail(ctx context.Context, email string) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, class_id, amount, transaction_id, created_at
		 FROM payments
		 WHERE email = $1
		 ORDER BY created_at DESC, id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*model.Payment, 0)
	for rows.Next() {
		p := &model.Payment{}
		if err := rows.Scan(&p.ID, &p.Email, &p.ClassID, &p.Amount, &p.TransactionReference, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// ExistsByEmailAndClass は指定ユーザーがその講座の支払いを完了済みかを返す。
func (r *PostgresPaymentRepo) ExistsByEmailAndClass(ctx context.Context, email, classID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE email = $1 AND class_id = $2)`,
		email, classID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payment existence: %w", err)
	}
	return exists, nil
}

// Finalize は支払い記録の作成と対応するカート内容の削除を同一トランザクションで行う。
// どちらかが失敗した場合はロールバックし、支払い記録だけが残ることはない。
// 同じ内容で再度呼ばれた場合は2件目の支払い記録を作成し、削除件数は0になる。
func (r *PostgresPaymentRepo) Finalize(ctx context.Context, p *model.Payment) (model.FinalizeResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.FinalizeResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. 支払い記録を作成
	if err := insertPayment(ctx, tx, p); err != nil {
		return model.FinalizeResult{}, err
	}

	// 2. 支払者本人の該当カート内容を削除
	deleteResult, err := deleteSelectionByEmailAndClass(ctx, tx, p.Email, p.ClassID)
	if err != nil {
		return model.FinalizeResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.FinalizeResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return model.FinalizeResult{
		InsertResult: model.InsertResult{Acknowledged: true, InsertedID: p.ID},
		DeleteResult: deleteResult,
	}, nil
}

func insertPayment(ctx context.Context, q queryer, p *model.Payment) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO payments (id, email, class_id, amount, transaction_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Email, p.ClassID, p.Amount, p.TransactionReference, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func deleteSelectionByEmailAndClass(ctx context.Context, q queryer, email, classID string) (model.DeleteResult, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM selections WHERE email = $1 AND class_id = $2`,
		email, classID,
	)
	if err != nil {
		return model.DeleteResult{}, fmt.Errorf("failed to delete paid selection: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.DeleteResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return model.DeleteResult{Acknowledged: true, DeletedCount: rowsAffected}, nil
}

// compile-time interface check
var _ PaymentRepository = (*PostgresPaymentRepo)(nil)
