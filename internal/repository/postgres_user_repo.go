package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/langschool/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, name, photo, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	var role string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Photo, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	return user, nil
}

// FindAll は全ユーザーを作成日時順に返す。
func (r *PostgresUserRepo) FindAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// InsertIfAbsent はemailが未登録の場合のみユーザーを作成する。
// emailのユニーク制約により、同時の初回サインインでも重複レコードは作られない。
func (r *PostgresUserRepo) InsertIfAbsent(ctx context.Context, user *model.User) (model.InsertResult, bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, photo, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email) DO NOTHING`,
		user.ID, user.Email, user.Name, user.Photo, string(user.Role), user.CreatedAt,
	)
	if err != nil {
		return model.InsertResult{}, false, fmt.Errorf("failed to insert user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.InsertResult{}, false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.InsertResult{}, false, nil
	}
	return model.InsertResult{Acknowledged: true, InsertedID: user.ID}, true, nil
}

// UpdateRole は指定IDのユーザーのロールを設定する。
// 対象行をロックしてから更新するため、MatchedCountとModifiedCountは同一時点の状態に基づく。
// 同時の更新は後勝ちとなる。
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (model.UpdateResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.UpdateResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT role FROM users WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return model.UpdateResult{Acknowledged: true}, nil
	}
	if err != nil {
		return model.UpdateResult{}, fmt.Errorf("failed to lock user: %w", err)
	}

	if model.Role(current) == role {
		return model.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET role = $2 WHERE id = $1`,
		id, string(role),
	); err != nil {
		return model.UpdateResult{}, fmt.Errorf("failed to update user role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.UpdateResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return model.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
