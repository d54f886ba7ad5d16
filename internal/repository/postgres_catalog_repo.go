package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/langschool/internal/model"
)

// PostgresTeacherRepo はPostgreSQLを使用した講師紹介リポジトリ。
type PostgresTeacherRepo struct {
	db *sql.DB
}

// NewPostgresTeacherRepo はPostgresTeacherRepoを生成する。
func NewPostgresTeacherRepo(db *sql.DB) *PostgresTeacherRepo {
	return &PostgresTeacherRepo{db: db}
}

// FindAll は全講師を受講者数の多い順に返す。
func (r *PostgresTeacherRepo) FindAll(ctx context.Context) ([]*model.Teacher, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, image, language, students
		 FROM teachers
		 ORDER BY students DESC, created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	defer rows.Close()

	teachers := make([]*model.Teacher, 0)
	for rows.Next() {
		t := &model.Teacher{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Image, &t.Language, &t.Students); err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teachers: %w", err)
	}
	return teachers, nil
}

// PostgresClassRepo はPostgreSQLを使用した講座リポジトリ。
type PostgresClassRepo struct {
	db *sql.DB
}

// NewPostgresClassRepo はPostgresClassRepoを生成する。
func NewPostgresClassRepo(db *sql.DB) *PostgresClassRepo {
	return &PostgresClassRepo{db: db}
}

const classColumns = `id, title, instructor_name, instructor_email, image, price, seats, created_at`

func scanClass(row interface{ Scan(...any) error }) (*model.Class, error) {
	c := &model.Class{}
	if err := row.Scan(&c.ID, &c.Title, &c.InstructorName, &c.InstructorEmail, &c.Image, &c.Price, &c.Seats, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresClassRepo) queryClasses(ctx context.Context, query string, args ...any) ([]*model.Class, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	classes := make([]*model.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classes: %w", err)
	}
	return classes, nil
}

// FindAll は全講座を作成日時順に返す。
func (r *PostgresClassRepo) FindAll(ctx context.Context) ([]*model.Class, error) {
	return r.queryClasses(ctx,
		`SELECT `+classColumns+` FROM classes ORDER BY created_at, id`,
	)
}

// FindByInstructorEmail は指定講師が作成した講座を返す。
func (r *PostgresClassRepo) FindByInstructorEmail(ctx context.Context, email string) ([]*model.Class, error) {
	return r.queryClasses(ctx,
		`SELECT `+classColumns+` FROM classes WHERE instructor_email = $1 ORDER BY created_at, id`,
		email,
	)
}

// FindByID は指定IDの講座を取得する。見つからない場合はnilを返す。
func (r *PostgresClassRepo) FindByID(ctx context.Context, id string) (*model.Class, error) {
	c, err := scanClass(r.db.QueryRowContext(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find class by ID: %w", err)
	}
	return c, nil
}

// Insert は講座を作成する。
func (r *PostgresClassRepo) Insert(ctx context.Context, c *model.Class) (model.InsertResult, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO classes (id, title, instructor_name, instructor_email, image, price, seats, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Title, c.InstructorName, c.InstructorEmail, c.Image, c.Price, c.Seats, c.CreatedAt,
	)
	if err != nil {
		return model.InsertResult{}, fmt.Errorf("failed to insert class: %w", err)
	}
	return model.InsertResult{Acknowledged: true, InsertedID: c.ID}, nil
}

// compile-time interface checks
var (
	_ TeacherRepository = (*PostgresTeacherRepo)(nil)
	_ ClassRepository   = (*PostgresClassRepo)(nil)
)
