// Package repository はデータ永続化のインターフェースを定義する。
//
// 各コレクション（users, teachers, classes, selections, payments）について
// find / findOne / insertOne / updateOne / deleteOne 相当の操作を提供する。
// findOne相当の操作は見つからない場合にnil, nilを返す。
// updateOne / deleteOne相当の操作は対象がない場合もエラーにせず、件数0の結果を返す。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/langschool/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindAll は全ユーザーを作成日時順に返す。
	FindAll(ctx context.Context) ([]*model.User, error)

	// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// InsertIfAbsent はemailが未登録の場合のみユーザーを作成する。
	// 既に同じemailのユーザーが存在する場合はinserted=falseを返す。
	InsertIfAbsent(ctx context.Context, user *model.User) (result model.InsertResult, inserted bool, err error)

	// UpdateRole は指定IDのユーザーのロールを設定する。
	UpdateRole(ctx context.Context, id string, role model.Role) (model.UpdateResult, error)
}

// TeacherRepository は講師紹介データの永続化インターフェース。
type TeacherRepository interface {
	// FindAll は全講師を返す。
	FindAll(ctx context.Context) ([]*model.Teacher, error)
}

// ClassRepository は講座データの永続化インターフェース。
type ClassRepository interface {
	// FindAll は全講座を作成日時順に返す。
	FindAll(ctx context.Context) ([]*model.Class, error)

	// FindByID は指定IDの講座を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Class, error)

	// FindByInstructorEmail は指定講師が作成した講座を返す。
	FindByInstructorEmail(ctx context.Context, email string) ([]*model.Class, error)

	// Insert は講座を作成する。
	Insert(ctx context.Context, class *model.Class) (model.InsertResult, error)
}

// SelectionRepository はカート（受講申込）データの永続化インターフェース。
type SelectionRepository interface {
	// FindByEmail は指定ユーザーのカート内容を返す。
	FindByEmail(ctx context.Context, email string) ([]*model.Selection, error)

	// InsertIfAbsent は(email, classId)の組が未登録の場合のみカートに追加する。
	// 既に同じ組が存在する場合はinserted=falseを返す。
	InsertIfAbsent(ctx context.Context, selection *model.Selection) (result model.InsertResult, inserted bool, err error)

	// DeleteByIDAndEmail はIDと所有者emailが一致するカート内容を削除する。
	// 該当がない場合はDeletedCount=0を返す。
	DeleteByIDAndEmail(ctx context.Context, id, email string) (model.DeleteResult, error)
}

// PaymentRepository は支払いデータの永続化インターフェース。
type PaymentRepository interface {
	// FindByEmail は指定ユーザーの支払い履歴を新しい順に返す。
	FindByEmail(ctx context.Context, email string) ([]*model.Payment, error)

	// ExistsByEmailAndClass は指定ユーザーがその講座の支払いを完了済みかを返す。
	ExistsByEmailAndClass(ctx context.Context, email, classID string) (bool, error)

	// Finalize は支払い記録の作成と対応するカート内容の削除を同一トランザクションで行う。
	// カート内容の削除条件は支払者のemailとclassIdの両方で絞り込む。
	// 該当するカート内容がない場合もエラーにせず、DeletedCount=0を返す。
	Finalize(ctx context.Context, payment *model.Payment) (model.FinalizeResult, error)
}

// HealthChecker はデータストアの疎通確認インターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// queryer は*sql.DBと*sql.Txの共通部分。
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ queryer = (*sql.DB)(nil)
	_ queryer = (*sql.Tx)(nil)
)
