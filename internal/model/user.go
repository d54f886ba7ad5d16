package model

import "time"

// Role はユーザーの権限ロールを表す。
// 空文字列はロールなし（受講生）を意味する。
type Role string

const (
	// RoleNone はロールなし（受講生）を表す。
	RoleNone Role = ""
	// RoleAdmin は管理者ロールを表す。
	RoleAdmin Role = "admin"
	// RoleInstructor は講師ロールを表す。
	RoleInstructor Role = "instructor"
)

// IsPromotable は昇格操作で設定可能なロールかどうかを返す。
func (r Role) IsPromotable() bool {
	return r == RoleAdmin || r == RoleInstructor
}

// User はサービス利用ユーザーを表す。
// emailが一意キーであり、初回サインイン時に作成される。
// ロールは昇格操作でのみ変更され、降格はしない。
type User struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasRole はユーザーが指定ロールを保持しているかを返す。
// nilレシーバーはロールなしとして扱う。
func (u *User) HasRole(role Role) bool {
	if u == nil || role == RoleNone {
		return false
	}
	return u.Role == role
}
