package model

import "time"

// Teacher は講師紹介用の読み取り専用レコードを表す。
type Teacher struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Image    string `json:"image,omitempty"`
	Language string `json:"language,omitempty"`
	Students int    `json:"students"`
}

// Class は講座レコードを表す。
// 講師が作成し、全ユーザーが閲覧する。
type Class struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	InstructorName  string    `json:"instructorName"`
	InstructorEmail string    `json:"instructorEmail"`
	Image           string    `json:"image,omitempty"`
	Price           float64   `json:"price"`
	Seats           int       `json:"seats"`
	CreatedAt       time.Time `json:"createdAt"`
}
