package model

import "time"

// ClassSnapshot は選択時点の講座メタデータの写しを表す。
// 講座側が後から更新されても、カート表示と支払い金額は選択時の値を使う。
type ClassSnapshot struct {
	Title          string  `json:"title"`
	InstructorName string  `json:"instructorName,omitempty"`
	Image          string  `json:"image,omitempty"`
	Price          float64 `json:"price"`
}

// Selection はカートに入った受講申込（支払い待ち）を表す。
// 対応する支払いが完了した時点で1回だけ削除される。
type Selection struct {
	ID        string        `json:"_id"`
	Email     string        `json:"email"`
	ClassID   string        `json:"classId"`
	Class     ClassSnapshot `json:"class"`
	CreatedAt time.Time     `json:"createdAt"`
}
