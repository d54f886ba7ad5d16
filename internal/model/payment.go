package model

import "time"

// Payment は完了した支払いの記録を表す。
// 作成後は不変で、削除されない（監査証跡）。受講済み判定の正本となる。
type Payment struct {
	ID                   string    `json:"_id"`
	Email                string    `json:"email"`
	ClassID              string    `json:"classId"`
	Amount               float64   `json:"amount"`
	TransactionReference string    `json:"transactionId"`
	CreatedAt            time.Time `json:"date"`
}

// PaymentIntent は決済事業者側で作成される支払いインテントを表す。
// ローカルには永続化しない。Amountは常に最小通貨単位（価格×100）。
type PaymentIntent struct {
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"clientSecret"`
}
