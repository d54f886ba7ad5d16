package model

import "github.com/shopspring/decimal"

// MaxPriceText は価格・支払い金額の上限値の文字列表現。
// classes.price / payments.amount（NUMERIC(12,2)）に格納できる最大値と一致させる。
const MaxPriceText = "9999999999.99"

// MaxPrice は価格・支払い金額の上限値。
var MaxPrice = decimal.RequireFromString(MaxPriceText)
