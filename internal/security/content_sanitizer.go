// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は講座名・講師名などの利用者入力から全てのHTMLを除去し、
// 保存前にプレーンテキストへ正規化する。
// 画像URLの検証と、決済事業者向けの送信先制限付きHTTPクライアントも提供する。
package security

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト項目のサニタイズ機能のインターフェースを定義する。
// 講座作成時とカート追加時のスナップショット作成時に使用される。
type TextSanitizer interface {
	// SanitizeText は入力から全てのHTMLタグを除去し、前後の空白と制御文字を取り除く。
	// HTMLとして特別な意味を持つ文字はエスケープされた状態で返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため共有して使う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// 要素・属性を一切許可しないStrictPolicyを使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力から全てのHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, raw)
	return strings.TrimSpace(s.policy.Sanitize(cleaned))
}
