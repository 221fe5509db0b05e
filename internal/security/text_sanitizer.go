// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はTwitter APIから取得したツイート本文をサニタイズし、
// XSS攻撃などのセキュリティリスクからクライアントを保護する。
// ツイート本文はプレーンテキストとして扱うため、bluemondayの
// 厳格ポリシーですべてのHTMLタグを除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はテキストサニタイズ機能のインターフェースを定義する。
// API応答にツイート本文を含める前に使用される。
type TextSanitizerService interface {
	// Sanitize はテキストからすべてのHTMLタグを除去したプレーンテキストを返す。
	// HTMLエンティティ（&amp;等）は元の文字に復元する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、すべてのタグが除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はテキストからすべてのHTMLタグを除去したプレーンテキストを返す。
// bluemondayはタグ除去後にエンティティエスケープされたテキストを返すため、
// html.UnescapeStringで元の文字に戻す。Twitter APIのtextフィールドは
// &amp;、&lt;、&gt;をエスケープ済みで返すので、この復元は二重エスケープの防止にもなる。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := s.policy.Sanitize(raw)
	cleaned = html.UnescapeString(cleaned)

	return strings.TrimSpace(cleaned)
}

// compile-time interface check
var _ TextSanitizerService = (*textSanitizer)(nil)
