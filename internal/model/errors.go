// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, tweet, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidURL     = "INVALID_URL"
	ErrCodeTweetNotFound  = "TWEET_NOT_FOUND"
	ErrCodeDuplicateTweet = "DUPLICATE_TWEET"
	ErrCodeUpstreamFailed = "UPSTREAM_FAILED"
	ErrCodeInvalidPage    = "INVALID_PAGE"
)

// NewInvalidURLError は無効なツイートURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なツイートURLです: %s", reason),
		Category: "validation",
		Action:   "ツイートのURL（https://twitter.com/.../status/... または https://x.com/...）かツイートIDを入力してください。",
	}
}

// NewTweetNotFoundError はツイート未検出エラーを生成する。
func NewTweetNotFoundError(tweetID string) *APIError {
	return &APIError{
		Code:     ErrCodeTweetNotFound,
		Message:  fmt.Sprintf("指定されたツイートが見つかりません: %s", tweetID),
		Category: "tweet",
		Action:   "ツイートが削除されていないか、IDが正しいか確認してください。",
	}
}

// NewDuplicateTweetError は登録済みツイートの再登録エラーを生成する。
func NewDuplicateTweetError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateTweet,
		Message:  "このツイートは既に登録されています。",
		Category: "tweet",
		Action:   "ブックマーク一覧から該当ツイートを確認してください。",
	}
}

// NewUpstreamFailedError はTwitter API呼び出し失敗エラーを生成する。
func NewUpstreamFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  fmt.Sprintf("Twitter APIの呼び出しに失敗しました: %s", reason),
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
