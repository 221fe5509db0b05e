// Package model はドメインモデルを定義する。
package model

import "time"

// Tweet はユーザーがブックマークしたツイートを表す。
type Tweet struct {
	ID        string
	UserID    string
	TweetID   string // Twitter側のツイートID（数値文字列）
	URL       string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TweetOrder はツイート一覧のソート順を表す。
type TweetOrder string

const (
	// TweetOrderNewest は作成日時の降順（デフォルト）。
	TweetOrderNewest TweetOrder = "newest"
	// TweetOrderOldest は作成日時の昇順。
	TweetOrderOldest TweetOrder = "oldest"
)

// TweetFilter はツイート一覧の絞り込み条件を表す。
// UserIDは常に認証済みユーザーのIDが設定される（テナント境界）。
type TweetFilter struct {
	UserID string
	Tag    string // 空文字列の場合はタグで絞り込まない
	Query  string // 空文字列の場合はURL部分一致で絞り込まない
}

const (
	// DefaultPageTake はページネーションの1ページあたりのデフォルト件数。
	DefaultPageTake = 100
	// MaxPageTake は1ページあたりの最大件数。
	MaxPageTake = 100
)

// PageParams はオフセットベースのページネーションパラメータを表す。
type PageParams struct {
	Skip int `json:"skip"`
	Take int `json:"take"`
}

// Normalize は範囲外のパラメータをデフォルト値に丸めたPageParamsを返す。
// Skipが負の場合は0、Takeが0以下の場合はDefaultPageTake、
// TakeがMaxPageTakeを超える場合はMaxPageTakeになる。
func (p PageParams) Normalize() PageParams {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Take <= 0 {
		p.Take = DefaultPageTake
	}
	if p.Take > MaxPageTake {
		p.Take = MaxPageTake
	}
	return p
}

// TweetPage はツイート一覧の1ページとページネーションメタデータを表す。
// 永続化されない導出データ。
type TweetPage struct {
	Tweets   []Tweet
	HasMore  bool
	NextPage *PageParams // HasMoreがfalseの場合はnil
	Count    int         // フィルタに一致する総件数
}

// Session はユーザーのログインセッションを表す。
// セッションの発行（ログイン）は本サービスの外で行われる。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
