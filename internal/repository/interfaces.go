// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/tweetman/internal/model"
)

// TweetRepository はブックマーク済みツイートの永続化インターフェース。
// ページネーションはCountとListの組で実現する。
type TweetRepository interface {
	// Count はフィルタに一致するツイートの総件数を返す。
	Count(ctx context.Context, filter model.TweetFilter) (int, error)

	// List はフィルタに一致するツイートをオフセットページネーションで取得する。
	// orderに従ってソートし、skip件読み飛ばして最大take件を返す。
	List(ctx context.Context, filter model.TweetFilter, order model.TweetOrder, skip, take int) ([]model.Tweet, error)

	// FindByID は指定IDのツイートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tweet, error)

	// FindByUserAndTweetID はユーザーIDとTwitter側ツイートIDでツイートを検索する。
	// 重複登録チェックに使用する。見つからない場合はnilを返す。
	FindByUserAndTweetID(ctx context.Context, userID, tweetID string) (*model.Tweet, error)

	// Create はツイートを登録する。
	Create(ctx context.Context, tweet *model.Tweet) error

	// UpdateTags は指定IDのツイートのタグを置き換える。
	UpdateTags(ctx context.Context, id string, tags []string, updatedAt time.Time) error

	// DeleteByID は指定IDのツイートを削除する。
	DeleteByID(ctx context.Context, id string) error

	// ListTagsByUserID はユーザーの全ブックマークに付与されたタグを重複なしで返す。
	ListTagsByUserID(ctx context.Context, userID string) ([]string, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションの発行は本サービスの外で行われるため参照のみを提供する。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}
