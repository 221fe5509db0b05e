package twitter

import (
	"context"

	"github.com/hitoshi/tweetman/internal/model"
	"github.com/hitoshi/tweetman/internal/security"
)

// TweetAPI はルックアップサービスが必要とするTwitter APIクライアントのインターフェース。
type TweetAPI interface {
	// LookupTweet は指定IDのツイートを取得する。存在しない場合はnilを返す。
	LookupTweet(ctx context.Context, tweetID string) (*TweetData, error)
	// LookupUser は指定IDのユーザープロフィールを取得する。存在しない場合はnilを返す。
	LookupUser(ctx context.Context, userID string) (*UserData, error)
}

// LookupMetrics はルックアップ結果のメトリクス記録に必要なインターフェース。
// metrics.Collectorの部分集合として定義する。
type LookupMetrics interface {
	RecordLookupSuccess()
	RecordLookupFailure(reason string)
}

// LookupResult はツイートと投稿者を統合したルックアップ結果を表す。
// リクエストごとに構築される一時データで、永続化もキャッシュもされない。
type LookupResult struct {
	ID            string        `json:"id"`
	User          UserData      `json:"user"`
	Text          string        `json:"text"`
	CreatedAt     string        `json:"created_at"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
}

// Service はツイートルックアップのドメインサービス。
// ID解析 → ツイート取得 → 投稿者取得 → 統合 を直列に実行する。
type Service struct {
	api       TweetAPI
	sanitizer security.TextSanitizerService
	metrics   LookupMetrics
}

// NewService はServiceを生成する。
func NewService(api TweetAPI, sanitizer security.TextSanitizerService, metrics LookupMetrics) *Service {
	return &Service{
		api:       api,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Lookup は生のツイートURL/IDからルックアップ結果を構築する。
//
// 2回のTwitter API呼び出しは厳密に直列で、2回目は1回目のauthor_idに依存する。
// リトライは行わない。エラーは以下のように区別する:
//   - 入力からIDを取り出せない → INVALID_URL
//   - ツイートまたは投稿者が存在しない → TWEET_NOT_FOUND
//   - ネットワークエラー、非2xx、不正なJSON → UPSTREAM_FAILED
func (s *Service) Lookup(ctx context.Context, rawURL string) (*LookupResult, error) {
	tweetID, err := ParseTweetID(rawURL)
	if err != nil {
		s.metrics.RecordLookupFailure("invalid_url")
		return nil, model.NewInvalidURLError(err.Error())
	}

	tweet, err := s.api.LookupTweet(ctx, tweetID)
	if err != nil {
		s.metrics.RecordLookupFailure("upstream")
		return nil, model.NewUpstreamFailedError(err.Error())
	}
	if tweet == nil {
		s.metrics.RecordLookupFailure("not_found")
		return nil, model.NewTweetNotFoundError(tweetID)
	}

	user, err := s.api.LookupUser(ctx, tweet.AuthorID)
	if err != nil {
		s.metrics.RecordLookupFailure("upstream")
		return nil, model.NewUpstreamFailedError(err.Error())
	}
	if user == nil {
		// ツイートはあるが投稿者が取得できない場合も未検出として扱う
		s.metrics.RecordLookupFailure("not_found")
		return nil, model.NewTweetNotFoundError(tweetID)
	}

	s.metrics.RecordLookupSuccess()

	return &LookupResult{
		ID:            tweetID,
		User:          *user,
		Text:          s.sanitizer.Sanitize(tweet.Text),
		CreatedAt:     tweet.CreatedAt,
		PublicMetrics: tweet.PublicMetrics,
	}, nil
}
