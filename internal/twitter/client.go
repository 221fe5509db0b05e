// Package twitter はTwitter API v2との連携機能を提供する。
// ツイート・ユーザーのルックアップAPIの呼び出しと、
// ツイートURL/IDの解析、2段階ルックアップの合成を含む。
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// defaultAPIBaseURL はTwitter API v2のベースURL。
	defaultAPIBaseURL = "https://api.twitter.com"
	// tweetFields はツイートルックアップで要求する固定のフィールド選択。
	tweetFields = "author_id,public_metrics,created_at"
	// userFields はユーザールックアップで要求する固定のフィールド選択。
	userFields = "profile_image_url"
)

// PublicMetrics はツイートのエンゲージメント数を表す。
type PublicMetrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

// TweetData はTwitter APIから取得したツイートを表す。
type TweetData struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	AuthorID      string        `json:"author_id"`
	CreatedAt     string        `json:"created_at"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
}

// UserData はTwitter APIから取得したユーザープロフィールを表す。
type UserData struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
}

// UpstreamMetrics はTwitter API呼び出しのメトリクス記録に必要なインターフェース。
// metrics.Collectorの部分集合として定義する。
type UpstreamMetrics interface {
	RecordUpstreamStatus(statusCode int)
	RecordUpstreamLatency(duration time.Duration)
}

// Client はTwitter API v2のクライアント。
// ベアラートークンによる認証でツイート・ユーザーのルックアップを行う。
// トークンは生成時に注入され、リクエストごとに環境変数を参照することはない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    UpstreamMetrics
	bearer     string
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, metrics UpstreamMetrics, bearerToken string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
		bearer:     bearerToken,
		baseURL:    defaultAPIBaseURL,
	}
}

// SetBaseURL はAPIのベースURLを差し替える。テスト専用。
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// LookupTweet は指定IDのツイートを取得する。
// ツイートが存在しない（レスポンスのdata配列が空の）場合はnilを返す。
// ネットワークエラーと非2xxステータスはエラーとして返す（リトライしない）。
func (c *Client) LookupTweet(ctx context.Context, tweetID string) (*TweetData, error) {
	q := url.Values{}
	q.Set("ids", tweetID)
	q.Set("tweet.fields", tweetFields)

	body, err := c.get(ctx, "/2/tweets", q)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []TweetData `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("ツイートルックアップのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
			slog.String("tweet_id", tweetID),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	// data配列が空の場合はツイートが存在しない
	if len(result.Data) == 0 {
		return nil, nil
	}

	return &result.Data[0], nil
}

// LookupUser は指定IDのユーザープロフィールを取得する。
// ユーザーが存在しない（レスポンスにdataがない）場合はnilを返す。
func (c *Client) LookupUser(ctx context.Context, userID string) (*UserData, error) {
	q := url.Values{}
	q.Set("user.fields", userFields)

	body, err := c.get(ctx, "/2/users/"+url.PathEscape(userID), q)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data *UserData `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("ユーザールックアップのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
			slog.String("user_id", userID),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if result.Data == nil {
		return nil, nil
	}

	return result.Data, nil
}

// get は認証ヘッダー付きのGETリクエストを実行し、2xxの場合にボディを返す。
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordUpstreamLatency(time.Since(start))
	if err != nil {
		c.logger.Error("Twitter APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("path", path),
		)
		return nil, err
	}
	defer resp.Body.Close()

	c.metrics.RecordUpstreamStatus(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Twitter APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("path", path),
		)
		return nil, fmt.Errorf("Twitter APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, nil
}
