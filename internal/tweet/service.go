// Package tweet はツイートブックマークのドメインサービスを提供する。
package tweet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tweetman/internal/model"
	"github.com/hitoshi/tweetman/internal/repository"
	"github.com/hitoshi/tweetman/internal/twitter"
)

// BookmarkMetrics はブックマーク操作のメトリクス記録に必要なインターフェース。
// metrics.Collectorの部分集合として定義する。
type BookmarkMetrics interface {
	RecordBookmarkCreated()
}

// Service はツイートブックマークのドメインサービス。
// 一覧はCount+Listの組によるオフセットページネーションで提供する。
type Service struct {
	repo    repository.TweetRepository
	metrics BookmarkMetrics
}

// NewService はServiceを生成する。
func NewService(repo repository.TweetRepository, metrics BookmarkMetrics) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
	}
}

// List はユーザーのブックマーク一覧をページネーション付きで返す。
//
// フィルタのUserIDは引数のuserIDで常に上書きされる（テナント境界）。
// ページネーションメタデータは以下のように導出する:
//   - HasMore: skip + 取得件数 < 総件数
//   - NextPage: HasMoreの場合 {skip: skip+take, take}、そうでなければnil
//   - Count: フィルタに一致する総件数（skip/takeに依存しない）
//
// リポジトリのエラーはそのまま呼び出し元へ伝播する。
func (s *Service) List(
	ctx context.Context,
	userID string,
	filter model.TweetFilter,
	order model.TweetOrder,
	page model.PageParams,
) (*model.TweetPage, error) {
	page = page.Normalize()
	filter.UserID = userID

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	tweets, err := s.repo.List(ctx, filter, order, page.Skip, page.Take)
	if err != nil {
		return nil, err
	}

	hasMore := page.Skip+len(tweets) < total

	var nextPage *model.PageParams
	if hasMore {
		nextPage = &model.PageParams{
			Skip: page.Skip + page.Take,
			Take: page.Take,
		}
	}

	return &model.TweetPage{
		Tweets:   tweets,
		HasMore:  hasMore,
		NextPage: nextPage,
		Count:    total,
	}, nil
}

// Save はツイートURL/IDからブックマークを登録する。
// 同一ユーザーが同じツイートを二重登録した場合はDUPLICATE_TWEETエラーを返す。
func (s *Service) Save(ctx context.Context, userID, rawURL string, tags []string) (*model.Tweet, error) {
	tweetID, err := twitter.ParseTweetID(rawURL)
	if err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}

	existing, err := s.repo.FindByUserAndTweetID(ctx, userID, tweetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateTweetError()
	}

	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	t := &model.Tweet{
		ID:        uuid.NewString(),
		UserID:    userID,
		TweetID:   tweetID,
		URL:       rawURL,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.metrics.RecordBookmarkCreated()

	return t, nil
}

// UpdateTags は指定ブックマークのタグを置き換える。
// ブックマークが存在しない、または他ユーザーの所有物の場合はnilを返す。
func (s *Service) UpdateTags(ctx context.Context, userID, id string, tags []string) (*model.Tweet, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, nil
	}

	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	if err := s.repo.UpdateTags(ctx, id, tags, now); err != nil {
		return nil, err
	}

	t.Tags = tags
	t.UpdatedAt = now

	return t, nil
}

// Delete は指定ブックマークを削除する。
// 削除した場合はtrue、存在しないか他ユーザーの所有物の場合はfalseを返す。
func (s *Service) Delete(ctx context.Context, userID, id string) (bool, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if t == nil || t.UserID != userID {
		return false, nil
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return false, err
	}

	return true, nil
}

// ListTags はユーザーの全ブックマークに付与されたタグを重複なしで返す。
func (s *Service) ListTags(ctx context.Context, userID string) ([]string, error) {
	tags, err := s.repo.ListTagsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
