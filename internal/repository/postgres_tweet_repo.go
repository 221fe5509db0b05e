package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/tweetman/internal/model"
)

// PostgresTweetRepo はPostgreSQLを使用したツイートリポジトリ。
type PostgresTweetRepo struct {
	db *sql.DB
}

// NewPostgresTweetRepo はPostgresTweetRepoを生成する。
func NewPostgresTweetRepo(db *sql.DB) *PostgresTweetRepo {
	return &PostgresTweetRepo{db: db}
}

// buildTweetWhere はフィルタからWHERE句と引数リストを構築する。
// user_idによる絞り込みは常に行う（テナント境界）。
func buildTweetWhere(filter model.TweetFilter) (string, []interface{}) {
	where := "WHERE user_id = $1"
	args := []interface{}{filter.UserID}

	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where += fmt.Sprintf(" AND $%d = ANY(tags)", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where += fmt.Sprintf(" AND url ILIKE $%d", len(args))
	}

	return where, args
}

// orderClause はソート順からORDER BY句を返す。
// 未知の値は作成日時の降順として扱う。
func orderClause(order model.TweetOrder) string {
	if order == model.TweetOrderOldest {
		return "ORDER BY created_at ASC"
	}
	return "ORDER BY created_at DESC"
}

// Count はフィルタに一致するツイートの総件数を返す。
func (r *PostgresTweetRepo) Count(ctx context.Context, filter model.TweetFilter) (int, error) {
	where, args := buildTweetWhere(filter)

	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tweets "+where,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ツイート件数の取得に失敗しました: %w", err)
	}

	return count, nil
}

// List はフィルタに一致するツイートをオフセットページネーションで取得する。
func (r *PostgresTweetRepo) List(
	ctx context.Context,
	filter model.TweetFilter,
	order model.TweetOrder,
	skip, take int,
) ([]model.Tweet, error) {
	where, args := buildTweetWhere(filter)

	query := fmt.Sprintf(
		`SELECT id, user_id, tweet_id, url, tags, created_at, updated_at
		 FROM tweets %s %s OFFSET $%d LIMIT $%d`,
		where, orderClause(order), len(args)+1, len(args)+2,
	)
	args = append(args, skip, take)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ツイート一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tweets []model.Tweet
	for rows.Next() {
		var t model.Tweet
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.TweetID, &t.URL,
			pq.Array(&t.Tags), &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ツイート行の読み取りに失敗しました: %w", err)
		}
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ツイート一覧の走査に失敗しました: %w", err)
	}

	return tweets, nil
}

// FindByID は指定IDのツイートを取得する。見つからない場合はnilを返す。
func (r *PostgresTweetRepo) FindByID(ctx context.Context, id string) (*model.Tweet, error) {
	t := &model.Tweet{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, tweet_id, url, tags, created_at, updated_at
		 FROM tweets WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.UserID, &t.TweetID, &t.URL, pq.Array(&t.Tags), &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ツイートの取得に失敗しました: %w", err)
	}

	return t, nil
}

// FindByUserAndTweetID はユーザーIDとTwitter側ツイートIDでツイートを検索する。
func (r *PostgresTweetRepo) FindByUserAndTweetID(ctx context.Context, userID, tweetID string) (*model.Tweet, error) {
	t := &model.Tweet{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, tweet_id, url, tags, created_at, updated_at
		 FROM tweets WHERE user_id = $1 AND tweet_id = $2`,
		userID, tweetID,
	).Scan(&t.ID, &t.UserID, &t.TweetID, &t.URL, pq.Array(&t.Tags), &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ツイートIDによるツイートの検索に失敗しました: %w", err)
	}

	return t, nil
}

// Create はツイートを登録する。
func (r *PostgresTweetRepo) Create(ctx context.Context, tweet *model.Tweet) error {
	tags := tweet.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tweets (id, user_id, tweet_id, url, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tweet.ID, tweet.UserID, tweet.TweetID, tweet.URL,
		pq.Array(tags), tweet.CreatedAt, tweet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ツイートの登録に失敗しました: %w", err)
	}
	return nil
}

// UpdateTags は指定IDのツイートのタグを置き換える。
func (r *PostgresTweetRepo) UpdateTags(ctx context.Context, id string, tags []string, updatedAt time.Time) error {
	if tags == nil {
		tags = []string{}
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE tweets SET tags = $2, updated_at = $3 WHERE id = $1`,
		id, pq.Array(tags), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("タグの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのツイートを削除する。
func (r *PostgresTweetRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ツイートの削除に失敗しました: %w", err)
	}
	return nil
}

// ListTagsByUserID はユーザーの全ブックマークに付与されたタグを重複なしで返す。
func (r *PostgresTweetRepo) ListTagsByUserID(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT unnest(tags) AS tag FROM tweets WHERE user_id = $1 ORDER BY tag`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("タグ行の読み取りに失敗しました: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグ一覧の走査に失敗しました: %w", err)
	}

	return tags, nil
}

// compile-time interface check
var _ TweetRepository = (*PostgresTweetRepo)(nil)
