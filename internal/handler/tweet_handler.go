// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tweetman/internal/middleware"
	"github.com/hitoshi/tweetman/internal/model"
)

// TweetServiceInterface はツイートブックマークハンドラーが必要とするサービスインターフェース。
type TweetServiceInterface interface {
	// List はユーザーのブックマーク一覧をページネーション付きで返す。
	List(ctx context.Context, userID string, filter model.TweetFilter, order model.TweetOrder, page model.PageParams) (*model.TweetPage, error)
	// Save はツイートURL/IDからブックマークを登録する。
	Save(ctx context.Context, userID, rawURL string, tags []string) (*model.Tweet, error)
	// UpdateTags はブックマークのタグを置き換える。見つからない場合はnilを返す。
	UpdateTags(ctx context.Context, userID, id string, tags []string) (*model.Tweet, error)
	// Delete はブックマークを削除する。見つからない場合はfalseを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)
	// ListTags はユーザーの全タグを重複なしで返す。
	ListTags(ctx context.Context, userID string) ([]string, error)
}

// TweetHandler はツイートブックマーク管理のHTTPハンドラー。
type TweetHandler struct {
	service TweetServiceInterface
}

// NewTweetHandler はTweetHandlerを生成する。
func NewTweetHandler(service TweetServiceInterface) *TweetHandler {
	return &TweetHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// tweetResponse はブックマーク1件のレスポンス。
type tweetResponse struct {
	ID        string    `json:"id"`
	TweetID   string    `json:"tweet_id"`
	URL       string    `json:"url"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// tweetPageResponse はブックマーク一覧のレスポンス。
type tweetPageResponse struct {
	Tweets   []tweetResponse   `json:"tweets"`
	HasMore  bool              `json:"has_more"`
	NextPage *model.PageParams `json:"next_page"` // HasMoreがfalseの場合はnull
	Count    int               `json:"count"`
}

// saveTweetRequest はブックマーク登録リクエストのボディ。
type saveTweetRequest struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags,omitempty"`
}

// updateTagsRequest はタグ更新リクエストのボディ。
type updateTagsRequest struct {
	Tags []string `json:"tags"`
}

func toTweetResponse(t model.Tweet) tweetResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return tweetResponse{
		ID:        t.ID,
		TweetID:   t.TweetID,
		URL:       t.URL,
		Tags:      tags,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// ListTweets はブックマーク一覧を取得する。
// GET /api/tweets?tag=xxx&q=xxx&skip=0&take=100&order=newest|oldest
// skip・takeの省略時はそれぞれ0・100として扱う。
func (h *TweetHandler) ListTweets(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	q := r.URL.Query()

	page := model.PageParams{}
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, invalidPageError("skip"))
			return
		}
		page.Skip = n
	}
	if v := q.Get("take"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, invalidPageError("take"))
			return
		}
		page.Take = n
	}

	filter := model.TweetFilter{
		Tag:   q.Get("tag"),
		Query: q.Get("q"),
	}

	// デフォルトのソート順は作成日時の降順
	order := model.TweetOrderNewest
	if q.Get("order") == string(model.TweetOrderOldest) {
		order = model.TweetOrderOldest
	}

	result, err := h.service.List(r.Context(), userID, filter, order, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	tweets := make([]tweetResponse, len(result.Tweets))
	for i, t := range result.Tweets {
		tweets[i] = toTweetResponse(t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tweetPageResponse{
		Tweets:   tweets,
		HasMore:  result.HasMore,
		NextPage: result.NextPage,
		Count:    result.Count,
	})
}

// SaveTweet はブックマークを登録する。
// POST /api/tweets
func (h *TweetHandler) SaveTweet(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req saveTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	t, err := h.service.Save(r.Context(), userID, req.URL, req.Tags)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTweetResponse(*t))
}

// UpdateTweetTags はブックマークのタグを更新する。
// PUT /api/tweets/:id/tags
func (h *TweetHandler) UpdateTweetTags(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	var req updateTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	t, err := h.service.UpdateTags(r.Context(), userID, id, req.Tags)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if t == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTweetNotFoundError(id))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTweetResponse(*t))
}

// DeleteTweet はブックマークを削除する。
// DELETE /api/tweets/:id
func (h *TweetHandler) DeleteTweet(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")

	deleted, err := h.service.Delete(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !deleted {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTweetNotFoundError(id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTweetTags はユーザーの全タグ一覧を取得する。
// GET /api/tweets/tags
func (h *TweetHandler) ListTweetTags(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	tags, err := h.service.ListTags(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"tags": tags})
}

// --- エラーヘルパー ---

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeUnauthorized は401 Unauthorizedの統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// invalidRequestBodyError はリクエストボディ不正のエラーを生成する。
func invalidRequestBodyError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// invalidPageError はページネーションパラメータ不正のエラーを生成する。
func invalidPageError(param string) *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeInvalidPage,
		Message:  "ページネーションパラメータが不正です: " + param,
		Category: "validation",
		Action:   "skipとtakeには整数を指定してください。",
	}
}

// handleServiceError はサービス層のエラーをHTTPレスポンスにマッピングする。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidURL, model.ErrCodeInvalidPage:
		return http.StatusBadRequest
	case model.ErrCodeTweetNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateTweet:
		return http.StatusConflict
	case model.ErrCodeUpstreamFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
