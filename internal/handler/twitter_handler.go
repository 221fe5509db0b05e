package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/tweetman/internal/twitter"
)

// TwitterServiceInterface はルックアッププロキシハンドラーが必要とするサービスインターフェース。
type TwitterServiceInterface interface {
	// Lookup は生のツイートURL/IDからツイートと投稿者を統合した結果を返す。
	Lookup(ctx context.Context, rawURL string) (*twitter.LookupResult, error)
}

// TwitterHandler はツイートルックアッププロキシのHTTPハンドラー。
// 認証を要求しない公開エンドポイント。
type TwitterHandler struct {
	service TwitterServiceInterface
}

// NewTwitterHandler はTwitterHandlerを生成する。
func NewTwitterHandler(service TwitterServiceInterface) *TwitterHandler {
	return &TwitterHandler{service: service}
}

// Lookup はツイートURL/IDをTwitter APIで解決して統合結果を返す。
// GET /api/twitter?url=<ツイートURLまたはID>
//
// urlパラメータが存在しない場合は空文字列、複数回指定された場合は
// 最初の値をサービスに渡す（Query().Getの仕様に一致）。
func (h *TwitterHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")

	result, err := h.service.Lookup(r.Context(), rawURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
