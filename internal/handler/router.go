package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tweetman/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// ヘルスチェック
	HealthChecker HealthChecker

	// ブックマーク
	TweetService TweetServiceInterface

	// ルックアッププロキシ
	TwitterService TwitterServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → （認証ルートのみ）Session → RateLimit
//
// ルックアッププロキシ（/api/twitter）は認証なしでIP単位のレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	tweetHandler := NewTweetHandler(deps.TweetService)
	twitterHandler := NewTwitterHandler(deps.TwitterService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// ルックアッププロキシ（公開、IP単位のレート制限のみ）
	r.With(deps.RateLimiter.LookupMiddleware()).Get("/api/twitter", twitterHandler.Lookup)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/tweets", func(r chi.Router) {
			r.Get("/", tweetHandler.ListTweets)

			// POST /api/tweets - ブックマーク登録（登録専用レート制限を追加）
			r.With(deps.RateLimiter.BookmarkMiddleware()).Post("/", tweetHandler.SaveTweet)

			// GET /api/tweets/tags - タグ一覧
			r.Get("/tags", tweetHandler.ListTweetTags)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/tags", tweetHandler.UpdateTweetTags)
				r.Delete("/", tweetHandler.DeleteTweet)
			})
		})
	})

	return r
}
