package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // 認証済みAPI全般のレート（req/sec）
	GeneralBurst    int           // 認証済みAPI全般のバーストサイズ
	BookmarkRate    rate.Limit    // ブックマーク登録のレート（req/sec）
	BookmarkBurst   int           // ブックマーク登録のバーストサイズ
	LookupRate      rate.Limit    // 公開ルックアップのレート（req/sec、IP単位）
	LookupBurst     int           // 公開ルックアップのバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig は1分あたりのリクエスト数からレート制限設定を構築する。
// 各制限のバーストサイズは1分あたりのリクエスト数と同じ値になる。
// 値は環境変数（RATE_LIMIT_GENERAL等）から渡されることを想定している。
func NewRateLimiterConfig(generalPerMin, bookmarkPerMin, lookupPerMin int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMin) / 60.0),
		GeneralBurst:    generalPerMin,
		BookmarkRate:    rate.Limit(float64(bookmarkPerMin) / 60.0),
		BookmarkBurst:   bookmarkPerMin,
		LookupRate:      rate.Limit(float64(lookupPerMin) / 60.0),
		LookupBurst:     lookupPerMin,
		CleanupInterval: 5 * time.Minute,
	}
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/user、ブックマーク登録 10 req/min/user、
// 公開ルックアップ 60 req/min/IP。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return NewRateLimiterConfig(120, 10, 60)
}

// keyedEntry はキーごとのレートリミッターと最終アクセス時刻を保持する。
type keyedEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// keyedLimiters はキー（ユーザーIDまたはIPアドレス）ごとのリミッター集合。
type keyedLimiters struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	limit   rate.Limit
	burst   int
}

func newKeyedLimiters(limit rate.Limit, burst int) *keyedLimiters {
	return &keyedLimiters{
		entries: make(map[string]*keyedEntry),
		limit:   limit,
		burst:   burst,
	}
}

// allow はキーのリミッターを取得（なければ作成）してトークン消費を試みる。
func (k *keyedLimiters) allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.lastAccess = time.Now()

	return e.limiter.Allow()
}

// count は現在管理されているエントリ数を返す。テスト用。
func (k *keyedLimiters) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

// cleanup は最終アクセス時刻がttlを超えたエントリを削除する。
func (k *keyedLimiters) cleanup(ttl time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	for key, e := range k.entries {
		if now.Sub(e.lastAccess) > ttl {
			delete(k.entries, key)
		}
	}
}

// RateLimiter はキーごとのレート制限を管理する。
// 認証済みAPI全般（ユーザー単位）、ブックマーク登録（ユーザー単位）、
// 公開ルックアップ（IP単位）の3種類を提供する。
type RateLimiter struct {
	config   RateLimiterConfig
	general  *keyedLimiters
	bookmark *keyedLimiters
	lookup   *keyedLimiters
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		general:  newKeyedLimiters(config.GeneralRate, config.GeneralBurst),
		bookmark: newKeyedLimiters(config.BookmarkRate, config.BookmarkBurst),
		lookup:   newKeyedLimiters(config.LookupRate, config.LookupBurst),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware は認証済みAPI全般のレート制限ミドルウェアを返す。
// リクエストコンテキストにユーザーIDが含まれている必要がある（SessionMiddlewareの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.userKeyedMiddleware(rl.general, "general")
}

// BookmarkMiddleware はブックマーク登録専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) BookmarkMiddleware() func(next http.Handler) http.Handler {
	return rl.userKeyedMiddleware(rl.bookmark, "bookmark")
}

// LookupMiddleware は公開ルックアップエンドポイント用のレート制限ミドルウェアを返す。
// 認証を要求しないルートのため、リモートIPアドレスをキーにする。
func (rl *RateLimiter) LookupMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !rl.lookup.allow(ip) {
				writeRateLimitResponse(w, rl.config.LookupRate)
				slog.Warn("rate limit exceeded",
					slog.String("remote_ip", ip),
					slog.String("limit_type", "lookup"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// userKeyedMiddleware はユーザーIDをキーにしたレート制限ミドルウェアを返す。
func (rl *RateLimiter) userKeyedMiddleware(limiters *keyedLimiters, limitType string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				writeUnauthorizedResponse(w)
				return
			}

			if !limiters.allow(userID) {
				writeRateLimitResponse(w, limiters.limit)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", limitType),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.count()
}

// LookupLimiterCount は現在管理されているルックアップリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LookupLimiterCount() int {
	return rl.lookup.count()
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ttl := rl.config.CleanupInterval * 2
			rl.general.cleanup(ttl)
			rl.bookmark.cleanup(ttl)
			rl.lookup.cleanup(ttl)
		case <-rl.stopCh:
			return
		}
	}
}

// clientIP はリクエストからクライアントIPアドレスを取り出す。
// ポート番号を除いたホスト部を返す。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "rate_limit_exceeded",
		"message":  "Too many requests. Please try again later.",
		"category": "system",
		"action":   "Please wait and retry after the specified time.",
	})
}
