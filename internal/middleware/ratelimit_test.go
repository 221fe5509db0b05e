package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// testRateLimiterConfig はテスト用の小さいバーストの設定を返す。
func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    3,
		BookmarkRate:    rate.Limit(1.0 / 60.0),
		BookmarkBurst:   2,
		LookupRate:      rate.Limit(1.0 / 60.0),
		LookupBurst:     2,
		CleanupInterval: time.Hour,
	}
}

// TestNewRateLimiterConfig は1分あたりのリクエスト数からの設定構築を検証する。
// 環境変数で渡された値がそのままレートとバーストに反映される。
func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(240, 5, 30)

	if cfg.GeneralRate != rate.Limit(4.0) {
		t.Errorf("GeneralRate = %v, want %v", cfg.GeneralRate, rate.Limit(4.0))
	}
	if cfg.GeneralBurst != 240 {
		t.Errorf("GeneralBurst = %d, want 240", cfg.GeneralBurst)
	}
	if cfg.BookmarkRate != rate.Limit(5.0/60.0) {
		t.Errorf("BookmarkRate = %v, want %v", cfg.BookmarkRate, rate.Limit(5.0/60.0))
	}
	if cfg.BookmarkBurst != 5 {
		t.Errorf("BookmarkBurst = %d, want 5", cfg.BookmarkBurst)
	}
	if cfg.LookupRate != rate.Limit(0.5) {
		t.Errorf("LookupRate = %v, want %v", cfg.LookupRate, rate.Limit(0.5))
	}
	if cfg.LookupBurst != 30 {
		t.Errorf("LookupBurst = %d, want 30", cfg.LookupBurst)
	}
}

// TestDefaultRateLimiterConfig はデフォルト設定が既定の分間レートと一致することを検証する。
func TestDefaultRateLimiterConfig(t *testing.T) {
	got := DefaultRateLimiterConfig()
	want := NewRateLimiterConfig(120, 10, 60)

	if got != want {
		t.Errorf("DefaultRateLimiterConfig() = %+v, want %+v", got, want)
	}
}

// TestRateLimiter_GeneralMiddleware_PerUser はユーザー単位のレート制限を検証する。
func TestRateLimiter_GeneralMiddleware_PerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.GeneralMiddleware()(next)

	doRequest := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/tweets", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// バースト分は通る
	for i := 0; i < 3; i++ {
		if code := doRequest("user-1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, code, http.StatusOK)
		}
	}

	// バーストを超えると429
	if code := doRequest("user-1"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", code, http.StatusTooManyRequests)
	}

	// 別ユーザーには影響しない
	if code := doRequest("user-2"); code != http.StatusOK {
		t.Errorf("other user status = %d, want %d", code, http.StatusOK)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", rl.GeneralLimiterCount())
	}
}

// TestRateLimiter_GeneralMiddleware_Unauthenticated はユーザーIDなしリクエストが401になることを検証する。
func TestRateLimiter_GeneralMiddleware_Unauthenticated(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})
	handler := rl.GeneralMiddleware()(next)

	req := httptest.NewRequest(http.MethodGet, "/api/tweets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestRateLimiter_BookmarkIndependentOfGeneral は登録専用制限がAPI全般制限と独立なことを検証する。
func TestRateLimiter_BookmarkIndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	bookmarkHandler := rl.BookmarkMiddleware()(next)
	generalHandler := rl.GeneralMiddleware()(next)

	doRequest := func(h http.Handler) int {
		req := httptest.NewRequest(http.MethodPost, "/api/tweets", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// ブックマークのバースト（2）を使い切る
	for i := 0; i < 2; i++ {
		if code := doRequest(bookmarkHandler); code != http.StatusOK {
			t.Fatalf("bookmark request %d: status = %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := doRequest(bookmarkHandler); code != http.StatusTooManyRequests {
		t.Errorf("bookmark status = %d, want %d", code, http.StatusTooManyRequests)
	}

	// API全般の制限は消費されていない
	if code := doRequest(generalHandler); code != http.StatusOK {
		t.Errorf("general status = %d, want %d", code, http.StatusOK)
	}
}

// TestRateLimiter_LookupMiddleware_PerIP はIP単位のレート制限を検証する。
// 認証なしで動作する。
func TestRateLimiter_LookupMiddleware_PerIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.LookupMiddleware()(next)

	doRequest := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/twitter?url=20", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := doRequest("10.0.0.1:54321"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	rec := doRequest("10.0.0.1:54321")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429 response")
	}

	// 別IPには影響しない
	if rec := doRequest("10.0.0.2:54321"); rec.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want %d", rec.Code, http.StatusOK)
	}

	if rl.LookupLimiterCount() != 2 {
		t.Errorf("LookupLimiterCount = %d, want 2", rl.LookupLimiterCount())
	}
}

// TestKeyedLimiters_Cleanup は期限切れエントリが削除されることを検証する。
func TestKeyedLimiters_Cleanup(t *testing.T) {
	k := newKeyedLimiters(rate.Limit(1), 1)

	k.allow("old-key")
	k.allow("fresh-key")

	// old-keyの最終アクセスを過去にずらす
	k.mu.Lock()
	k.entries["old-key"].lastAccess = time.Now().Add(-time.Hour)
	k.mu.Unlock()

	k.cleanup(30 * time.Minute)

	if k.count() != 1 {
		t.Errorf("count = %d, want 1", k.count())
	}

	k.mu.Lock()
	_, oldExists := k.entries["old-key"]
	_, freshExists := k.entries["fresh-key"]
	k.mu.Unlock()

	if oldExists {
		t.Error("old-key should have been cleaned up")
	}
	if !freshExists {
		t.Error("fresh-key should remain")
	}
}

// TestClientIP はRemoteAddrからのIP抽出を検証する。
func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{name: "ポート付きIPv4", remoteAddr: "192.168.1.10:54321", want: "192.168.1.10"},
		{name: "ポート付きIPv6", remoteAddr: "[::1]:54321", want: "::1"},
		{name: "ポートなしはそのまま", remoteAddr: "192.168.1.10", want: "192.168.1.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr

			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
			}
		})
	}
}
