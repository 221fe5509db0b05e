package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/tweetman/internal/model"
	"github.com/hitoshi/tweetman/internal/twitter"
)

type mockTwitterService struct {
	lookupFn func(ctx context.Context, rawURL string) (*twitter.LookupResult, error)
}

func (m *mockTwitterService) Lookup(ctx context.Context, rawURL string) (*twitter.LookupResult, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, rawURL)
	}
	return nil, nil
}

// TestTwitterHandler_Lookup_Success は統合結果がそのままJSONで返ることを検証する。
func TestTwitterHandler_Lookup_Success(t *testing.T) {
	service := &mockTwitterService{
		lookupFn: func(ctx context.Context, rawURL string) (*twitter.LookupResult, error) {
			return &twitter.LookupResult{
				ID: "20",
				User: twitter.UserData{
					ID:              "12",
					Name:            "jack",
					Username:        "jack",
					ProfileImageURL: "https://pbs.twimg.com/x.jpg",
				},
				Text:      "just setting up my twttr",
				CreatedAt: "2006-03-21T20:50:14.000Z",
				PublicMetrics: twitter.PublicMetrics{
					LikeCount: 150000,
				},
			}, nil
		},
	}

	h := NewTwitterHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/twitter?url=https%3A%2F%2Ftwitter.com%2Fjack%2Fstatus%2F20", nil)
	rec := httptest.NewRecorder()

	h.Lookup(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body["id"] != "20" {
		t.Errorf("id = %v, want %q", body["id"], "20")
	}
	if body["text"] != "just setting up my twttr" {
		t.Errorf("text = %v", body["text"])
	}
	if body["created_at"] != "2006-03-21T20:50:14.000Z" {
		t.Errorf("created_at = %v", body["created_at"])
	}
	user, ok := body["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("user is not an object: %v", body["user"])
	}
	if user["username"] != "jack" {
		t.Errorf("user.username = %v, want %q", user["username"], "jack")
	}
	metricsObj, ok := body["public_metrics"].(map[string]interface{})
	if !ok {
		t.Fatalf("public_metrics is not an object: %v", body["public_metrics"])
	}
	if metricsObj["like_count"] != float64(150000) {
		t.Errorf("public_metrics.like_count = %v, want 150000", metricsObj["like_count"])
	}
}

// TestTwitterHandler_Lookup_MissingURLParam はurlパラメータ省略時に空文字列がサービスに渡ることを検証する。
func TestTwitterHandler_Lookup_MissingURLParam(t *testing.T) {
	var gotRawURL string
	called := false
	service := &mockTwitterService{
		lookupFn: func(ctx context.Context, rawURL string) (*twitter.LookupResult, error) {
			called = true
			gotRawURL = rawURL
			return nil, model.NewInvalidURLError("入力が空です")
		},
	}

	h := NewTwitterHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/twitter", nil)
	rec := httptest.NewRecorder()

	h.Lookup(rec, req)

	if !called {
		t.Fatal("expected service to be called")
	}
	if gotRawURL != "" {
		t.Errorf("rawURL = %q, want empty string", gotRawURL)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestTwitterHandler_Lookup_RepeatedURLParam はurlパラメータが複数指定された場合に最初の値が使われることを検証する。
func TestTwitterHandler_Lookup_RepeatedURLParam(t *testing.T) {
	var gotRawURL string
	service := &mockTwitterService{
		lookupFn: func(ctx context.Context, rawURL string) (*twitter.LookupResult, error) {
			gotRawURL = rawURL
			return &twitter.LookupResult{ID: "20"}, nil
		},
	}

	h := NewTwitterHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/twitter?url=first&url=second", nil)
	rec := httptest.NewRecorder()

	h.Lookup(rec, req)

	if gotRawURL != "first" {
		t.Errorf("rawURL = %q, want %q", gotRawURL, "first")
	}
}

// TestTwitterHandler_Lookup_ErrorMapping はサービスのAPIErrorがHTTPステータスに正しく写像されることを検証する。
func TestTwitterHandler_Lookup_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "不正なURL",
			serviceErr: model.NewInvalidURLError("ホストではありません"),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeInvalidURL,
		},
		{
			name:       "ツイート未検出",
			serviceErr: model.NewTweetNotFoundError("999"),
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeTweetNotFound,
		},
		{
			name:       "上流障害",
			serviceErr: model.NewUpstreamFailedError("connection refused"),
			wantStatus: http.StatusBadGateway,
			wantCode:   model.ErrCodeUpstreamFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockTwitterService{
				lookupFn: func(ctx context.Context, rawURL string) (*twitter.LookupResult, error) {
					return nil, tt.serviceErr
				},
			}

			h := NewTwitterHandler(service)

			req := httptest.NewRequest(http.MethodGet, "/api/twitter?url=whatever", nil)
			rec := httptest.NewRecorder()

			h.Lookup(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["code"] != tt.wantCode {
				t.Errorf("code = %v, want %q", body["code"], tt.wantCode)
			}
		})
	}
}
