package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestLoggingMiddleware_Fields はリクエストログの属性を検証する。
func TestLoggingMiddleware_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw := NewLoggingMiddleware(logger)

	req := httptest.NewRequest(http.MethodPost, "/api/tweets", nil)
	req.RemoteAddr = "192.168.1.10:54321"
	req = req.WithContext(ContextWithUserID(req.Context(), "user-123"))
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	if record["msg"] != "http_request" {
		t.Errorf("msg = %v, want %q", record["msg"], "http_request")
	}
	if record["method"] != "POST" {
		t.Errorf("method = %v, want %q", record["method"], "POST")
	}
	if record["path"] != "/api/tweets" {
		t.Errorf("path = %v, want %q", record["path"], "/api/tweets")
	}
	if record["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want %d", record["status"], http.StatusCreated)
	}
	if record["remote_ip"] != "192.168.1.10" {
		t.Errorf("remote_ip = %v, want %q", record["remote_ip"], "192.168.1.10")
	}
	if record["user_id"] != "user-123" {
		t.Errorf("user_id = %v, want %q", record["user_id"], "user-123")
	}
	if _, ok := record["duration_ms"]; !ok {
		t.Error("expected duration_ms attribute")
	}
}

// TestLoggingMiddleware_ErrorLevel は5xxレスポンスがERRORレベルで記録されることを検証する。
func TestLoggingMiddleware_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	mw := NewLoggingMiddleware(logger)

	req := httptest.NewRequest(http.MethodGet, "/api/twitter", nil)
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}

	if record["level"] != "ERROR" {
		t.Errorf("level = %v, want %q", record["level"], "ERROR")
	}
}
