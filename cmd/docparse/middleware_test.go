package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logpkg "github.com/kailas-cloud/docparse/internal/logger"
	chiTransport "github.com/kailas-cloud/docparse/internal/transport/chi"
	healthuc "github.com/kailas-cloud/docparse/internal/usecase/health"
)

type okEngine struct{}

func (okEngine) HealthCheck(context.Context) error { return nil }

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := jsonRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/parse/url", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rr.Code)
	}
	var body chiTransport.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Detail.Code != chiTransport.ErrorResponseCodeInternalError {
		t.Errorf("code %q", body.Detail.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("panic not logged")
	}
}

func TestWideEventMiddleware_LogsOneLinePerRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := wideEventMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logpkg.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one canonical line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/health" {
		t.Errorf("unexpected fields %v", fields)
	}
	inside := logs.FilterMessage("inside").All()
	if len(inside) != 1 {
		t.Fatal("request logger not placed in context")
	}
	if _, ok := inside[0].ContextMap()["request_id"]; !ok {
		t.Error("request logger lacks request_id")
	}
}

func TestRouter_AuthAndRequestID(t *testing.T) {
	server := chiTransport.NewServer(nil, healthuc.New(okEngine{}), zap.NewNop())
	r := newRouter(server, []string{"secret"}, zap.NewNop())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/parse/url", http.NoBody))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("parse without token: got %d, want 401", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("health without token: got %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unknown route without token: got %d, want 401", rr.Code)
	}
}
