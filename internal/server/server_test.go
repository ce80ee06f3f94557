package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gradecoach/gradecoach/internal/completion/openai"
	"github.com/gradecoach/gradecoach/internal/config"
	"github.com/gradecoach/gradecoach/internal/grader"
	"github.com/gradecoach/gradecoach/internal/limiter"
	"github.com/gradecoach/gradecoach/internal/server/handlers"
)

const quotaExceededDetail = "Sorry, you reached the limit. You can only submit 3 times per hour. OpenAI isn't cheap."

// newTestServer wires a full stack: real limiter, real grading service, and an
// httptest upstream standing in for the completion provider.
func newTestServer(t *testing.T, limit int) *Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Nice work."},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(upstream.Close)

	client := openai.NewClient(upstream.URL, "test-key")
	svc := grader.NewService(limiter.New(limit, time.Hour), client, "gpt-4o", grader.DefaultTones())

	handlers.InitHealthManager("test")

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		CORS:   config.CORSConfig{AllowedOrigin: "http://localhost:5173"},
	}
	return New(cfg, svc)
}

func gradeRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/grade",
		strings.NewReader(`{"question":"What does defer do?","answer":"Runs at function exit.","mode":"mentor"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	return req
}

func TestGradeEndToEnd(t *testing.T) {
	srv := newTestServer(t, 1)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, gradeRequest("203.0.113.7:40001"))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "Nice work.", body.Response)
}

func TestGradeQuotaEnforcedPerClient(t *testing.T) {
	srv := newTestServer(t, 1)

	// First submission from this client is admitted.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, gradeRequest("203.0.113.7:40001"))
	require.Equal(t, http.StatusOK, rec.Code)

	// Second submission from the same client is denied, even from a new port.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, gradeRequest("203.0.113.7:40002"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	var denial struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&denial))
	require.Equal(t, quotaExceededDetail, denial.Detail)

	// A different client still has its own quota.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, gradeRequest("198.51.100.9:40001"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGradeCORSHeaders(t *testing.T) {
	srv := newTestServer(t, 1)

	req := gradeRequest("203.0.113.7:40001")
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestGradePreflight(t *testing.T) {
	srv := newTestServer(t, 1)

	req := httptest.NewRequest(http.MethodOptions, "/api/grade", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestNotFoundEnvelope(t *testing.T) {
	srv := newTestServer(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
	require.NotEmpty(t, body.Error.Message)
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	srv := newTestServer(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/grade", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthRoute(t *testing.T) {
	srv := newTestServer(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
