package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gradecoach/gradecoach/internal/completion"
	"github.com/gradecoach/gradecoach/internal/grader"
	"github.com/gradecoach/gradecoach/internal/metrics"
	"github.com/gradecoach/gradecoach/internal/server/middleware"
)

// Client-facing detail strings. The 429 and 500 texts are part of the API
// contract and must not change.
const (
	detailQuotaExceeded = "Sorry, you reached the limit. You can only submit 3 times per hour. OpenAI isn't cheap."
	detailUpstreamError = "Error from OpenAI API."
	detailInternalError = "Internal server error."
	detailInvalidBody   = "Invalid request body."
	detailMissingFields = "question, answer and mode are required."
)

// replyLogPrefix bounds how much of the grader's reply lands in the log.
const replyLogPrefix = 100

// GradingService is the slice of grader.Service the handler needs; tests
// substitute doubles.
type GradingService interface {
	Grade(ctx context.Context, identity string, sub grader.Submission) (string, error)
}

// GradeHandler serves POST /api/grade.
type GradeHandler struct {
	service GradingService
}

// NewGradeHandler wires the submission endpoint.
func NewGradeHandler(service GradingService) *GradeHandler {
	return &GradeHandler{service: service}
}

// gradeResponse is the success payload.
type gradeResponse struct {
	Response string `json:"response"`
}

// detailResponse is the failure payload, shape shared by 4xx and 5xx.
type detailResponse struct {
	Detail string `json:"detail"`
}

func (h *GradeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var sub grader.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeDetail(w, http.StatusBadRequest, detailInvalidBody)
		return
	}
	// Validation happens before the limiter is consulted: a malformed
	// submission never consumes quota.
	if strings.TrimSpace(sub.Question) == "" || strings.TrimSpace(sub.Answer) == "" || strings.TrimSpace(sub.Mode) == "" {
		writeDetail(w, http.StatusBadRequest, detailMissingFields)
		return
	}

	logInfo("Incoming submission",
		zap.String("question", sub.Question),
		zap.String("answer", sub.Answer),
		zap.String("mode", sub.Mode),
		zap.String("requestID", middleware.GetRequestID(r.Context())),
	)

	identity := clientIdentity(r)

	reply, err := h.service.Grade(r.Context(), identity, sub)
	if err != nil {
		h.respondError(w, r, identity, sub.Mode, err)
		return
	}

	metrics.RecordSubmission(sub.Mode, true)
	logInfo("Grader reply", zap.String("preview", truncate(reply, replyLogPrefix)))

	writeJSON(w, http.StatusOK, gradeResponse{Response: reply})
}

func (h *GradeHandler) respondError(w http.ResponseWriter, r *http.Request, identity, mode string, err error) {
	var quotaErr *grader.QuotaError
	if errors.As(err, &quotaErr) {
		// Denial is expected control flow: warn, never error.
		logWarn("Submission quota exceeded",
			zap.String("identity", identity),
			zap.Duration("retry_after", quotaErr.RetryAfter),
		)
		metrics.RecordQuotaDenial()

		if secs := int(quotaErr.RetryAfter.Seconds()); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		writeDetail(w, http.StatusTooManyRequests, detailQuotaExceeded)
		return
	}

	var provErr *completion.ProviderError
	if errors.As(err, &provErr) {
		// Upstream status and body stay in the logs; the caller sees only
		// the generic message.
		logError("Completion provider error",
			zap.String("provider", provErr.Provider),
			zap.Int("upstream_status", provErr.StatusCode),
			zap.String("upstream_body", provErr.Message),
			zap.String("requestID", middleware.GetRequestID(r.Context())),
		)
		metrics.RecordSubmission(mode, false)
		metrics.RecordUpstreamFailure("upstream")
		writeDetail(w, http.StatusInternalServerError, detailUpstreamError)
		return
	}

	logError("Submission failed",
		zap.Error(err),
		zap.String("requestID", middleware.GetRequestID(r.Context())),
	)
	metrics.RecordSubmission(mode, false)
	metrics.RecordUpstreamFailure("internal")
	writeDetail(w, http.StatusInternalServerError, detailInternalError)
}

// clientIdentity derives the quota key from the peer address. The RealIP
// middleware has already resolved forwarding headers; identities behind a
// shared NAT collide, which is accepted.
func clientIdentity(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
