package grader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gradecoach/gradecoach/internal/completion"
	"github.com/gradecoach/gradecoach/internal/limiter"
)

// countingDriver records invocations and returns a canned outcome.
type countingDriver struct {
	calls    int
	lastReq  *completion.Request
	response *completion.Response
	err      error
}

func (d *countingDriver) Complete(ctx context.Context, req *completion.Request) (*completion.Response, error) {
	d.calls++
	d.lastReq = req
	if d.err != nil {
		return nil, d.err
	}
	return d.response, nil
}

func (d *countingDriver) Name() string { return "counting" }

func newTestService(drv completion.Driver) *Service {
	svc := NewService(limiter.New(1, time.Hour), drv, "gpt-4o", DefaultTones())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	return svc
}

func TestGradeReturnsReplyText(t *testing.T) {
	drv := &countingDriver{response: &completion.Response{Text: "Good effort."}}
	svc := newTestService(drv)

	reply, err := svc.Grade(context.Background(), "10.0.0.1", Submission{
		Question: "What is a slice?",
		Answer:   "A view over an array.",
		Mode:     ModeMentor,
	})
	require.NoError(t, err)
	require.Equal(t, "Good effort.", reply)
	require.Equal(t, 1, drv.calls)

	// System prompt first, raw answer as the user message.
	require.Len(t, drv.lastReq.Messages, 2)
	require.Equal(t, "system", drv.lastReq.Messages[0].Role)
	require.Contains(t, drv.lastReq.Messages[0].Content, "What is a slice?")
	require.Equal(t, "user", drv.lastReq.Messages[1].Role)
	require.Equal(t, "A view over an array.", drv.lastReq.Messages[1].Content)
	require.Equal(t, "gpt-4o", drv.lastReq.Model)
}

func TestGradeDenialShortCircuitsDriver(t *testing.T) {
	drv := &countingDriver{response: &completion.Response{Text: "ok"}}
	svc := newTestService(drv)

	_, err := svc.Grade(context.Background(), "10.0.0.1", Submission{Question: "q", Answer: "a", Mode: ModeMentor})
	require.NoError(t, err)

	_, err = svc.Grade(context.Background(), "10.0.0.1", Submission{Question: "q", Answer: "a", Mode: ModeMentor})
	var quotaErr *QuotaError
	require.True(t, errors.As(err, &quotaErr))
	require.Greater(t, quotaErr.RetryAfter, time.Duration(0))

	// The driver saw only the admitted submission.
	require.Equal(t, 1, drv.calls)
}

func TestGradeOtherIdentityUnaffected(t *testing.T) {
	drv := &countingDriver{response: &completion.Response{Text: "ok"}}
	svc := newTestService(drv)

	_, err := svc.Grade(context.Background(), "10.0.0.1", Submission{Question: "q", Answer: "a"})
	require.NoError(t, err)
	_, err = svc.Grade(context.Background(), "10.0.0.2", Submission{Question: "q", Answer: "a"})
	require.NoError(t, err)
	require.Equal(t, 2, drv.calls)
}

func TestGradeUpstreamFailureDoesNotRefundSlot(t *testing.T) {
	drv := &countingDriver{err: &completion.ProviderError{Provider: "openai", StatusCode: 502, Message: "bad gateway"}}
	svc := newTestService(drv)

	_, err := svc.Grade(context.Background(), "10.0.0.1", Submission{Question: "q", Answer: "a"})
	var provErr *completion.ProviderError
	require.True(t, errors.As(err, &provErr))

	// The slot was charged at admission; the retry is denied, not re-attempted.
	_, err = svc.Grade(context.Background(), "10.0.0.1", Submission{Question: "q", Answer: "a"})
	var quotaErr *QuotaError
	require.True(t, errors.As(err, &quotaErr))
	require.Equal(t, 1, drv.calls)
}
