package grader

import (
	"context"
	"fmt"
	"time"

	"github.com/gradecoach/gradecoach/internal/completion"
	"github.com/gradecoach/gradecoach/internal/limiter"
)

// Submission is one student question/answer pair.
type Submission struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Mode     string `json:"mode"`
}

// QuotaError reports that a submission was denied by the admission
// controller. It is expected control flow, not a failure: handlers translate
// it to 429 and must not log it at error level.
type QuotaError struct {
	RetryAfter time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("submission quota exceeded, retry in %s", e.RetryAfter)
}

// Service orchestrates one submission: admission check, prompt assembly,
// completion call. The limiter and driver are injected so tests can observe
// or replace them.
type Service struct {
	limiter *limiter.SlidingWindow
	driver  completion.Driver
	model   string
	tones   Tones

	// now is swappable for tests.
	now func() time.Time
}

// NewService wires a grading service.
func NewService(lim *limiter.SlidingWindow, drv completion.Driver, model string, tones Tones) *Service {
	return &Service{
		limiter: lim,
		driver:  drv,
		model:   model,
		tones:   tones,
		now:     time.Now,
	}
}

// Grade runs one submission end to end and returns the grader's reply text.
//
// The quota slot is charged at admission time: an upstream failure after a
// successful admission is not refunded. The limiter's lock is released before
// the completion call starts, so slow upstream responses never serialize
// unrelated clients.
func (s *Service) Grade(ctx context.Context, identity string, sub Submission) (string, error) {
	decision := s.limiter.Allow(identity, s.now())
	if !decision.Allowed {
		return "", &QuotaError{RetryAfter: decision.RetryAfter}
	}

	prompt := BuildPrompt(sub.Question, sub.Answer, sub.Mode, s.tones)

	resp, err := s.driver.Complete(ctx, &completion.Request{
		Model: s.model,
		Messages: []completion.Message{
			{Role: "system", Content: prompt},
			{Role: "user", Content: sub.Answer},
		},
	})
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}
