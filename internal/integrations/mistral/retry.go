package mistral

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"financeguru/internal/domain"
)

const (
	defaultMaxRetries   = 5
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 30 * time.Second
)

// Completer issues a single completion attempt.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// RateLimitedError is returned when every attempt hit a rate-limit-class
// failure.
type RateLimitedError struct {
	Attempts int
	Last     error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("mistral: rate limited after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RateLimitedError) Unwrap() error {
	return e.Last
}

// IsRateLimit classifies an attempt failure as rate-limit-class: an explicit
// 429 status, or a textual rate-limit indicator for errors that carry no
// status code.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == 429
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

// Retrier wraps a Completer with bounded exponential backoff. Only
// rate-limit-class failures are retried; anything else returns immediately.
// It implements Completer itself, so call sites configure retries per
// request via CompletionRequest.MaxRetries.
type Retrier struct {
	completer    Completer
	sleep        func(time.Duration)
	initialDelay time.Duration
	maxDelay     time.Duration
}

type RetrierOption func(*Retrier)

// WithSleep replaces the blocking sleep, letting tests observe the backoff
// schedule without waiting.
func WithSleep(sleep func(time.Duration)) RetrierOption {
	return func(r *Retrier) {
		r.sleep = sleep
	}
}

func WithInitialDelay(d time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.initialDelay = d
	}
}

func WithMaxDelay(d time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.maxDelay = d
	}
}

func NewRetrier(c Completer, opts ...RetrierOption) (*Retrier, error) {
	if c == nil {
		return nil, errors.New("mistral: completer must not be nil")
	}
	r := &Retrier{
		completer:    c,
		sleep:        time.Sleep,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Complete runs up to req.MaxRetries attempts. The delay starts at the
// initial interval and doubles after each retry, capped at the max delay.
func (r *Retrier) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	maxAttempts := req.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxRetries
	}

	// backoff/v4 supplies the doubling schedule; randomization is disabled
	// so the delays are exactly 1x, 2x, 4x the initial interval.
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.initialDelay
	expo.RandomizationFactor = 0
	expo.Multiplier = 2
	expo.MaxInterval = r.maxDelay
	expo.MaxElapsedTime = 0
	expo.Reset()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := r.completer.Complete(ctx, req)
		if err == nil {
			return text, nil
		}
		if !IsRateLimit(err) {
			return "", err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.sleep(expo.NextBackOff())
	}
	return "", &RateLimitedError{Attempts: maxAttempts, Last: lastErr}
}
