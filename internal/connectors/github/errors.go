package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/extindex/extindex/internal/core/domain"
)

// RateLimitError reports an exhausted API quota with its reset time.
// It matches domain.ErrTransient so the dispatcher retries it.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return domain.ErrTransient }

// APIError is a non-retryable GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s", e.StatusCode, e.Message)
}

// classify maps go-github errors onto the two caller-visible classes:
// domain.ErrNotFound for gone remote objects and domain.ErrTransient for
// everything worth retrying. Other API failures keep their status code.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: %w", op, &RateLimitError{ResetAt: rateErr.Rate.Reset.Time})
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		reset := time.Now()
		if abuseErr.RetryAfter != nil {
			reset = reset.Add(*abuseErr.RetryAfter)
		}
		return fmt.Errorf("%s: %w", op, &RateLimitError{ResetAt: reset})
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch {
		case ghErr.Response.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case ghErr.Response.StatusCode == http.StatusTooManyRequests,
			ghErr.Response.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%s: status %d: %w", op, ghErr.Response.StatusCode, domain.ErrTransient)
		default:
			return fmt.Errorf("%s: %w", op, &APIError{
				StatusCode: ghErr.Response.StatusCode,
				Message:    ghErr.Message,
			})
		}
	}

	// Timeouts and network failures are retryable.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrTransient)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w", op, domain.ErrTransient)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// IsNotFound reports whether the remote object no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsTransient reports whether the failure is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrTransient)
}
