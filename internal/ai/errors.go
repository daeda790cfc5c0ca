package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrEmptyResponse is returned when a provider answers without any content.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// AuthError indicates authentication/authorization failures (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

// RateLimitError indicates 429 responses and may include a Retry-After.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %ds): %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return fmt.Sprintf("rate limited: %s", e.APIError.Error())
}

// ModelNotFoundError indicates the requested model is not available.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

// BadRequestError indicates the provider rejected the request itself.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// QuotaExceededError indicates billing/quota problems.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.APIError.Error())
}

// ServerError indicates 5xx errors from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("provider error: %s", e.APIError.Error()) }

// UnreachableError indicates the endpoint could not be reached at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// ContextWindowError reports a prompt larger than the model accepts.
type ContextWindowError struct {
	Model  string
	Tokens int
	Limit  int
}

func (e *ContextWindowError) Error() string {
	return fmt.Sprintf("prompt of ~%d tokens exceeds the %d-token context window of %s", e.Tokens, e.Limit, e.Model)
}

// Describe renders err as a short human-readable cause.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var (
		authErr   *AuthError
		rateErr   *RateLimitError
		quotaErr  *QuotaExceededError
		modelErr  *ModelNotFoundError
		badErr    *BadRequestError
		serverErr *ServerError
		unreach   *UnreachableError
		window    *ContextWindowError
		netErr    net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "the analysis service did not answer in time"
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	case errors.As(err, &authErr):
		return "the analysis service rejected the credentials"
	case errors.As(err, &quotaErr):
		return "the analysis service quota is exhausted"
	case errors.As(err, &rateErr):
		if rateErr.RetryAfter > 0 {
			return fmt.Sprintf("the analysis service is rate limiting requests; retry in %ds", int(rateErr.RetryAfter.Seconds()))
		}
		return "the analysis service is rate limiting requests"
	case errors.As(err, &modelErr):
		return "the configured model is not available"
	case errors.As(err, &window):
		return "the data set is too large for the configured model"
	case errors.As(err, &badErr):
		return "the analysis service rejected the request"
	case errors.As(err, &serverErr):
		return "the analysis service had an internal error"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "the analysis service did not answer in time"
	case errors.As(err, &unreach):
		return "the analysis service is unreachable"
	case errors.Is(err, ErrEmptyResponse):
		return "the analysis service returned an empty answer"
	default:
		return "the analysis service failed: " + err.Error()
	}
}
