// Package dispatch hands composed requests to the reasoning service and
// turns every outcome into a Result. Errors never escape Dispatch.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/callpulse/internal/ai"
	"github.com/KaramelBytes/callpulse/internal/prompt"
)

// Summarizer is the external reasoning capability.
type Summarizer interface {
	Summarize(ctx context.Context, systemRole, instructions string, temperature float64, maxOutputTokens int) (string, error)
}

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, systemRole, instructions string, temperature float64, maxOutputTokens int) (string, error)

func (f SummarizerFunc) Summarize(ctx context.Context, systemRole, instructions string, temperature float64, maxOutputTokens int) (string, error) {
	return f(ctx, systemRole, instructions, temperature, maxOutputTokens)
}

// Options configures a Dispatcher.
type Options struct {
	// Timeout bounds one call including the limiter wait; 0 means no bound
	// beyond the caller's context.
	Timeout time.Duration
	// RatePerMinute limits calls process-wide; 0 disables the limiter.
	RatePerMinute int
}

// Result is the outcome of one dispatch.
type Result struct {
	Text     string
	Cause    string
	Err      error
	Duration time.Duration
}

// OK reports whether the call produced a report.
func (r Result) OK() bool { return r.Err == nil }

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	s       Summarizer
	timeout time.Duration
	limiter *rate.Limiter
	log     *zap.Logger
}

// New builds a dispatcher around s.
func New(s Summarizer, opt Options, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{s: s, timeout: opt.Timeout, log: log}
	if opt.RatePerMinute > 0 {
		d.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opt.RatePerMinute)), 1)
	}
	return d
}

// Dispatch blocks until the service answers or fails. No retry is made.
func (d *Dispatcher) Dispatch(ctx context.Context, req prompt.Request) (res Result) {
	start := time.Now()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("summarizer panic: %v", r)}
			res.Cause = "the analysis service failed unexpectedly"
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			d.log.Warn("dispatch failed",
				zap.Error(res.Err),
				zap.String("cause", res.Cause),
				zap.Int("records", req.Records),
				zap.Int("prompt_tokens", req.Tokens),
				zap.Duration("elapsed", res.Duration))
			return
		}
		d.log.Info("dispatch completed",
			zap.Int("records", req.Records),
			zap.Int("prompt_tokens", req.Tokens),
			zap.Int("report_chars", len(res.Text)),
			zap.Duration("elapsed", res.Duration))
	}()

	if d.s == nil {
		return failure(fmt.Errorf("no reasoning service configured"))
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return failure(ctx.Err())
			}
			return Result{Err: fmt.Errorf("rate limiter: %w", err), Cause: "too many analyses were requested; try again in a minute"}
		}
	}
	text, err := d.s.Summarize(ctx, req.Role, req.Instructions, req.Temperature, req.MaxOutputTokens)
	if err != nil {
		return failure(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return failure(ai.ErrEmptyResponse)
	}
	return Result{Text: text}
}

func failure(err error) Result {
	return Result{Err: err, Cause: ai.Describe(err)}
}
