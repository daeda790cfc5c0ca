package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func errorServer(t *testing.T, status int, header http.Header, body any, hits *int32) *ipv4Server {
	t.Helper()
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		for k, vals := range header {
			for _, v := range vals {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func userMsg() []Message { return []Message{{Role: "user", Content: "hi"}} }

func TestGenerateSuccess(t *testing.T) {
	var got GenerateRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}}})
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL, 2*time.Second)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: userMsg(), MaxTokens: 600, Temperature: 0.3})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Choices[0].Message.Content != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got.MaxTokens != 600 || got.Temperature != 0.3 {
		t.Fatalf("request knobs not forwarded: %+v", got)
	}
}

func TestGenerateDoesNotRetry(t *testing.T) {
	var hits int32
	srv := errorServer(t, http.StatusTooManyRequests, http.Header{"Retry-After": {"3"}},
		map[string]any{"error": map[string]any{"message": "slow down"}}, &hits)
	defer srv.Close()

	c := NewClient("test", srv.URL, 2*time.Second)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: userMsg()})
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T %v", err, err)
	}
	if rl.RetryAfter != 3*time.Second {
		t.Fatalf("expected Retry-After 3s, got %v", rl.RetryAfter)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly one attempt, got %d", n)
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	srv := errorServer(t, http.StatusBadRequest, http.Header{"X-Request-Id": {"req_test_123"}},
		map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}}, nil)
	defer srv.Close()

	c := NewClient("test", srv.URL, 2*time.Second)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: userMsg()})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		status int
		body   any
		check  func(error) bool
	}{
		{401, map[string]any{"error": map[string]any{"message": "no key"}}, func(e error) bool { var x *AuthError; return errors.As(e, &x) }},
		{402, map[string]any{"error": map[string]any{"message": "insufficient credits"}}, func(e error) bool { var x *QuotaExceededError; return errors.As(e, &x) }},
		{429, map[string]any{"error": map[string]any{"message": "You exceeded your current quota", "code": "insufficient_quota"}}, func(e error) bool { var x *QuotaExceededError; return errors.As(e, &x) }},
		{404, map[string]any{"error": map[string]any{"message": "model not found"}}, func(e error) bool { var x *ModelNotFoundError; return errors.As(e, &x) }},
		{400, map[string]any{"message": "bad"}, func(e error) bool { var x *BadRequestError; return errors.As(e, &x) }},
		{503, map[string]any{"error": "overloaded"}, func(e error) bool { var x *ServerError; return errors.As(e, &x) }},
	}
	for _, c := range cases {
		t.Run(fmt.Sprint(c.status), func(t *testing.T) {
			srv := errorServer(t, c.status, nil, c.body, nil)
			defer srv.Close()
			_, err := NewClient("test", srv.URL, 2*time.Second).Generate(context.Background(), GenerateRequest{Model: "m", Messages: userMsg()})
			if !c.check(err) {
				t.Fatalf("unexpected classification: %T %v", err, err)
			}
			if Describe(err) == "" {
				t.Fatalf("empty description for %v", err)
			}
		})
	}
}

func TestGenerateMissingKey(t *testing.T) {
	_, err := NewClient("", "http://127.0.0.1:1", time.Second).Generate(context.Background(), GenerateRequest{Model: "m", Messages: userMsg()})
	var auth *AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()
	_, err := NewClient("test", srv.URL, time.Second).Generate(context.Background(), GenerateRequest{Model: "m", Messages: userMsg()})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient("test", srv.URL, 5*time.Second).Generate(ctx, GenerateRequest{Model: "m", Messages: userMsg()})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if got := Describe(err); !strings.Contains(got, "in time") {
		t.Fatalf("unexpected description %q", got)
	}
}

type stubRuntime struct {
	req  GenerateRequest
	resp *GenerateResponse
	err  error
}

func (s *stubRuntime) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestSummarizerTrimsTopChoice(t *testing.T) {
	rt := &stubRuntime{resp: &GenerateResponse{Choices: []Choice{
		{Message: Message{Content: "  report body \n"}},
		{Message: Message{Content: "second"}},
	}}}
	s := Summarizer{Runtime: rt, Model: "custom-model"}
	got, err := s.Summarize(context.Background(), "role", "do it", 0.2, 800)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "report body" {
		t.Fatalf("got %q", got)
	}
	if len(rt.req.Messages) != 2 || rt.req.Messages[0].Role != "system" || rt.req.Messages[1].Content != "do it" {
		t.Fatalf("unexpected messages: %+v", rt.req.Messages)
	}
	if rt.req.MaxTokens != 800 || rt.req.Temperature != 0.2 {
		t.Fatalf("unexpected knobs: %+v", rt.req)
	}
}

func TestSummarizerContextWindow(t *testing.T) {
	rt := &stubRuntime{}
	s := Summarizer{Runtime: rt, Model: "phi3:mini-4k-instruct"}
	_, err := s.Summarize(context.Background(), "role", strings.Repeat("x", 4*5000), 0.2, 100)
	var cw *ContextWindowError
	if !errors.As(err, &cw) {
		t.Fatalf("expected ContextWindowError, got %v", err)
	}
	if rt.req.Model != "" {
		t.Fatalf("runtime must not be called for oversized prompts")
	}
}

func TestNewRuntimeUnknownProvider(t *testing.T) {
	if _, err := NewRuntime(context.Background(), "carrier-pigeon", RuntimeConfig{}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	rt, err := NewRuntime(context.Background(), "", RuntimeConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("default provider: %v", err)
	}
	if _, ok := rt.(*Client); !ok {
		t.Fatalf("expected OpenAI-compatible client, got %T", rt)
	}
}
