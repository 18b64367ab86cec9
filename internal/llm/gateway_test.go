package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voyago/tripcraft/internal/domain"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T, baseURL string) *Gateway {
	t.Helper()
	g := NewGateway(baseURL, "test-key", domain.DefaultModelConfig(), 5*time.Second, zap.NewNop())
	g.backoffBase = 5 * time.Millisecond
	return g
}

func validRequest() *domain.ChatRequest {
	return &domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "You are a travel planner."},
			{Role: domain.RoleUser, Content: "Plan a trip to Lisbon."},
		},
	}
}

func envelopeWith(t *testing.T, content string) []byte {
	t.Helper()
	resp := chatCompletionResponse{
		Choices: []wireChoice{{Message: wireMessage{Role: "assistant", Content: content}}},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshaling envelope: %v", err)
	}
	return data
}

func gatewayCode(t *testing.T, err error) domain.ErrorCode {
	t.Helper()
	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %T: %v", err, err)
	}
	return gwErr.Code
}

func TestSend_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		if got := r.Header.Get("X-Client"); got != "tripcraft" {
			t.Errorf("unexpected X-Client header %q", got)
		}

		var payload chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding request payload: %v", err)
		}
		if payload.ResponseFormat == nil || payload.ResponseFormat.Type != "json_schema" {
			t.Error("expected json_schema response format in payload")
		}

		w.Write(envelopeWith(t, `{"answer":"Day 1: Alfama walk","metadata":{"duration":2.5}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	result, err := g.Send(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.AnswerText != "Day 1: Alfama walk" {
		t.Errorf("unexpected answer %q", result.AnswerText)
	}
	if result.DurationSeconds != 2.5 {
		t.Errorf("expected reported duration 2.5, got %v", result.DurationSeconds)
	}
}

func TestSend_DurationFallsBackToElapsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelopeWith(t, `{"answer":"ok","metadata":{"duration":0}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	result, err := g.Send(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.DurationSeconds <= 0 {
		t.Errorf("expected measured elapsed fallback, got %v", result.DurationSeconds)
	}
}

func TestSend_RetriesExactlyThreeTimesOnAPIError(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		http.Error(w, `{"error":{"message":"upstream exploded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Send(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if code := gatewayCode(t, err); code != domain.CodeAPI {
		t.Errorf("expected api_error, got %s", code)
	}
	if attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestSend_RateLimitNeverRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, `{"error":{"message":"too many requests"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Send(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if code := gatewayCode(t, err); code != domain.CodeRateLimit {
		t.Errorf("expected rate_limit_error, got %s", code)
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts)
	}
}

func TestSend_RecoversAfterTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.Write(envelopeWith(t, `{"answer":"recovered","metadata":{"duration":1}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	result, err := g.Send(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Send failed after retries: %v", err)
	}
	if result.AnswerText != "recovered" {
		t.Errorf("unexpected answer %q", result.AnswerText)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestSend_BackoffDelaysAreMonotonic(t *testing.T) {
	var mu sync.Mutex
	var times []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	g.backoffBase = 20 * time.Millisecond
	g.Send(context.Background(), validRequest())

	if len(times) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(times))
	}
	first := times[1].Sub(times[0])
	second := times[2].Sub(times[1])
	if first < 20*time.Millisecond {
		t.Errorf("first backoff too short: %v", first)
	}
	if second < 40*time.Millisecond {
		t.Errorf("second backoff too short: %v", second)
	}
	if second < first {
		t.Errorf("backoff not monotonic: %v then %v", first, second)
	}
}

func TestSend_MalformedContentIsNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write(envelopeWith(t, `this is not JSON at all`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Send(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if code := gatewayCode(t, err); code != domain.CodeAPI {
		t.Errorf("expected api_error, got %s", code)
	}
	var gwErr *domain.GatewayError
	errors.As(err, &gwErr)
	if gwErr.Message != "failed to parse response as structured data" {
		t.Errorf("unexpected message %q", gwErr.Message)
	}
	if attempts != 1 {
		t.Errorf("parse failure must not retry, got %d attempts", attempts)
	}
}

func TestSend_EmptyAnswerIsValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelopeWith(t, `{"answer":"","metadata":{"duration":1}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Send(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if code := gatewayCode(t, err); code != domain.CodeValidation {
		t.Errorf("expected validation_error, got %s", code)
	}
}

func TestSend_MissingDurationIsValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelopeWith(t, `{"answer":"text","metadata":{}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Send(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if code := gatewayCode(t, err); code != domain.CodeValidation {
		t.Errorf("expected validation_error, got %s", code)
	}
}

func TestSend_EmptyEnvelopeIsAPIError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Send(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	var gwErr *domain.GatewayError
	errors.As(err, &gwErr)
	if gwErr.Code != domain.CodeAPI || gwErr.Message != "invalid response format" {
		t.Errorf("unexpected error %v", gwErr)
	}
	if attempts != 1 {
		t.Errorf("envelope parse failure must not retry, got %d attempts", attempts)
	}
}

func TestSend_RequestValidation(t *testing.T) {
	tests := []struct {
		name string
		req  *domain.ChatRequest
	}{
		{"empty messages", &domain.ChatRequest{}},
		{"invalid role", &domain.ChatRequest{Messages: []domain.ChatMessage{{Role: "assistant", Content: "hi"}}}},
		{"empty content", &domain.ChatRequest{Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: ""}}}},
		{"empty schema body", &domain.ChatRequest{
			Messages:       []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}},
			ResponseSchema: &domain.ResponseSchema{Name: "empty"},
		}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("validation failures must not reach the provider")
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Send(context.Background(), tc.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := gatewayCode(t, err); code != domain.CodeValidation {
				t.Errorf("expected validation_error, got %s", code)
			}
		})
	}
}

func TestConfigure_RejectsInvalidValuesWithoutMutating(t *testing.T) {
	g := newTestGateway(t, "http://localhost")
	before := g.cfg

	temp := 1.5
	if err := g.Configure(domain.ModelConfigPatch{Temperature: &temp}); err == nil {
		t.Fatal("expected error for temperature 1.5")
	} else if code := gatewayCode(t, err); code != domain.CodeValidation {
		t.Errorf("expected validation_error, got %s", code)
	}

	tokens := 0
	if err := g.Configure(domain.ModelConfigPatch{MaxTokens: &tokens}); err == nil {
		t.Fatal("expected error for max_tokens 0")
	}

	model := ""
	if err := g.Configure(domain.ModelConfigPatch{Model: &model}); err == nil {
		t.Fatal("expected error for empty model")
	}

	if g.cfg != before {
		t.Errorf("config mutated by rejected patch: %+v", g.cfg)
	}
}

func TestConfigure_AtomicPatch(t *testing.T) {
	g := newTestGateway(t, "http://localhost")
	before := g.cfg

	temp := 0.3
	tokens := -1
	err := g.Configure(domain.ModelConfigPatch{Temperature: &temp, MaxTokens: &tokens})
	if err == nil {
		t.Fatal("expected error")
	}
	if g.cfg != before {
		t.Errorf("partially applied patch: %+v", g.cfg)
	}
}

func TestConfigure_AppliesValidPatch(t *testing.T) {
	g := newTestGateway(t, "http://localhost")

	model := "gpt-4o"
	temp := 0.2
	tokens := 512
	if err := g.Configure(domain.ModelConfigPatch{Model: &model, Temperature: &temp, MaxTokens: &tokens}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	if g.cfg.Model != "gpt-4o" || g.cfg.Temperature != 0.2 || g.cfg.MaxTokens != 512 {
		t.Errorf("patch not applied: %+v", g.cfg)
	}
	if g.Model() != "gpt-4o" {
		t.Errorf("Model() = %q", g.Model())
	}
}

func TestSend_ContextCancellationIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(200 * time.Millisecond):
		}
		w.Write(envelopeWith(t, `{"answer":"late","metadata":{"duration":1}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	g := newTestGateway(t, srv.URL)
	_, err := g.Send(ctx, validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if code := gatewayCode(t, err); code != domain.CodeUnexpected {
		t.Errorf("expected unexpected_error for cancellation, got %s", code)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("cancellation must not retry, got %d attempts", got)
	}
}
