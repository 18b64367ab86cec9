package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voyago/tripcraft/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 1 * time.Second
	clientName         = "tripcraft"
)

// Gateway delivers chat-completion requests to an OpenAI-compatible provider
// with bounded retries and exponential backoff. It owns the model
// configuration used for every outbound call; requests themselves carry only
// messages and an optional response schema.
type Gateway struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	logger  *RequestLogger

	mu  sync.Mutex
	cfg domain.ModelConfig

	maxAttempts int
	backoffBase time.Duration
}

// NewGateway creates a gateway for the given provider endpoint
func NewGateway(baseURL, apiKey string, cfg domain.ModelConfig, timeout time.Duration, log *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		hc:          &http.Client{Timeout: timeout},
		logger:      NewRequestLogger(log),
		cfg:         cfg,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
}

// Model returns the model id currently configured for outbound requests
func (g *Gateway) Model() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg.Model
}

// Configure merges a partial model configuration into the gateway's current
// one. All provided fields are validated before any of them is applied, so a
// rejected patch leaves the configuration untouched.
func (g *Gateway) Configure(patch domain.ModelConfigPatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := g.cfg
	if patch.Model != nil {
		if *patch.Model == "" {
			return domain.NewValidationError("model must be a non-empty string")
		}
		next.Model = *patch.Model
	}
	if patch.Temperature != nil {
		if *patch.Temperature < 0 || *patch.Temperature > 1 {
			return domain.NewValidationError("temperature must be between 0 and 1")
		}
		next.Temperature = *patch.Temperature
	}
	if patch.MaxTokens != nil {
		if *patch.MaxTokens <= 0 {
			return domain.NewValidationError("max_tokens must be a positive integer")
		}
		next.MaxTokens = *patch.MaxTokens
	}

	g.cfg = next
	return nil
}

// Send validates the request, dispatches it with retries, and parses the
// provider's structured answer. Every outcome is logged exactly once:
// a started record before dispatch and a single completed or failed record
// once the result of all attempts is known.
func (g *Gateway) Send(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	g.mu.Lock()
	cfg := g.cfg
	g.mu.Unlock()

	payload := buildPayload(cfg, req)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.WrapUnexpected(err)
	}

	requestID := uuid.New().String()
	g.logger.Start(requestID, cfg.Model, len(req.Messages))
	start := time.Now()

	raw, err := g.dispatch(ctx, requestID, body)
	if err != nil {
		g.logger.Error(requestID, cfg.Model, len(req.Messages), time.Since(start), err)
		return nil, err
	}

	elapsed := time.Since(start)
	result, err := parseResult(raw, elapsed)
	if err != nil {
		g.logger.Error(requestID, cfg.Model, len(req.Messages), time.Since(start), err)
		return nil, err
	}

	g.logger.Complete(requestID, cfg.Model, len(req.Messages), time.Since(start))
	return result, nil
}

func validateRequest(req *domain.ChatRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return domain.NewValidationError("messages must be a non-empty array")
	}
	for _, m := range req.Messages {
		if m.Role != domain.RoleSystem && m.Role != domain.RoleUser {
			return domain.NewValidationError(fmt.Sprintf("invalid message role %q", m.Role))
		}
		if m.Content == "" {
			return domain.NewValidationError("message content must be non-empty")
		}
	}
	if req.ResponseSchema != nil && len(req.ResponseSchema.Schema) == 0 {
		return domain.NewValidationError("response schema must carry a non-empty schema body")
	}
	return nil
}

func buildPayload(cfg domain.ModelConfig, req *domain.ChatRequest) chatCompletionRequest {
	schema := req.ResponseSchema
	if schema == nil {
		schema = DefaultResponseSchema()
	}

	messages := make([]wireMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = wireMessage{Role: m.Role, Content: m.Content}
	}

	return chatCompletionRequest{
		Model:       cfg.Model,
		Messages:    messages,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   schema.Name,
				Strict: schema.Strict,
				Schema: schema.Schema,
			},
		},
	}
}

// dispatch performs the HTTP call with up to maxAttempts sequential attempts.
// Only api_error failures are retried; rate-limit responses, cancellations
// and everything else surface immediately. The delay before attempt n is
// backoffBase doubled per prior failed attempt.
func (g *Gateway) dispatch(ctx context.Context, requestID string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := g.backoffBase << (attempt - 2)
			select {
			case <-ctx.Done():
				return nil, domain.WrapUnexpected(ctx.Err())
			case <-time.After(delay):
			}
		}

		raw, err := g.doRequest(ctx, requestID, body)
		if err == nil {
			return raw, nil
		}

		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) && gwErr.Code == domain.CodeAPI {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (g *Gateway) doRequest(ctx context.Context, requestID string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapUnexpected(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Client", clientName)
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := g.hc.Do(httpReq)
	if err != nil {
		// A caller-imposed deadline is not a provider failure and must not
		// be retried once surfaced.
		if ctx.Err() != nil {
			return nil, domain.WrapUnexpected(ctx.Err())
		}
		return nil, domain.NewAPIError(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewAPIError(fmt.Sprintf("reading response body: %v", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.NewRateLimitError(providerErrorMessage(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewAPIError(fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, providerErrorMessage(data)))
	}

	return data, nil
}

// providerErrorMessage best-effort extracts the message from a provider
// error body, falling back to the raw body when it does not decode.
func providerErrorMessage(data []byte) string {
	var body providerErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "no error details"
	}
	return msg
}

// parseResult extracts and validates the structured answer from the provider
// envelope. The reported duration inside the payload wins over measured
// elapsed time; elapsed time is the fallback when the reported value is zero.
func parseResult(raw []byte, elapsed time.Duration) (*domain.ChatResult, error) {
	var envelope chatCompletionResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, domain.NewAPIError("invalid response format")
	}
	if len(envelope.Choices) == 0 || envelope.Choices[0].Message.Content == "" {
		return nil, domain.NewAPIError("invalid response format")
	}

	var answer structuredAnswer
	if err := json.Unmarshal([]byte(envelope.Choices[0].Message.Content), &answer); err != nil {
		return nil, domain.NewAPIError("failed to parse response as structured data")
	}

	if answer.Answer == "" || answer.Metadata.Duration == nil {
		return nil, domain.NewValidationError("invalid response format")
	}

	duration := *answer.Metadata.Duration
	if duration == 0 {
		duration = elapsed.Seconds()
	}

	return &domain.ChatResult{
		AnswerText:      answer.Answer,
		DurationSeconds: duration,
	}, nil
}
