package domain

// Chat message roles. Only system and user turns are ever sent upstream.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatMessage is a single message in a chat-completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseSchema describes the structured-output shape the model must return.
type ResponseSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict,omitempty"`
	Schema map[string]any `json:"schema"`
}

// ChatRequest is an outbound chat-completion request. It is owned by the
// caller that constructs it and must not be mutated after being passed to
// the gateway.
type ChatRequest struct {
	Messages       []ChatMessage   `json:"messages"`
	ResponseSchema *ResponseSchema `json:"response_schema,omitempty"`
}

// ChatResult is the normalized outcome of a successful chat-completion call.
type ChatResult struct {
	AnswerText      string  `json:"answer_text"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ModelConfig holds the model parameters used for outbound requests
type ModelConfig struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// ModelConfigPatch is a partial ModelConfig; nil fields are left unchanged.
type ModelConfigPatch struct {
	Model       *string  `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// DefaultModelConfig returns the process-wide default model configuration
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}
