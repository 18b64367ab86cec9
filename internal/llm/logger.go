package llm

import (
	"time"

	"go.uber.org/zap"
)

// RequestLogger emits one structured record per lifecycle event of an
// outbound chat-completion request, keyed by the request correlation id.
// It is side-effect-only and never influences control flow.
type RequestLogger struct {
	log *zap.Logger
}

// NewRequestLogger creates a request logger on top of the given zap logger
func NewRequestLogger(log *zap.Logger) *RequestLogger {
	return &RequestLogger{log: log.Named("llm")}
}

// Start records that a request is about to be dispatched
func (l *RequestLogger) Start(requestID, model string, messageCount int) {
	l.log.Info("chat request started",
		zap.String("request_id", requestID),
		zap.String("model", model),
		zap.Int("message_count", messageCount),
	)
}

// Complete records a successful request with its total duration
func (l *RequestLogger) Complete(requestID, model string, messageCount int, duration time.Duration) {
	l.log.Info("chat request completed",
		zap.String("request_id", requestID),
		zap.String("model", model),
		zap.Int("message_count", messageCount),
		zap.Duration("duration", duration),
	)
}

// Error records a failed request with its total duration and the error
func (l *RequestLogger) Error(requestID, model string, messageCount int, duration time.Duration, err error) {
	l.log.Error("chat request failed",
		zap.String("request_id", requestID),
		zap.String("model", model),
		zap.Int("message_count", messageCount),
		zap.Duration("duration", duration),
		zap.Error(err),
	)
}
