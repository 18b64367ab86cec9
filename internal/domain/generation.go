package domain

import "time"

// Generation status values
const (
	GenerationStatusGenerated        = "generated"
	GenerationStatusAcceptedUnedited = "accepted_unedited"
	GenerationStatusAcceptedEdited   = "accepted_edited"
	GenerationStatusRejected         = "rejected"
)

// Fingerprint is the audit stamp of the exact serialized input a generation
// was produced from: SHA-256 hex of the canonical serialization plus its
// byte length. Success and error rows for the same attempt carry the same
// pair so they are joinable by hash.
type Fingerprint struct {
	Hash   string `json:"hash"`
	Length int    `json:"length"`
}

// Placeholder fingerprint values for failures that happen before the
// fingerprint could be computed.
const (
	UnknownHash   = "unknown"
	UnknownLength = 0
)

// GenerationRecord is a persisted AI itinerary generation
type GenerationRecord struct {
	ID               string     `json:"id"`
	JourneyID        string     `json:"journey_id"`
	ModelID          string     `json:"model_id"`
	GeneratedText    string     `json:"generated_text"`
	SourceTextHash   string     `json:"source_text_hash"`
	SourceTextLength int        `json:"source_text_length"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	EditedAt         *time.Time `json:"edited_at,omitempty"`
	EditedText       string     `json:"edited_text,omitempty"`
}

// ErrorLogRecord is a persisted record of a failed generation attempt
type ErrorLogRecord struct {
	ID               string    `json:"id"`
	JourneyID        string    `json:"journey_id"`
	Model            string    `json:"model"`
	SourceTextHash   string    `json:"source_text_hash"`
	SourceTextLength int       `json:"source_text_length"`
	ErrorCode        string    `json:"error_code"`
	ErrorMessage     string    `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}

// GenerateRequest is the request to generate an itinerary for a journey.
// Preferences are an opaque key/value bag passed through into the prompt
// and the fingerprint; the core never inspects individual keys.
type GenerateRequest struct {
	Preferences map[string]any `json:"preferences,omitempty"`
}

// AcceptGenerationRequest is the request to accept a generation, optionally
// with user edits applied to the generated text.
type AcceptGenerationRequest struct {
	EditedText string `json:"edited_text,omitempty"`
}
