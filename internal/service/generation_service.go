package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/voyago/tripcraft/internal/domain"
	"go.uber.org/zap"
)

// JourneyStore fetches journeys for generation
type JourneyStore interface {
	Get(id string) (*domain.Journey, error)
}

// GenerationStore persists generation outcomes
type GenerationStore interface {
	CreateGeneration(rec *domain.GenerationRecord) error
	GetGeneration(id string) (*domain.GenerationRecord, error)
	ListGenerations(journeyID string) ([]*domain.GenerationRecord, error)
	UpdateReview(id, status, editedText string) error
	CreateErrorLog(rec *domain.ErrorLogRecord) error
	ListErrorLogs(journeyID string) ([]*domain.ErrorLogRecord, error)
}

// ChatSender delivers a chat request to the model provider
type ChatSender interface {
	Send(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResult, error)
	Model() string
}

// PromptComposer builds prompts and fingerprints from journey data
type PromptComposer interface {
	BuildPrompt(journey *domain.Journey, preferences map[string]any) *domain.ChatRequest
	Fingerprint(journey *domain.Journey, preferences map[string]any) (domain.Fingerprint, error)
}

// RateLimiter gates generation attempts per journey
type RateLimiter interface {
	Allow(key string) error
}

// GenerationService sequences an itinerary generation: rate-limit check,
// journey fetch, prompt composition, the gateway call, and persistence of
// either the generation record or an error-log row. Every failure path ends
// in exactly one persisted error row and the original error returned to the
// caller; a partial generation record is never written.
type GenerationService struct {
	journeys JourneyStore
	store    GenerationStore
	gateway  ChatSender
	composer PromptComposer
	limiter  RateLimiter
	log      *zap.Logger
}

// NewGenerationService creates a new generation service
func NewGenerationService(
	journeys JourneyStore,
	store GenerationStore,
	gateway ChatSender,
	composer PromptComposer,
	limiter RateLimiter,
	log *zap.Logger,
) *GenerationService {
	return &GenerationService{
		journeys: journeys,
		store:    store,
		gateway:  gateway,
		composer: composer,
		limiter:  limiter,
		log:      log.Named("generation"),
	}
}

// Generate produces and persists an AI itinerary for a journey
func (s *GenerationService) Generate(ctx context.Context, journeyID string, preferences map[string]any) (*domain.GenerationRecord, error) {
	if err := s.limiter.Allow(journeyID); err != nil {
		s.recordError(journeyID, nil, err)
		return nil, err
	}

	journey, err := s.journeys.Get(journeyID)
	if err != nil {
		s.recordError(journeyID, nil, err)
		return nil, fmt.Errorf("fetching journey: %w", err)
	}
	if journey == nil {
		s.recordError(journeyID, nil, domain.ErrNotFound)
		return nil, domain.ErrNotFound
	}

	// Computed once and stamped on whichever row this attempt ends in, so
	// success and error rows for the same request are joinable by hash.
	fp, err := s.composer.Fingerprint(journey, preferences)
	if err != nil {
		s.recordError(journeyID, nil, err)
		return nil, err
	}

	req := s.composer.BuildPrompt(journey, preferences)

	result, err := s.gateway.Send(ctx, req)
	if err != nil {
		s.recordError(journeyID, &fp, err)
		return nil, err
	}

	rec := &domain.GenerationRecord{
		JourneyID:        journeyID,
		ModelID:          s.gateway.Model(),
		GeneratedText:    result.AnswerText,
		SourceTextHash:   fp.Hash,
		SourceTextLength: fp.Length,
		Status:           domain.GenerationStatusGenerated,
	}
	if err := s.store.CreateGeneration(rec); err != nil {
		return nil, fmt.Errorf("persisting generation: %w", err)
	}

	return rec, nil
}

// recordError persists an error-log row for a failed attempt. Fingerprint
// fields fall back to placeholders when the failure happened before the
// fingerprint could be computed. A failed insert is logged but never masks
// the original error.
func (s *GenerationService) recordError(journeyID string, fp *domain.Fingerprint, cause error) {
	rec := &domain.ErrorLogRecord{
		JourneyID:        journeyID,
		Model:            s.gateway.Model(),
		SourceTextHash:   domain.UnknownHash,
		SourceTextLength: domain.UnknownLength,
		ErrorCode:        string(errorCode(cause)),
		ErrorMessage:     cause.Error(),
	}
	if fp != nil {
		rec.SourceTextHash = fp.Hash
		rec.SourceTextLength = fp.Length
	}

	if err := s.store.CreateErrorLog(rec); err != nil {
		s.log.Error("failed to persist error log",
			zap.String("journey_id", journeyID),
			zap.Error(err),
		)
	}
}

func errorCode(err error) domain.ErrorCode {
	if errors.Is(err, domain.ErrNotFound) {
		return "not_found"
	}
	return domain.ClassifyError(err)
}

// ListGenerations retrieves all generations for a journey
func (s *GenerationService) ListGenerations(ctx context.Context, journeyID string) ([]*domain.GenerationRecord, error) {
	return s.store.ListGenerations(journeyID)
}

// ListErrorLogs retrieves all error logs for a journey
func (s *GenerationService) ListErrorLogs(ctx context.Context, journeyID string) ([]*domain.ErrorLogRecord, error) {
	return s.store.ListErrorLogs(journeyID)
}

// AcceptGeneration marks a generation accepted, recording edits when the
// user changed the text before accepting.
func (s *GenerationService) AcceptGeneration(ctx context.Context, id string, req *domain.AcceptGenerationRequest) (*domain.GenerationRecord, error) {
	rec, err := s.store.GetGeneration(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if rec.Status != domain.GenerationStatusGenerated {
		return nil, fmt.Errorf("%w: generation already reviewed", domain.ErrInvalidRequest)
	}

	status := domain.GenerationStatusAcceptedUnedited
	editedText := ""
	if req != nil && req.EditedText != "" && req.EditedText != rec.GeneratedText {
		status = domain.GenerationStatusAcceptedEdited
		editedText = req.EditedText
	}

	if err := s.store.UpdateReview(id, status, editedText); err != nil {
		return nil, fmt.Errorf("updating generation: %w", err)
	}

	return s.store.GetGeneration(id)
}

// RejectGeneration marks a generation rejected
func (s *GenerationService) RejectGeneration(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	rec, err := s.store.GetGeneration(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if rec.Status != domain.GenerationStatusGenerated {
		return nil, fmt.Errorf("%w: generation already reviewed", domain.ErrInvalidRequest)
	}

	if err := s.store.UpdateReview(id, domain.GenerationStatusRejected, ""); err != nil {
		return nil, fmt.Errorf("updating generation: %w", err)
	}

	return s.store.GetGeneration(id)
}
