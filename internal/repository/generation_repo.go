package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/voyago/tripcraft/internal/domain"
)

// GenerationRepository handles generation and error-log persistence
type GenerationRepository struct {
	db *DB
}

// NewGenerationRepository creates a new generation repository
func NewGenerationRepository(db *DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// CreateGeneration creates a new generation record
func (r *GenerationRepository) CreateGeneration(rec *domain.GenerationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO generations (id, journey_id, model_id, generated_text, source_text_hash, source_text_length, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.JourneyID, rec.ModelID, rec.GeneratedText,
		rec.SourceTextHash, rec.SourceTextLength, rec.Status, rec.CreatedAt)

	return err
}

// GetGeneration retrieves a generation by ID
func (r *GenerationRepository) GetGeneration(id string) (*domain.GenerationRecord, error) {
	rec := &domain.GenerationRecord{}
	var editedAt sql.NullTime
	var editedText sql.NullString

	err := r.db.QueryRow(`
		SELECT id, journey_id, model_id, generated_text, source_text_hash, source_text_length, status, created_at, edited_at, edited_text
		FROM generations WHERE id = ?
	`, id).Scan(&rec.ID, &rec.JourneyID, &rec.ModelID, &rec.GeneratedText,
		&rec.SourceTextHash, &rec.SourceTextLength, &rec.Status, &rec.CreatedAt,
		&editedAt, &editedText)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if editedAt.Valid {
		rec.EditedAt = &editedAt.Time
	}
	if editedText.Valid {
		rec.EditedText = editedText.String
	}

	return rec, nil
}

// ListGenerations retrieves all generations for a journey, newest first
func (r *GenerationRepository) ListGenerations(journeyID string) ([]*domain.GenerationRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, journey_id, model_id, generated_text, source_text_hash, source_text_length, status, created_at, edited_at, edited_text
		FROM generations WHERE journey_id = ?
		ORDER BY created_at DESC
	`, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.GenerationRecord
	for rows.Next() {
		rec := &domain.GenerationRecord{}
		var editedAt sql.NullTime
		var editedText sql.NullString

		if err := rows.Scan(&rec.ID, &rec.JourneyID, &rec.ModelID, &rec.GeneratedText,
			&rec.SourceTextHash, &rec.SourceTextLength, &rec.Status, &rec.CreatedAt,
			&editedAt, &editedText); err != nil {
			return nil, err
		}

		if editedAt.Valid {
			rec.EditedAt = &editedAt.Time
		}
		if editedText.Valid {
			rec.EditedText = editedText.String
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpdateReview updates a generation's review status and optional edited text
func (r *GenerationRepository) UpdateReview(id, status, editedText string) error {
	if editedText != "" {
		now := time.Now()
		_, err := r.db.Exec(`
			UPDATE generations SET status = ?, edited_text = ?, edited_at = ? WHERE id = ?
		`, status, editedText, now, id)
		return err
	}

	_, err := r.db.Exec(`UPDATE generations SET status = ? WHERE id = ?`, status, id)
	return err
}

// CreateErrorLog creates a new error-log record
func (r *GenerationRepository) CreateErrorLog(rec *domain.ErrorLogRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO error_logs (id, journey_id, model, source_text_hash, source_text_length, error_code, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.JourneyID, rec.Model, rec.SourceTextHash, rec.SourceTextLength,
		rec.ErrorCode, rec.ErrorMessage, rec.CreatedAt)

	return err
}

// ListErrorLogs retrieves all error logs for a journey, newest first
func (r *GenerationRepository) ListErrorLogs(journeyID string) ([]*domain.ErrorLogRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, journey_id, model, source_text_hash, source_text_length, error_code, error_message, created_at
		FROM error_logs WHERE journey_id = ?
		ORDER BY created_at DESC
	`, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ErrorLogRecord
	for rows.Next() {
		rec := &domain.ErrorLogRecord{}
		if err := rows.Scan(&rec.ID, &rec.JourneyID, &rec.Model, &rec.SourceTextHash,
			&rec.SourceTextLength, &rec.ErrorCode, &rec.ErrorMessage, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
