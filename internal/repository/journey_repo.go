package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/voyago/tripcraft/internal/domain"
)

// JourneyRepository handles journey persistence
type JourneyRepository struct {
	db *DB
}

// NewJourneyRepository creates a new journey repository
func NewJourneyRepository(db *DB) *JourneyRepository {
	return &JourneyRepository{db: db}
}

// Create creates a new journey
func (r *JourneyRepository) Create(journey *domain.Journey) error {
	if journey.ID == "" {
		journey.ID = uuid.New().String()
	}
	now := time.Now()
	journey.CreatedAt = now
	journey.UpdatedAt = now

	notesJSON, _ := json.Marshal(journey.Notes)

	_, err := r.db.Exec(`
		INSERT INTO journeys (id, destination, departure_date, return_date, activities, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, journey.ID, journey.Destination, journey.DepartureDate, journey.ReturnDate,
		journey.Activities, string(notesJSON), journey.CreatedAt, journey.UpdatedAt)

	return err
}

// Get retrieves a journey by ID
func (r *JourneyRepository) Get(id string) (*domain.Journey, error) {
	journey := &domain.Journey{}
	var activities, notesJSON sql.NullString

	err := r.db.QueryRow(`
		SELECT id, destination, departure_date, return_date, activities, notes, created_at, updated_at
		FROM journeys WHERE id = ?
	`, id).Scan(&journey.ID, &journey.Destination, &journey.DepartureDate, &journey.ReturnDate,
		&activities, &notesJSON, &journey.CreatedAt, &journey.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if activities.Valid {
		journey.Activities = activities.String
	}
	if notesJSON.Valid && notesJSON.String != "" {
		json.Unmarshal([]byte(notesJSON.String), &journey.Notes)
	}

	return journey, nil
}

// List retrieves all journeys
func (r *JourneyRepository) List() ([]*domain.Journey, error) {
	rows, err := r.db.Query(`
		SELECT id, destination, departure_date, return_date, activities, notes, created_at, updated_at
		FROM journeys ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journeys []*domain.Journey
	for rows.Next() {
		journey := &domain.Journey{}
		var activities, notesJSON sql.NullString

		if err := rows.Scan(&journey.ID, &journey.Destination, &journey.DepartureDate,
			&journey.ReturnDate, &activities, &notesJSON, &journey.CreatedAt, &journey.UpdatedAt); err != nil {
			return nil, err
		}

		if activities.Valid {
			journey.Activities = activities.String
		}
		if notesJSON.Valid && notesJSON.String != "" {
			json.Unmarshal([]byte(notesJSON.String), &journey.Notes)
		}
		journeys = append(journeys, journey)
	}

	return journeys, rows.Err()
}

// Update updates a journey
func (r *JourneyRepository) Update(journey *domain.Journey) error {
	journey.UpdatedAt = time.Now()
	notesJSON, _ := json.Marshal(journey.Notes)

	_, err := r.db.Exec(`
		UPDATE journeys SET destination = ?, departure_date = ?, return_date = ?, activities = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, journey.Destination, journey.DepartureDate, journey.ReturnDate,
		journey.Activities, string(notesJSON), journey.UpdatedAt, journey.ID)

	return err
}

// Delete deletes a journey
func (r *JourneyRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM journeys WHERE id = ?`, id)
	return err
}
