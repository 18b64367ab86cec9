package domain

import "time"

// DateLayout is the calendar-date format used across the API (no time component).
const DateLayout = "2006-01-02"

// Journey represents a planned trip
type Journey struct {
	ID            string    `json:"id"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departure_date"`
	ReturnDate    string    `json:"return_date"`
	Activities    string    `json:"activities,omitempty"`
	Notes         []string  `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateJourneyRequest is the request to create a journey
type CreateJourneyRequest struct {
	Destination   string   `json:"destination" binding:"required"`
	DepartureDate string   `json:"departure_date" binding:"required"`
	ReturnDate    string   `json:"return_date" binding:"required"`
	Activities    string   `json:"activities,omitempty"`
	Notes         []string `json:"notes,omitempty"`
}

// UpdateJourneyRequest is the request to update a journey
type UpdateJourneyRequest struct {
	Destination   string   `json:"destination,omitempty"`
	DepartureDate string   `json:"departure_date,omitempty"`
	ReturnDate    string   `json:"return_date,omitempty"`
	Activities    string   `json:"activities,omitempty"`
	Notes         []string `json:"notes,omitempty"`
}

// ValidateDateRange checks that both dates parse and departure is not after return.
func ValidateDateRange(departure, ret string) error {
	dep, err := time.Parse(DateLayout, departure)
	if err != nil {
		return ErrInvalidRequest
	}
	r, err := time.Parse(DateLayout, ret)
	if err != nil {
		return ErrInvalidRequest
	}
	if dep.After(r) {
		return ErrInvalidRequest
	}
	return nil
}
