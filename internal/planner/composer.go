package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/voyago/tripcraft/internal/domain"
)

const systemPrompt = `You are a travel planner assistant. Produce a day-by-day itinerary for the trip described by the user. Answer in the language of the user's request. Structure the itinerary by day, list concrete activities and sights with short explanations, and use lightweight Markdown formatting (headings and bullet lists only).`

// Composer deterministically builds the model prompt and the audit
// fingerprint for a journey. Identical inputs always produce identical
// output; nothing time- or identity-dependent is embedded.
type Composer struct{}

// NewComposer creates a new prompt composer
func NewComposer() *Composer {
	return &Composer{}
}

// BuildPrompt produces the two-message prompt for a journey: the fixed
// system instruction and a user message interpolating the journey's fields
// and the optional preferences.
func (c *Composer) BuildPrompt(journey *domain.Journey, preferences map[string]any) *domain.ChatRequest {
	activities := journey.Activities
	if activities == "" {
		activities = "none specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plan a trip to %s from %s to %s.\n", journey.Destination, journey.DepartureDate, journey.ReturnDate)
	fmt.Fprintf(&b, "Preferred activities: %s.\n", activities)
	if len(journey.Notes) > 0 {
		fmt.Fprintf(&b, "Notes: %s.\n", strings.Join(journey.Notes, "; "))
	}
	if len(preferences) > 0 {
		b.WriteString("Plan preferences:\n")
		for _, k := range sortedKeys(preferences) {
			fmt.Fprintf(&b, "- %s: %v\n", k, preferences[k])
		}
	}

	return &domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: systemPrompt},
			{Role: domain.RoleUser, Content: b.String()},
		},
	}
}

// Fingerprint serializes the journey fields the prompt is derived from,
// together with the preferences, into canonical JSON and returns its SHA-256
// hex digest and byte length. The caller computes this once per attempt and
// stamps both the success and the error row with it, so the two are joinable
// by hash.
func (c *Composer) Fingerprint(journey *domain.Journey, preferences map[string]any) (domain.Fingerprint, error) {
	payload := struct {
		Journey     fingerprintJourney `json:"journey"`
		Preferences map[string]any     `json:"preferences,omitempty"`
	}{
		Journey: fingerprintJourney{
			Destination:   journey.Destination,
			DepartureDate: journey.DepartureDate,
			ReturnDate:    journey.ReturnDate,
			Activities:    journey.Activities,
			Notes:         journey.Notes,
		},
		Preferences: preferences,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Fingerprint{}, fmt.Errorf("serializing fingerprint input: %w", err)
	}

	sum := sha256.Sum256(data)
	return domain.Fingerprint{
		Hash:   hex.EncodeToString(sum[:]),
		Length: len(data),
	}, nil
}

// fingerprintJourney pins the exact journey fields and order that enter the
// canonical serialization. Record timestamps stay out so re-requesting an
// unchanged journey yields the same hash.
type fingerprintJourney struct {
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    string   `json:"return_date"`
	Activities    string   `json:"activities"`
	Notes         []string `json:"notes"`
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
