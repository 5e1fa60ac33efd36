package models

import "time"

// Checklist is one observation event: a place, time, duration, and observer.
// EventID is the identifier from the source dataset; submitted checklists get
// a generated one.
type Checklist struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Date            time.Time `json:"date"`
	ObserverID      string    `json:"observer_id"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
}

// SpeciesEntry is one reported species inside a checklist.
type SpeciesEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ChecklistDetail is a checklist together with its reported species,
// as returned by the list-my-checklists endpoint.
type ChecklistDetail struct {
	Checklist
	Species []SpeciesEntry `json:"species"`
}
