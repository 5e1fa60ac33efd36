package models

// SightingRef locates one sighting of a species: when and where it was seen.
type SightingRef struct {
	Date      string  `json:"date"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UserStats holds the derived views over one user's checklist history.
// Day keys are "2006-01-02", month keys "2006-01".
type UserStats struct {
	SightingsByDay map[string]int           `json:"sightings_by_day"`
	TimeByDay      map[string]int           `json:"time_by_day"`
	TimeByMonth    map[string]int           `json:"time_by_month"`
	SpeciesSeen    map[string][]SightingRef `json:"species_seen"`
}
