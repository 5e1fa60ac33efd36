package models

// Sighting is one species-count record attached to a checklist.
type Sighting struct {
	EventID    string `json:"event_id"`
	CommonName string `json:"common_name"`
	Count      int    `json:"count"`
}

// SpeciesCount is a species total inside a bounding box.
type SpeciesCount struct {
	CommonName string `json:"common_name"`
	TotalCount int    `json:"total_count"`
}

// TrendPoint is one day's total for a species inside a bounding box.
type TrendPoint struct {
	Date       string `json:"date"`
	TotalCount int    `json:"total_count"`
}

// Contributor is one observer's checklist tally inside a bounding box.
type Contributor struct {
	ObserverID     string `json:"observer_id"`
	ChecklistCount int    `json:"checklist_count"`
}

// HeatPoint is one observation event's position and summed count,
// serialized as [lat, lng, count] for the heatmap layer.
type HeatPoint struct {
	Latitude  float64
	Longitude float64
	Total     int
}

// MarshalTriple returns the [lat, lng, count] form the map frontend consumes.
func (p HeatPoint) MarshalTriple() [3]float64 {
	return [3]float64{p.Latitude, p.Longitude, float64(p.Total)}
}
