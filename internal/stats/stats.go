// Package stats derives per-user views from checklist history: activity by
// day, birding time by day and month, and where each species was seen.
package stats

import (
	"sort"
	"time"

	"birdwatch/pkg/models"
)

// SpeciesSighting is one (checklist, sighting) pair from the user's history.
type SpeciesSighting struct {
	CommonName string
	Date       time.Time
	Latitude   float64
	Longitude  float64
}

// Aggregate builds every view in one pass. Checklists are sorted ascending by
// date first so SpeciesSeen sequences come out in observation order.
func Aggregate(checklists []models.Checklist, seen []SpeciesSighting) models.UserStats {
	sort.Slice(checklists, func(i, j int) bool {
		return checklists[i].Date.Before(checklists[j].Date)
	})
	sort.Slice(seen, func(i, j int) bool {
		return seen[i].Date.Before(seen[j].Date)
	})

	out := models.UserStats{
		SightingsByDay: make(map[string]int),
		TimeByDay:      make(map[string]int),
		TimeByMonth:    make(map[string]int),
		SpeciesSeen:    make(map[string][]models.SightingRef),
	}

	for _, cl := range checklists {
		day := cl.Date.Format("2006-01-02")
		month := cl.Date.Format("2006-01")

		out.SightingsByDay[day]++

		// a missing duration counts as zero minutes
		minutes := 0
		if cl.DurationMinutes != nil {
			minutes = *cl.DurationMinutes
		}
		out.TimeByDay[day] += minutes
		out.TimeByMonth[month] += minutes
	}

	for _, s := range seen {
		out.SpeciesSeen[s.CommonName] = append(out.SpeciesSeen[s.CommonName], models.SightingRef{
			Date:      s.Date.Format("2006-01-02"),
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		})
	}

	return out
}
