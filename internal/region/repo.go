// Package region answers the aggregate queries behind the map frontend:
// species totals, per-species trends, and contributor rankings inside a
// bounding box, plus the global sightings heatmap.
package region

import (
	"context"
	"database/sql"
	"fmt"

	"birdwatch/internal/geo"
	"birdwatch/pkg/models"
)

const topContributorsLimit = 5

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// SpeciesByRegion sums sighting counts per species for checklists inside the
// box. An empty match is an empty slice, not an error.
func (r *Repo) SpeciesByRegion(ctx context.Context, b geo.Bounds) ([]models.SpeciesCount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT s.common_name, SUM(s.count) AS total_count
		FROM sighting s
		JOIN checklist c ON s.event_id = c.event_id
		WHERE c.latitude BETWEEN ? AND ?
		  AND c.longitude BETWEEN ? AND ?
		GROUP BY s.common_name
		ORDER BY s.common_name
	`, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("species by region query: %w", err)
	}
	defer rows.Close()

	out := make([]models.SpeciesCount, 0)
	for rows.Next() {
		var sc models.SpeciesCount
		if err := rows.Scan(&sc.CommonName, &sc.TotalCount); err != nil {
			return nil, fmt.Errorf("species by region scan: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// SpeciesTrend sums one species' counts per day inside the box, ascending by
// date. The ordering feeds a time-series chart.
func (r *Repo) SpeciesTrend(ctx context.Context, speciesName string, b geo.Bounds) ([]models.TrendPoint, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DATE(c.date) AS day, SUM(s.count) AS total_count
		FROM sighting s
		JOIN checklist c ON s.event_id = c.event_id
		WHERE s.common_name = ?
		  AND c.latitude BETWEEN ? AND ?
		  AND c.longitude BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`, speciesName, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("species trend query: %w", err)
	}
	defer rows.Close()

	out := make([]models.TrendPoint, 0)
	for rows.Next() {
		var tp models.TrendPoint
		if err := rows.Scan(&tp.Date, &tp.TotalCount); err != nil {
			return nil, fmt.Errorf("species trend scan: %w", err)
		}
		out = append(out, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// TopContributors ranks observers by checklist count (one per checklist, not
// per sighting) inside the box. Ties break on observer id for stable output.
func (r *Repo) TopContributors(ctx context.Context, b geo.Bounds) ([]models.Contributor, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.observer_id, COUNT(*) AS checklist_count
		FROM checklist c
		WHERE c.latitude BETWEEN ? AND ?
		  AND c.longitude BETWEEN ? AND ?
		GROUP BY c.observer_id
		ORDER BY checklist_count DESC, c.observer_id ASC
		LIMIT ?
	`, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon, topContributorsLimit)
	if err != nil {
		return nil, fmt.Errorf("top contributors query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Contributor, 0, topContributorsLimit)
	for rows.Next() {
		var ct models.Contributor
		if err := rows.Scan(&ct.ObserverID, &ct.ChecklistCount); err != nil {
			return nil, fmt.Errorf("top contributors scan: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Heatmap sums counts per observation event, optionally restricted by a name
// filter. Events sharing identical coordinates stay distinct points; the heat
// layer stacks them client-side.
func (r *Repo) Heatmap(ctx context.Context, f geo.NameFilter) ([]models.HeatPoint, error) {
	sqlStr := `
		SELECT c.latitude, c.longitude, SUM(s.count) AS total_count
		FROM sighting s
		JOIN checklist c ON s.event_id = c.event_id
	`
	clause, args := f.SQL("s.common_name")
	if clause != "" {
		sqlStr += " WHERE " + clause
	}
	sqlStr += " GROUP BY s.event_id"

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("heatmap query: %w", err)
	}
	defer rows.Close()

	out := make([]models.HeatPoint, 0)
	for rows.Next() {
		var hp models.HeatPoint
		if err := rows.Scan(&hp.Latitude, &hp.Longitude, &hp.Total); err != nil {
			return nil, fmt.Errorf("heatmap scan: %w", err)
		}
		out = append(out, hp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
