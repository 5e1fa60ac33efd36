package stats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"birdwatch/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Window bounds the history scanned; zero values mean unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) clauses(col string) ([]string, []any) {
	var where []string
	var args []any
	if !w.From.IsZero() {
		where = append(where, col+" >= ?")
		args = append(args, w.From.UTC())
	}
	if !w.To.IsZero() {
		where = append(where, col+" < ?")
		args = append(args, w.To.UTC())
	}
	return where, args
}

// ChecklistsByUser returns the user's checklists ascending by date.
func (r *Repo) ChecklistsByUser(ctx context.Context, userID string, w Window) ([]models.Checklist, error) {
	where := []string{"observer_id = ?"}
	args := []any{userID}
	extra, extraArgs := w.clauses("date")
	where = append(where, extra...)
	args = append(args, extraArgs...)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, event_id, latitude, longitude, date, observer_id, duration_minutes
		FROM checklist
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY date ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("checklists by user: %w", err)
	}
	defer rows.Close()

	var out []models.Checklist
	for rows.Next() {
		var (
			cl       models.Checklist
			duration sql.NullInt64
		)
		if err := rows.Scan(&cl.ID, &cl.EventID, &cl.Latitude, &cl.Longitude, &cl.Date, &cl.ObserverID, &duration); err != nil {
			return nil, fmt.Errorf("scan checklist: %w", err)
		}
		if duration.Valid {
			d := int(duration.Int64)
			cl.DurationMinutes = &d
		}
		out = append(out, cl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// SightingsByUser returns every sighting on the user's checklists, optionally
// restricted to common names containing search (case-insensitive). All
// matches per checklist are returned, not just the first.
func (r *Repo) SightingsByUser(ctx context.Context, userID, search string, w Window) ([]SpeciesSighting, error) {
	where := []string{"c.observer_id = ?"}
	args := []any{userID}

	if s := strings.TrimSpace(search); s != "" {
		where = append(where, "LOWER(s.common_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(s)+"%")
	}

	extra, extraArgs := w.clauses("c.date")
	where = append(where, extra...)
	args = append(args, extraArgs...)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT s.common_name, c.date, c.latitude, c.longitude
		FROM sighting s
		JOIN checklist c ON s.event_id = c.event_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY c.date ASC, s.common_name ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("sightings by user: %w", err)
	}
	defer rows.Close()

	var out []SpeciesSighting
	for rows.Next() {
		var s SpeciesSighting
		if err := rows.Scan(&s.CommonName, &s.Date, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("scan sighting: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
