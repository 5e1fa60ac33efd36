package checklist

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

// Create writes the checklist row and one sighting row per species entry as
// one transaction. A failed sighting insert rolls everything back; a partial
// write is a data-integrity defect.
func (r *Repo) Create(ctx context.Context, cl models.Checklist, species []models.SpeciesEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submit: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var duration any
	if cl.DurationMinutes != nil {
		duration = *cl.DurationMinutes
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO checklist (id, event_id, latitude, longitude, date, observer_id, duration_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, cl.ID, cl.EventID, cl.Latitude, cl.Longitude, cl.Date.UTC(), cl.ObserverID, duration); err != nil {
		return fmt.Errorf("insert checklist: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sighting (event_id, common_name, count)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare sighting insert: %w", err)
	}
	defer stmt.Close()

	for _, sp := range species {
		if _, err = stmt.ExecContext(ctx, cl.EventID, sp.Name, sp.Count); err != nil {
			return fmt.Errorf("insert sighting %q: %w", sp.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit submit: %w", err)
	}
	return nil
}

// ListByUser returns the user's checklists with their species, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.ChecklistDetail, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM checklist WHERE observer_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count checklists: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, event_id, latitude, longitude, date, observer_id, duration_minutes
		FROM checklist
		WHERE observer_id = ?
		ORDER BY date DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list checklists: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChecklistDetail, 0, limit)
	for rows.Next() {
		cl, err := scanChecklist(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, models.ChecklistDetail{Checklist: cl, Species: []models.SpeciesEntry{}})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}

	if err := r.attachSpecies(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches one checklist with its species, or nil when absent.
func (r *Repo) GetByID(ctx context.Context, id string) (*models.ChecklistDetail, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, event_id, latitude, longitude, date, observer_id, duration_minutes
		FROM checklist
		WHERE id = ?
	`, id)

	cl, err := scanChecklist(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	detail := []models.ChecklistDetail{{Checklist: cl, Species: []models.SpeciesEntry{}}}
	if err := r.attachSpecies(ctx, detail); err != nil {
		return nil, err
	}
	return &detail[0], nil
}

// DeleteOwned removes the checklist and every sighting sharing its event id,
// but only when observerID owns it. Returns false when no owned row matched.
func (r *Repo) DeleteOwned(ctx context.Context, id, observerID string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var eventID string
	err = tx.QueryRowContext(ctx, `
		SELECT event_id FROM checklist
		WHERE id = ? AND observer_id = ?
	`, id, observerID).Scan(&eventID)
	if err == sql.ErrNoRows {
		err = nil
		_ = tx.Rollback()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup checklist: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM sighting WHERE event_id = ?`, eventID); err != nil {
		return false, fmt.Errorf("delete sightings: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM checklist WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("delete checklist: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChecklist(row rowScanner) (models.Checklist, error) {
	var (
		cl       models.Checklist
		date     time.Time
		duration sql.NullInt64
	)
	if err := row.Scan(&cl.ID, &cl.EventID, &cl.Latitude, &cl.Longitude, &date, &cl.ObserverID, &duration); err != nil {
		if err == sql.ErrNoRows {
			return models.Checklist{}, err
		}
		return models.Checklist{}, fmt.Errorf("scan checklist: %w", err)
	}
	cl.Date = date
	if duration.Valid {
		d := int(duration.Int64)
		cl.DurationMinutes = &d
	}
	return cl, nil
}

// attachSpecies fills Species for each detail with one IN query.
func (r *Repo) attachSpecies(ctx context.Context, details []models.ChecklistDetail) error {
	if len(details) == 0 {
		return nil
	}

	byEvent := make(map[string]*models.ChecklistDetail, len(details))
	placeholders := make([]string, 0, len(details))
	args := make([]any, 0, len(details))
	for i := range details {
		byEvent[details[i].EventID] = &details[i]
		placeholders = append(placeholders, "?")
		args = append(args, details[i].EventID)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT event_id, common_name, count
		FROM sighting
		WHERE event_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY common_name
	`, args...)
	if err != nil {
		return fmt.Errorf("list sightings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID string
			entry   models.SpeciesEntry
		)
		if err := rows.Scan(&eventID, &entry.Name, &entry.Count); err != nil {
			return fmt.Errorf("scan sighting: %w", err)
		}
		if d, ok := byEvent[eventID]; ok {
			d.Species = append(d.Species, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows err: %w", err)
	}
	return nil
}
