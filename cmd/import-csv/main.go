// Command import-csv seeds the database from CSV extracts of the source
// observation dataset (checklists, sightings, species).
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"birdwatch/pkg/database"
)

func main() {
	var (
		checklistsIn = flag.String("checklists", "data/checklists.csv", "input CSV path for checklists")
		sightingsIn  = flag.String("sightings", "data/sightings.csv", "input CSV path for sightings")
		speciesIn    = flag.String("species", "data/species.csv", "input CSV path for species")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := importSpecies(ctx, db, *speciesIn); err != nil {
		log.Fatalf("import species failed: %v", err)
	}
	if err := importChecklists(ctx, db, *checklistsIn); err != nil {
		log.Fatalf("import checklists failed: %v", err)
	}
	if err := importSightings(ctx, db, *sightingsIn); err != nil {
		log.Fatalf("import sightings failed: %v", err)
	}

	log.Printf("✅ imported species, checklists and sightings into %s", database.DefaultConfig().Path)
}

func importSpecies(ctx context.Context, db *sql.DB, path string) error {
	r, closeFn, err := openCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO species (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		name := field(row, 0)
		if name == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// importChecklists reads the extract's column layout: sampling event id
// (leading type prefix stripped), latitude, longitude, observation date,
// start time, observer id ("obs" prefix stripped), duration minutes.
func importChecklists(ctx context.Context, db *sql.DB, path string) error {
	r, closeFn, err := openCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO checklist (id, event_id, latitude, longitude, date, observer_id, duration_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			date = excluded.date,
			observer_id = excluded.observer_id,
			duration_minutes = excluded.duration_minutes
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		eventID := stripPrefix(field(row, 0), 1)
		if eventID == "" {
			continue
		}

		lat, err := strconv.ParseFloat(field(row, 1), 64)
		if err != nil {
			return fmt.Errorf("parse latitude for %s: %w", eventID, err)
		}
		lon, err := strconv.ParseFloat(field(row, 2), 64)
		if err != nil {
			return fmt.Errorf("parse longitude for %s: %w", eventID, err)
		}

		date, err := parseEventDate(field(row, 3), field(row, 4))
		if err != nil {
			return fmt.Errorf("parse date for %s: %w", eventID, err)
		}

		observer := stripPrefix(field(row, 5), 3)

		duration, err := parseNullInt(field(row, 6))
		if err != nil {
			return fmt.Errorf("parse duration for %s: %w", eventID, err)
		}

		if _, err := stmt.ExecContext(ctx, uuid.NewString(), eventID, lat, lon, date, observer, duration); err != nil {
			return err
		}
	}
	return nil
}

// importSightings reads event id, common name, count. A count of "X" marks
// presence without a number and is stored as 1; other non-numeric or
// non-positive counts are skipped.
func importSightings(ctx context.Context, db *sql.DB, path string) error {
	r, closeFn, err := openCSV(path)
	if err != nil {
		return err
	}
	defer closeFn()

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO sighting (event_id, common_name, count)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	skipped := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		eventID := stripPrefix(field(row, 0), 1)
		name := field(row, 1)
		if eventID == "" || name == "" {
			continue
		}

		count, ok := parseCount(field(row, 2))
		if !ok {
			skipped++
			continue
		}

		if _, err := stmt.ExecContext(ctx, eventID, name, count); err != nil {
			return err
		}
	}
	if skipped > 0 {
		log.Printf("skipped %d sightings with unusable counts", skipped)
	}
	return nil
}

// openCSV opens the file and consumes the header row.
func openCSV(path string) (*csv.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	if _, err := r.Read(); err != nil && err != io.EOF {
		_ = f.Close()
		return nil, nil, err
	}
	return r, func() { _ = f.Close() }, nil
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func stripPrefix(s string, n int) string {
	if len(s) <= n {
		return ""
	}
	return s[n:]
}

func parseEventDate(dateRaw, timeRaw string) (time.Time, error) {
	if timeRaw == "" {
		return time.Parse("2006-01-02", dateRaw)
	}
	return time.Parse("2006-01-02 15:04:05", dateRaw+" "+timeRaw)
}

func parseCount(raw string) (int, bool) {
	// "X" marks presence-only records
	if strings.EqualFold(raw, "X") {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseNullInt(raw string) (sql.NullInt64, error) {
	if raw == "" {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}
