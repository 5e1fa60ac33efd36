// Command export-csv dumps the checklist and sighting tables back to CSV.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"birdwatch/pkg/database"
)

func main() {
	var (
		checklistsOut = flag.String("checklists", "data/checklists_export.csv", "output CSV path for checklists")
		sightingsOut  = flag.String("sightings", "data/sightings_export.csv", "output CSV path for sightings")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportChecklists(ctx, db, *checklistsOut); err != nil {
		log.Fatalf("export checklists failed: %v", err)
	}
	if err := exportSightings(ctx, db, *sightingsOut); err != nil {
		log.Fatalf("export sightings failed: %v", err)
	}

	log.Printf("✅ exported checklists to %s and sightings to %s", *checklistsOut, *sightingsOut)
}

func exportChecklists(ctx context.Context, db *sql.DB, outPath string) error {
	w, closeFn, err := createCSV(outPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := w.Write([]string{"event_id", "latitude", "longitude", "date", "observer_id", "duration_minutes"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT event_id, latitude, longitude, date, observer_id, duration_minutes
		FROM checklist
		ORDER BY date ASC
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID, observer string
			lat, lon          float64
			date              time.Time
			duration          sql.NullInt64
		)
		if err := rows.Scan(&eventID, &lat, &lon, &date, &observer, &duration); err != nil {
			return err
		}

		durationStr := ""
		if duration.Valid {
			durationStr = strconv.FormatInt(duration.Int64, 10)
		}

		if err := w.Write([]string{
			eventID,
			strconv.FormatFloat(lat, 'f', -1, 64),
			strconv.FormatFloat(lon, 'f', -1, 64),
			date.UTC().Format(time.RFC3339),
			observer,
			durationStr,
		}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func exportSightings(ctx context.Context, db *sql.DB, outPath string) error {
	w, closeFn, err := createCSV(outPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := w.Write([]string{"event_id", "common_name", "count"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT event_id, common_name, count
		FROM sighting
		ORDER BY event_id, common_name
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID, name string
			count         int
		)
		if err := rows.Scan(&eventID, &name, &count); err != nil {
			return err
		}
		if err := w.Write([]string{eventID, name, strconv.Itoa(count)}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func createCSV(outPath string) (*csv.Writer, func(), error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, nil, err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}

	w := csv.NewWriter(f)
	return w, func() {
		w.Flush()
		_ = f.Close()
	}, nil
}
