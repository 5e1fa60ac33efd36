package region

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birdwatch/internal/geo"
	"birdwatch/pkg/database"
	"birdwatch/pkg/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedChecklist(t *testing.T, db *sql.DB, eventID, observer string, lat, lon float64, date string) {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO checklist (id, event_id, latitude, longitude, date, observer_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, "id-"+eventID, eventID, lat, lon, d, observer)
	require.NoError(t, err)
}

func seedSighting(t *testing.T, db *sql.DB, eventID, name string, count int) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO sighting (event_id, common_name, count)
		VALUES (?, ?, ?)
	`, eventID, name, count)
	require.NoError(t, err)
}

// seedRegion puts three events inside the test box and one far outside it.
func seedRegion(t *testing.T, db *sql.DB) {
	seedChecklist(t, db, "ev1", "obs1", 37.10, -122.10, "2024-03-01")
	seedSighting(t, db, "ev1", "Crow", 2)
	seedSighting(t, db, "ev1", "Jay", 1)

	seedChecklist(t, db, "ev2", "obs1", 37.15, -122.05, "2024-03-02")
	seedSighting(t, db, "ev2", "Crow", 3)

	seedChecklist(t, db, "ev3", "obs2", 37.05, -122.15, "2024-03-01")
	seedSighting(t, db, "ev3", "Robin", 4)

	seedChecklist(t, db, "ev4", "obs3", 40.00, -100.00, "2024-03-01")
	seedSighting(t, db, "ev4", "Crow", 100)
}

var testBox = geo.Bounds{MinLon: -122.30, MinLat: 36.90, MaxLon: -121.90, MaxLat: 37.30}

func TestSpeciesByRegion(t *testing.T) {
	db := newTestDB(t)
	seedRegion(t, db)
	repo := NewRepo(db)

	got, err := repo.SpeciesByRegion(context.Background(), testBox)
	require.NoError(t, err)

	assert.Equal(t, []models.SpeciesCount{
		{CommonName: "Crow", TotalCount: 5},
		{CommonName: "Jay", TotalCount: 1},
		{CommonName: "Robin", TotalCount: 4},
	}, got)
}

func TestSpeciesByRegionEmptyBox(t *testing.T) {
	db := newTestDB(t)
	seedRegion(t, db)
	repo := NewRepo(db)

	got, err := repo.SpeciesByRegion(context.Background(), geo.Bounds{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSpeciesTrend(t *testing.T) {
	db := newTestDB(t)
	seedRegion(t, db)
	repo := NewRepo(db)

	got, err := repo.SpeciesTrend(context.Background(), "Crow", testBox)
	require.NoError(t, err)

	// ascending by date; outside-box event excluded
	assert.Equal(t, []models.TrendPoint{
		{Date: "2024-03-01", TotalCount: 2},
		{Date: "2024-03-02", TotalCount: 3},
	}, got)
}

func TestTopContributors(t *testing.T) {
	db := newTestDB(t)
	seedRegion(t, db)

	// five more single-checklist observers inside the box
	for i := 4; i <= 8; i++ {
		seedChecklist(t, db, fmt.Sprintf("ev%d", i+10), fmt.Sprintf("obs%d", i), 37.12, -122.08, "2024-03-03")
	}

	repo := NewRepo(db)
	got, err := repo.TopContributors(context.Background(), testBox)
	require.NoError(t, err)

	require.Len(t, got, 5)
	assert.Equal(t, models.Contributor{ObserverID: "obs1", ChecklistCount: 2}, got[0])

	// non-increasing counts, ties broken by observer id
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i].ChecklistCount, got[i-1].ChecklistCount)
	}
	assert.Equal(t, []models.Contributor{
		{ObserverID: "obs2", ChecklistCount: 1},
		{ObserverID: "obs4", ChecklistCount: 1},
		{ObserverID: "obs5", ChecklistCount: 1},
		{ObserverID: "obs6", ChecklistCount: 1},
	}, got[1:])
}

func TestHeatmap(t *testing.T) {
	db := newTestDB(t)
	seedRegion(t, db)
	repo := NewRepo(db)

	t.Run("no filter groups per event", func(t *testing.T) {
		got, err := repo.Heatmap(context.Background(), geo.NameFilter{})
		require.NoError(t, err)
		require.Len(t, got, 4)

		totals := make(map[float64]int)
		for _, p := range got {
			totals[p.Latitude] = p.Total
		}
		assert.Equal(t, 3, totals[37.10]) // ev1: Crow 2 + Jay 1
		assert.Equal(t, 100, totals[40.00])
	})

	t.Run("search filter", func(t *testing.T) {
		got, err := repo.Heatmap(context.Background(), geo.NameFilter{Search: "CRO"})
		require.NoError(t, err)
		require.Len(t, got, 3) // ev1, ev2, ev4 have Crow sightings
	})

	t.Run("name list filter", func(t *testing.T) {
		got, err := repo.Heatmap(context.Background(), geo.NameFilter{Names: []string{"Jay"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 1, got[0].Total)
	})
}
