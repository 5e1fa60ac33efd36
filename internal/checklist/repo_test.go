package checklist

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func testChecklist(id string) models.Checklist {
	duration := 45
	return models.Checklist{
		ID:              id,
		EventID:         "ev-" + id,
		Latitude:        37.1,
		Longitude:       -122.1,
		Date:            time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		ObserverID:      "user-1",
		DurationMinutes: &duration,
	}
}

func TestCreateWritesChecklistAndSightings(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	err := repo.Create(context.Background(), testChecklist("c1"), []models.SpeciesEntry{
		{Name: "Crow", Count: 2},
		{Name: "Jay", Count: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, db, "checklist"))
	assert.Equal(t, 2, countRows(t, db, "sighting"))

	var distinctEvents int
	require.NoError(t, db.QueryRow(`SELECT COUNT(DISTINCT event_id) FROM sighting`).Scan(&distinctEvents))
	assert.Equal(t, 1, distinctEvents)
}

func TestCreateRollsBackOnSightingFailure(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	// the second entry violates the count > 0 check; nothing may persist
	err := repo.Create(context.Background(), testChecklist("c1"), []models.SpeciesEntry{
		{Name: "Crow", Count: 2},
		{Name: "Jay", Count: 0},
	})
	require.Error(t, err)

	assert.Equal(t, 0, countRows(t, db, "checklist"))
	assert.Equal(t, 0, countRows(t, db, "sighting"))
}

func TestDeleteOwnedCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testChecklist("c1"), []models.SpeciesEntry{
		{Name: "Crow", Count: 2},
		{Name: "Jay", Count: 1},
	}))

	ok, err := repo.DeleteOwned(ctx, "c1", "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 0, countRows(t, db, "checklist"))
	assert.Equal(t, 0, countRows(t, db, "sighting"))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteOwnedRejectsNonOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testChecklist("c1"), []models.SpeciesEntry{
		{Name: "Crow", Count: 2},
	}))

	ok, err := repo.DeleteOwned(ctx, "c1", "someone-else")
	require.NoError(t, err)
	assert.False(t, ok)

	// nothing was removed
	assert.Equal(t, 1, countRows(t, db, "checklist"))
	assert.Equal(t, 1, countRows(t, db, "sighting"))
}

func TestDeleteOwnedMissingID(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)

	ok, err := repo.DeleteOwned(context.Background(), "nope", "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	first := testChecklist("c1")
	first.Date = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	second := testChecklist("c2")
	second.Date = time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	other := testChecklist("c3")
	other.ObserverID = "user-2"

	require.NoError(t, repo.Create(ctx, first, []models.SpeciesEntry{{Name: "Crow", Count: 2}}))
	require.NoError(t, repo.Create(ctx, second, []models.SpeciesEntry{{Name: "Jay", Count: 1}, {Name: "Robin", Count: 3}}))
	require.NoError(t, repo.Create(ctx, other, []models.SpeciesEntry{{Name: "Crow", Count: 9}}))

	items, total, err := repo.ListByUser(ctx, "user-1", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)

	// newest first, species attached in name order
	assert.Equal(t, "c2", items[0].ID)
	assert.Equal(t, []models.SpeciesEntry{{Name: "Jay", Count: 1}, {Name: "Robin", Count: 3}}, items[0].Species)
	assert.Equal(t, "c1", items[1].ID)

	// pagination
	items, total, err = repo.ListByUser(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "c1", items[0].ID)
}
