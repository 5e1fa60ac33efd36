package checklist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"birdwatch/internal/auth"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	repo := NewRepo(db)
	h := NewHandler(repo, nil, nil, zap.NewNop())

	router := gin.New()
	authed := router.Group("/api")
	authed.Use(func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: "user-1", Username: "alex"})
	})
	h.RegisterRoutes(authed)
	return router, repo
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitChecklist(t *testing.T) {
	router, repo := newTestRouter(t)

	w := postJSON(router, "/api/checklists", gin.H{
		"lat": 37.1,
		"lng": -122.1,
		"species": []gin.H{
			{"name": "Crow", "count": 2},
			{"name": "Jay", "count": 1},
		},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.ID)

	saved, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "user-1", saved.ObserverID)
	assert.Len(t, saved.Species, 2)
	// default duration applies when the field is absent
	require.NotNil(t, saved.DurationMinutes)
	assert.Equal(t, 60, *saved.DurationMinutes)
}

func TestSubmitChecklistValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name    string
		payload gin.H
		wantMsg string
	}{
		{
			name:    "missing latitude",
			payload: gin.H{"lng": -122.1, "species": []gin.H{{"name": "Crow", "count": 1}}},
			wantMsg: "latitude is required",
		},
		{
			name:    "latitude out of range",
			payload: gin.H{"lat": 95.0, "lng": -122.1, "species": []gin.H{{"name": "Crow", "count": 1}}},
			wantMsg: "latitude must be between -90 and 90",
		},
		{
			name:    "longitude out of range",
			payload: gin.H{"lat": 37.1, "lng": 200.0, "species": []gin.H{{"name": "Crow", "count": 1}}},
			wantMsg: "longitude must be between -180 and 180",
		},
		{
			name:    "no species",
			payload: gin.H{"lat": 37.1, "lng": -122.1, "species": []gin.H{}},
			wantMsg: "at least one species is required",
		},
		{
			name:    "species without name",
			payload: gin.H{"lat": 37.1, "lng": -122.1, "species": []gin.H{{"count": 2}}},
			wantMsg: "species name is required",
		},
		{
			name:    "zero count",
			payload: gin.H{"lat": 37.1, "lng": -122.1, "species": []gin.H{{"name": "Crow", "count": 0}}},
			wantMsg: "species count must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/checklists", tt.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantMsg)
		})
	}
}

func TestSubmitChecklistBadDate(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(router, "/api/checklists", gin.H{
		"lat":     37.1,
		"lng":     -122.1,
		"date":    "yesterday",
		"species": []gin.H{{"name": "Crow", "count": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteChecklistNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/checklists/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Checklist not found")
}

func TestDeleteChecklistOwned(t *testing.T) {
	router, repo := newTestRouter(t)

	w := postJSON(router, "/api/checklists", gin.H{
		"lat":     37.1,
		"lng":     -122.1,
		"species": []gin.H{{"name": "Crow", "count": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodDelete, "/api/checklists/"+resp.ID, nil)
	del := httptest.NewRecorder()
	router.ServeHTTP(del, req)
	assert.Equal(t, http.StatusOK, del.Code)

	saved, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestListChecklists(t *testing.T) {
	router, _ := newTestRouter(t)

	for i := 0; i < 3; i++ {
		w := postJSON(router, "/api/checklists", gin.H{
			"lat":     37.1,
			"lng":     -122.1,
			"species": []gin.H{{"name": "Crow", "count": 1}},
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/checklists?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total      int               `json:"total"`
		Checklists []json.RawMessage `json:"checklists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Checklists, 2)
}
