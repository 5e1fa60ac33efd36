package stats

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"birdwatch/internal/auth"
)

type Handler struct {
	Repo *Repo
	Log  *zap.Logger
}

func NewHandler(repo *Repo, log *zap.Logger) *Handler {
	return &Handler{Repo: repo, Log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.userStats)
}

// userStats serves the statistics page: ?q= filters species_seen by name,
// ?from= / ?to= (YYYY-MM-DD) bound the scanned history.
func (h *Handler) userStats(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	w, err := windowFromQuery(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}

	checklists, err := h.Repo.ChecklistsByUser(c.Request.Context(), claims.UserID, w)
	if err != nil {
		h.Log.Error("stats checklists failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}

	seen, err := h.Repo.SightingsByUser(c.Request.Context(), claims.UserID, c.Query("q"), w)
	if err != nil {
		h.Log.Error("stats sightings failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}

	c.JSON(http.StatusOK, Aggregate(checklists, seen))
}

func windowFromQuery(fromRaw, toRaw string) (Window, error) {
	var w Window
	if s := strings.TrimSpace(fromRaw); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Window{}, err
		}
		w.From = t
	}
	if s := strings.TrimSpace(toRaw); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Window{}, err
		}
		// inclusive end date
		w.To = t.AddDate(0, 0, 1)
	}
	return w, nil
}
