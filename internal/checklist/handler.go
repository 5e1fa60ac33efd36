package checklist

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"birdwatch/internal/auth"
	"birdwatch/internal/cache"
	"birdwatch/internal/live"
	"birdwatch/pkg/models"
)

const defaultDurationMinutes = 60

type Handler struct {
	Repo     *Repo
	Hub      *live.Hub
	Cache    *cache.Cache
	Log      *zap.Logger
	validate *validator.Validate
}

func NewHandler(repo *Repo, hub *live.Hub, c *cache.Cache, log *zap.Logger) *Handler {
	return &Handler{
		Repo:     repo,
		Hub:      hub,
		Cache:    c,
		Log:      log,
		validate: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checklists", h.submit)
	rg.GET("/checklists", h.list)
	rg.DELETE("/checklists/:id", h.remove)
}

type speciesReq struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"required,gte=1"`
}

type submitReq struct {
	Lat      *float64     `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng      *float64     `json:"lng" validate:"required,gte=-180,lte=180"`
	Date     string       `json:"date"`
	Duration *int         `json:"duration" validate:"omitempty,gte=0"`
	Species  []speciesReq `json:"species" validate:"required,min=1,dive"`
}

func (h *Handler) submit(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validationMessage(err)})
		return
	}

	date := time.Now().UTC()
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "date must be RFC3339 or YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	duration := defaultDurationMinutes
	if req.Duration != nil {
		duration = *req.Duration
	}

	cl := models.Checklist{
		ID:              uuid.NewString(),
		EventID:         uuid.NewString(),
		Latitude:        *req.Lat,
		Longitude:       *req.Lng,
		Date:            date,
		ObserverID:      claims.UserID,
		DurationMinutes: &duration,
	}

	species := make([]models.SpeciesEntry, 0, len(req.Species))
	total := 0
	for _, sp := range req.Species {
		species = append(species, models.SpeciesEntry{Name: strings.TrimSpace(sp.Name), Count: sp.Count})
		total += sp.Count
	}

	if err := h.Repo.Create(c.Request.Context(), cl, species); err != nil {
		h.Log.Error("checklist submit failed",
			zap.String("observer_id", claims.UserID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "save failed"})
		return
	}

	if h.Cache != nil {
		h.Cache.Invalidate()
	}
	if h.Hub != nil {
		ev := live.SightingEvent{
			Type:       "sighting.new",
			EventID:    cl.EventID,
			Latitude:   cl.Latitude,
			Longitude:  cl.Longitude,
			TotalCount: total,
			At:         time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "id": cl.ID})
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.ListByUser(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		h.Log.Error("list checklists failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"limit":      limit,
		"offset":     offset,
		"checklists": items,
	})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	ok, err := h.Repo.DeleteOwned(c.Request.Context(), id, claims.UserID)
	if err != nil {
		h.Log.Error("delete checklist failed",
			zap.String("id", id),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
		return
	}
	if !ok {
		// same answer for missing and not-owned rows
		c.JSON(http.StatusNotFound, gin.H{"error": "Checklist not found"})
		return
	}

	if h.Cache != nil {
		h.Cache.Invalidate()
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("unsupported date format")
}

// validationMessage turns the first field error into the descriptive text the
// frontend shows.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	fe := verrs[0]
	switch fe.StructField() {
	case "Lat":
		if fe.Tag() == "required" {
			return "latitude is required"
		}
		return "latitude must be between -90 and 90"
	case "Lng":
		if fe.Tag() == "required" {
			return "longitude is required"
		}
		return "longitude must be between -180 and 180"
	case "Duration":
		return "duration must not be negative"
	case "Species":
		return "at least one species is required"
	case "Name":
		return "species name is required"
	case "Count":
		return "species count must be a positive integer"
	}
	return "invalid request"
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
