package region

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"birdwatch/internal/cache"
	"birdwatch/internal/geo"
)

type Handler struct {
	Repo  *Repo
	Cache *cache.Cache
	Log   *zap.Logger
}

func NewHandler(repo *Repo, c *cache.Cache, log *zap.Logger) *Handler {
	return &Handler{Repo: repo, Cache: c, Log: log}
}

// RegisterRoutes mounts the box-scoped queries; the caller decides which
// group is auth-protected.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/species-by-region", h.speciesByRegion)
	rg.GET("/species-trends", h.speciesTrends)
	rg.GET("/top-contributors", h.topContributors)
}

// RegisterPublicRoutes mounts the heatmap, which the index map loads before
// login.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/sightings", h.sightings)
}

func (h *Handler) speciesByRegion(c *gin.Context) {
	b, ok := h.boundsFromQuery(c)
	if !ok {
		return
	}

	data, err := h.Repo.SpeciesByRegion(c.Request.Context(), b)
	if err != nil {
		h.Log.Error("species by region failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *Handler) speciesTrends(c *gin.Context) {
	speciesName := strings.TrimSpace(c.Query("species_name"))
	if speciesName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "species_name is required"})
		return
	}

	b, ok := h.boundsFromQuery(c)
	if !ok {
		return
	}

	data, err := h.Repo.SpeciesTrend(c.Request.Context(), speciesName, b)
	if err != nil {
		h.Log.Error("species trend failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *Handler) topContributors(c *gin.Context) {
	b, ok := h.boundsFromQuery(c)
	if !ok {
		return
	}

	data, err := h.Repo.TopContributors(c.Request.Context(), b)
	if err != nil {
		h.Log.Error("top contributors failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *Handler) sightings(c *gin.Context) {
	filter := geo.NewNameFilter(c.Query("search"), c.Query("names"))

	key := "heatmap:" + filter.Key()
	if h.Cache != nil {
		if cached, ok := h.Cache.Get(key); ok {
			c.JSON(http.StatusOK, gin.H{"sightings": cached})
			return
		}
	}

	points, err := h.Repo.Heatmap(c.Request.Context(), filter)
	if err != nil {
		h.Log.Error("heatmap failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	triples := make([][3]float64, 0, len(points))
	for _, p := range points {
		triples = append(triples, p.MarshalTriple())
	}

	if h.Cache != nil {
		h.Cache.Set(key, triples)
	}
	c.JSON(http.StatusOK, gin.H{"sightings": triples})
}

// boundsFromQuery resolves bounds= or latitude=/longitude= and writes the
// input-error response itself.
func (h *Handler) boundsFromQuery(c *gin.Context) (geo.Bounds, bool) {
	b, err := geo.FromQuery(c.Query("bounds"), c.Query("latitude"), c.Query("longitude"))
	if err != nil {
		switch {
		case errors.Is(err, geo.ErrMissingBounds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		case errors.Is(err, geo.ErrInvalidCoords):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude or longitude format"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounds format"})
		}
		return geo.Bounds{}, false
	}
	return b, true
}
