package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"birdwatch/internal/auth"
	"birdwatch/internal/cache"
	"birdwatch/internal/checklist"
	"birdwatch/internal/live"
	"birdwatch/internal/region"
	"birdwatch/internal/species"
	"birdwatch/internal/stats"
	"birdwatch/pkg/database"
	"birdwatch/pkg/logger"
	"birdwatch/pkg/utils"
)

func main() {
	srvCfg := utils.LoadServerConfig()
	log := logger.New(srvCfg.Env)
	defer func() { _ = log.Sync() }()

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	router := gin.Default()

	// Avoid the "trusted all proxies" warning.
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := live.NewHub()
	router.GET("/ws", live.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": hub.Count(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": hub.Count(),
		})
	})

	heatCache := cache.New(srvCfg.HeatmapTTL)

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	api := router.Group("/api")

	// Public: heatmap, species reference list, login probe
	regionRepo := region.NewRepo(db)
	regionHandler := region.NewHandler(regionRepo, heatCache, log)
	regionHandler.RegisterPublicRoutes(api)

	speciesRepo := species.NewRepo(db)
	species.NewHandler(speciesRepo).RegisterRoutes(api)

	authHandler.RegisterCheckLogin(api)

	// Protected: box queries, checklists, statistics
	protected := api.Group("/")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	regionHandler.RegisterRoutes(protected)

	checklistRepo := checklist.NewRepo(db)
	checklist.NewHandler(checklistRepo, hub, heatCache, log).RegisterRoutes(protected)

	statsRepo := stats.NewRepo(db)
	stats.NewHandler(statsRepo, log).RegisterRoutes(protected)

	httpSrv := &http.Server{
		Addr:    srvCfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP API server listening", zap.String("addr", srvCfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}
