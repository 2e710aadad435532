package api

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/surenab/ireland-property-market-backend/internal/cache"
	"github.com/surenab/ireland-property-market-backend/internal/config"
	"github.com/surenab/ireland-property-market-backend/internal/handler"
	"github.com/surenab/ireland-property-market-backend/internal/middleware"
	"github.com/surenab/ireland-property-market-backend/internal/repository"
	"github.com/surenab/ireland-property-market-backend/internal/service"
	"github.com/surenab/ireland-property-market-backend/internal/spatial"
)

// SetupRouter wires repositories, services and handlers onto a gin
// engine. The database handle and cache store are injected so tests can
// run the full HTTP surface against in-memory instances.
func SetupRouter(cfg *config.Config, db *sql.DB, store cache.Store) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RateLimit > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimit, time.Minute))
	}

	// Repositories
	propertyRepo := repository.NewPropertyRepository(db)
	mapRepo := repository.NewMapRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Services
	caps := spatial.Caps{
		LowZoom:  cfg.LowZoomCap,
		HighZoom: cfg.HighZoomCap,
		Analysis: cfg.AnalysisCap,
	}
	propertyService := service.NewPropertyService(propertyRepo, store, cfg.CacheTTL)
	mapService := service.NewMapService(mapRepo, store, caps, cfg.CacheTTL)
	statsService := service.NewStatsService(statsRepo, store, cfg.CacheTTL)

	// Handlers
	propertyHandler := handler.NewPropertyHandler(propertyService)
	mapHandler := handler.NewMapHandler(mapService)
	statsHandler := handler.NewStatsHandler(statsService)
	healthHandler := handler.NewHealthHandler(db, store)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API route groups
	api := r.Group("/api/v1")
	{
		// Property records
		properties := api.Group("/properties")
		{
			properties.GET("", propertyHandler.ListProperties)
			properties.GET("/counties", propertyHandler.ListCounties)
			properties.GET("/:id", propertyHandler.GetProperty)
			properties.GET("/:id/history", propertyHandler.GetPropertyHistory)
		}

		// Viewport aggregation
		maps := api.Group("/map")
		{
			maps.GET("/points", mapHandler.GetPoints)
			maps.GET("/clusters", mapHandler.GetClusters)
			maps.GET("/grid", mapHandler.GetGrid)
			maps.GET("/analysis", mapHandler.GetAnalysis)
		}

		// Market statistics
		statistics := api.Group("/statistics")
		{
			statistics.GET("/price-trends", statsHandler.GetPriceTrends)
			statistics.GET("/price-clusters", statsHandler.GetPriceClusters)
			statistics.GET("/counties", statsHandler.GetCountyComparison)
			statistics.GET("/correlation", statsHandler.GetCorrelation)
			statistics.GET("/date-range", statsHandler.GetDateRange)
		}
	}

	return r
}
