package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/surenab/ireland-property-market-backend/internal/cache"
)

// HealthHandler reports process and dependency status
type HealthHandler struct {
	db    *sql.DB
	store cache.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, store cache.Store) *HealthHandler {
	return &HealthHandler{
		db:    db,
		store: store,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	payload := gin.H{
		"status":   "ok",
		"message":  "Ireland Property Market API is running",
		"database": "ok",
	}
	if h.store != nil {
		payload["cache_entries"] = h.store.Stats().Entries
	}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		payload["status"] = "unavailable"
		payload["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, payload)
		return
	}

	c.JSON(http.StatusOK, payload)
}
