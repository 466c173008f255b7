package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kachence/sols.bet-sub002/internal/infrastructure/cache"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/database"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db    *database.DBManager
	redis cache.RedisClient
}

func NewHealthHandler(db *database.DBManager, redis cache.RedisClient) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

// Health returns basic liveness status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "wss",
		"version":   "1.0.0",
		"timestamp": time.Now(),
	})
}

// Ready pings the ledger database and Redis. Either one down means the
// service cannot settle, so readiness fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	ready := true

	if err := h.db.Db.PingContext(c.Request.Context()); err != nil {
		checks["database"] = err.Error()
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if err := h.redis.Ping(c.Request.Context()); err != nil {
		checks["redis"] = err.Error()
		ready = false
	} else {
		checks["redis"] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"service":   "wss",
		"version":   "1.0.0",
		"checks":    checks,
		"timestamp": time.Now(),
	})
}
