package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness plus dependency reachability.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client // optional
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, Redis: rdb}
}

// Check pings the database (and Redis when configured) and answers 200
// when everything is reachable, 503 otherwise.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := echo.Map{}
	healthy := true

	if err := h.DB.PingContext(ctx); err != nil {
		deps["mysql"] = "down"
		healthy = false
	} else {
		deps["mysql"] = "up"
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			deps["redis"] = "down"
			healthy = false
		} else {
			deps["redis"] = "up"
		}
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	return c.JSON(status, echo.Map{"status": state, "deps": deps})
}
