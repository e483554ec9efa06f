package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RegisterHealthRoutes adds GET /health. db may be nil, in which case the
// database is not checked.
func RegisterHealthRoutes(router *gin.Engine, db Pinger) error {
	if router == nil {
		return errors.New("router is nil")
	}

	router.GET("/health", HealthHandler(db))
	return nil
}

func HealthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			respondOK(c, http.StatusOK, HealthResponse{Status: "ok"})
			return
		}
		if err := db.PingContext(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Data:    HealthResponse{Status: "degraded", Database: "unreachable"},
				Error:   "database unreachable",
			})
			return
		}
		respondOK(c, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}
