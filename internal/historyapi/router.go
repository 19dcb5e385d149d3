// Package historyapi serves the upload history to the web view.
package historyapi

import (
	"context"
	"net/http"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Store interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	HistoryFor(ctx context.Context, viewer *models.User) ([]models.HistoryRow, error)
	TeamMembers(ctx context.Context, managerID string) ([]models.User, error)
}

// InitRouter builds the API routes.
func InitRouter(store Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), CORSMiddleware())

	h := &handler{store: store}
	api := r.Group("/api")
	{
		api.GET("/history", h.History)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("http request")
	}
}

// CORSMiddleware lets the web view call the API from another origin.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, X-User-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
