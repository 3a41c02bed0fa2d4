// Package router provides QA service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/edunav/internal/pkg/middleware"
	"github.com/kart-io/edunav/internal/qa/handler"
)

// New builds the gin engine with all QA routes registered.
func New(qaHandler *handler.QAHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
	)

	engine.GET("/healthz", qaHandler.Healthz)
	engine.GET("/metrics", qaHandler.Metrics)

	v1 := engine.Group("/v1")
	{
		qa := v1.Group("/qa")
		{
			qa.POST("/ask", qaHandler.Ask)
			qa.GET("/sources", qaHandler.Sources)
			qa.GET("/stats", qaHandler.Stats)
		}
	}

	logger.Info("HTTP routes registered")
	return engine
}
