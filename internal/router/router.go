package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Lllllllleong/pagepick/internal/handler"
	"github.com/Lllllllleong/pagepick/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
// maxMemory bounds how much of a multipart body is held in memory before
// spilling to disk.
func Setup(healthH *handler.HealthHandler, extractH *handler.ExtractHandler, maxMemory int64) *gin.Engine {
	r := gin.New()
	if maxMemory > 0 {
		r.MaxMultipartMemory = maxMemory
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	r.GET("/healthz", healthH.Liveness)

	v1 := r.Group("/api/v1")
	v1.POST("/selection", extractH.Selection)
	v1.POST("/inspect", extractH.Inspect)
	v1.POST("/extract", extractH.Extract)
	v1.POST("/batch", extractH.Batch)

	return r
}
