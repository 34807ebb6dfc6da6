package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// Service serves the embedded chat front end
type Service struct {
	Logger *zap.Logger
}

// NewService creates a new web UI service
func NewService(logger *zap.Logger) *Service {
	return &Service{Logger: logger}
}

// SetupRoutes mounts the chat UI on the router
func (ws *Service) SetupRoutes(router *gin.Engine) {
	// Serve static files - need a sub-filesystem to drop the embedded 'static/' prefix
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		ws.Logger.Error("Failed to create static sub-filesystem", zap.Error(err))
		return
	}
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/", ws.serveIndex)
}

// serveIndex serves the chat page
func (ws *Service) serveIndex(c *gin.Context) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		ws.Logger.Error("Failed to read index page", zap.Error(err))
		c.String(http.StatusInternalServerError, "page unavailable")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}
