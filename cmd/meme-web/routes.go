package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

// newHandler builds the gin router and wraps it with gzip compression.
// Feed responses carry data URIs, so compression pays off on every list.
func newHandler(s *server) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), withLogging(), withCORS())
	registerRoutes(r, s)
	return gzhttp.GzipHandler(r)
}

func registerRoutes(r *gin.Engine, s *server) {
	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/templates", s.templates)
		api.GET("/styles", s.styles)
		api.GET("/fonts", s.fonts)
		api.GET("/state", s.state)
		api.PUT("/view", s.setView)

		api.POST("/image/upload", s.upload)
		api.POST("/image/template", s.selectTemplate)
		api.POST("/edit", s.edit)
		api.POST("/watermark/ad", s.watchAd)

		api.POST("/captions/generate", s.generateCaptions)
		api.POST("/captions/:index/regenerate", s.regenerateCaption)
		api.POST("/captions/select", s.selectCaption)
		api.PUT("/style", s.setStyle)
		api.PUT("/caption-style", s.setCaptionStyle)

		api.GET("/preview", s.preview)
		api.GET("/export/download", s.download)
		api.POST("/export/share", s.share)
		api.POST("/export/publish", s.publish)

		api.GET("/feed", s.feed)
		api.POST("/feed/:id/like", s.toggleLike)
		api.GET("/feed/:id/qr", s.postQR)
	}
}

// --- Middleware ---

func withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("API request")
	}
}

// withCORS allows browser frontends served from localhost during development.
func withCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
