package ui

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "godea/internal/errors"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
}

// requestLogger logs one line per request through the leveled logger
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		line := "%s %s -> %d (%.2fms)"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, float64(time.Since(start).Nanoseconds()) / 1e6}
		if status >= http.StatusInternalServerError {
			s.logger.Error(line, args...)
			return
		}
		s.logger.Debug(line, args...)
	}
}

// limitUpload rejects bodies over the configured upload size
func (s *Server) limitUpload() gin.HandlerFunc {
	limitMB := int(s.maxUpload >> 20)
	return func(c *gin.Context) {
		if c.Request.ContentLength > s.maxUpload {
			s.abortWithError(c, apperrors.PayloadTooLarge(limitMB))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
		c.Next()
	}
}
