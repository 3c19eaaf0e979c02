package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger returns gin middleware that writes one zerolog event per
// served request. Client errors log at warn, server errors at error.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := served(c)
		c.Next()
		req.log(logger)
	}
}

// RequestMetrics returns gin middleware that feeds the http subsystem of m:
// requests_total and request_duration_seconds, labelled by method, route and
// status.
func RequestMetrics(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := served(c)
		c.Next()
		m.RecordHTTPRequest(req.c.Request.Method, req.route(), req.status(), req.elapsed())
	}
}

// servedRequest is read after the handler chain has completed.
type servedRequest struct {
	c     *gin.Context
	start time.Time
}

func served(c *gin.Context) servedRequest {
	return servedRequest{c: c, start: time.Now()}
}

func (r servedRequest) status() int { return r.c.Writer.Status() }

func (r servedRequest) elapsed() time.Duration { return time.Since(r.start) }

// route is the matched route template, or the raw path when nothing matched.
func (r servedRequest) route() string {
	if route := r.c.FullPath(); route != "" {
		return route
	}
	return r.c.Request.URL.Path
}

func (r servedRequest) log(logger zerolog.Logger) {
	status := r.status()
	logger.WithLevel(statusLevel(status)).
		Str("method", r.c.Request.Method).
		Str("route", r.route()).
		Int("status", status).
		Dur("elapsed", r.elapsed()).
		Int("bytes", r.c.Writer.Size()).
		Str("remote", r.c.ClientIP()).
		Msg("request served")
}

func statusLevel(status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
