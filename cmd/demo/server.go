package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/comalice/loopx"
	"github.com/comalice/loopx/config"
	"github.com/comalice/loopx/observability"
	"github.com/comalice/loopx/view"
)

var startedAt = time.Now()

func newRouter(
	cfg config.Config,
	c *loopx.Controller[Model, Event, Effect],
	v *view.Channel[Model, Event],
	metrics *observability.Metrics,
	gatherer prometheus.Gatherer,
	logger zerolog.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	if cfg.Metrics.Enabled {
		r.Use(observability.RequestMetrics(metrics))
	}
	if len(cfg.HTTP.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.HTTP.AllowOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(startedAt).String(),
			"loop":   cfg.Name,
			"state":  c.State(),
		})
	})

	r.GET("/model", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, c.Model())
	})

	r.POST("/events", func(ctx *gin.Context) {
		var req eventRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		event, err := req.event()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !c.IsRunning() || !v.Send(event) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "loop is not running"})
			return
		}
		ctx.JSON(http.StatusAccepted, gin.H{"accepted": req.Type})
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}
