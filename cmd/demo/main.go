// Command demo runs the ping/pong counter loop behind a small HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/comalice/loopx"
	"github.com/comalice/loopx/config"
	"github.com/comalice/loopx/logging"
	"github.com/comalice/loopx/observability"
	"github.com/comalice/loopx/snapshot"
	"github.com/comalice/loopx/view"
)

func main() {
	configPath := flag.String("config", "", "YAML or TOML config file")
	flag.Parse()

	cfg := config.Default()
	cfg.Name = "pingpong"
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
		cfg = loaded
	}

	logging.ConfigureWith(logging.ProfileRuntime, func(lc *logging.Config) {
		if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
			lc.Level = lvl
		}
		lc.JSON = cfg.Log.JSON
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("demo failed")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := log.Logger.With().Str("loop", cfg.Name).Logger()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	if err := metrics.Register(registry); err != nil {
		return err
	}

	loggers := []loopx.Logger[Model, Event, Effect]{logging.NewLogger[Model, Event, Effect](logger)}
	if cfg.Metrics.Enabled {
		loggers = append(loggers, observability.NewMetricsLogger[Model, Event, Effect](metrics, cfg.Name))
	}
	if cfg.Tracing.Enabled {
		tracing, shutdown, err := newTracingLogger(ctx, cfg.Name)
		if err != nil {
			return err
		}
		defer shutdown()
		loggers = append(loggers, tracing)
	}

	eventRunner, err := cfg.RunnerProducer(cfg.EventRunner)
	if err != nil {
		return err
	}
	effectRunner, err := cfg.RunnerProducer(cfg.EffectRunner)
	if err != nil {
		return err
	}
	viewRunner, err := cfg.RunnerProducer(cfg.ViewRunner)
	if err != nil {
		return err
	}

	factory := newFactory(defaultDelays, loopx.Loggers(loggers...)).
		WithEventRunner(eventRunner).
		WithEffectRunner(effectRunner)
	controller := loopx.NewController[Model, Event, Effect](factory, defaultModel(),
		loopx.WithViewRunner(viewRunner()))

	var persister snapshot.Persister[Model]
	if cfg.Snapshot.Dir != "" {
		p, err := snapshot.New[Model](cfg.Snapshot.Format, cfg.Snapshot.Dir)
		if err != nil {
			return err
		}
		persister = p
		restore(ctx, controller, persister, cfg.Name, logger)
	}

	v := view.NewChannel[Model, Event](16)
	if err := controller.Connect(v); err != nil {
		return err
	}
	go render(ctx, v, logger)

	if err := controller.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newRouter(cfg, controller, v, metrics, registry, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	if err := controller.Stop(); err != nil {
		return err
	}
	if persister != nil {
		if err := persister.Save(shutdownCtx, cfg.Name, controller.Model()); err != nil {
			return err
		}
		logger.Info().Interface("model", controller.Model()).Msg("snapshot saved")
	}
	if err := controller.Disconnect(); err != nil {
		return err
	}
	return controller.Dispose()
}

// restore seeds the controller with the last saved model, if there is one.
func restore(ctx context.Context, c *loopx.Controller[Model, Event, Effect], p snapshot.Persister[Model], id string, logger zerolog.Logger) {
	s, err := p.Load(ctx, id)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("snapshot ignored")
		return
	}
	if err := c.ReplaceModel(s.Model); err != nil {
		logger.Warn().Err(err).Msg("snapshot not applied")
		return
	}
	logger.Info().Time("saved_at", s.SavedAt).Interface("model", s.Model).Msg("snapshot restored")
}

func render(ctx context.Context, v *view.Channel[Model, Event], logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-v.Models():
			logger.Info().Int("count", m.Count).Str("message", m.Message).Msg("model")
		}
	}
}

func newTracingLogger(ctx context.Context, name string) (loopx.Logger[Model, Event, Effect], func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	tracing, err := observability.NewTracingLogger[Model, Event, Effect](ctx, name, observability.WithTracerProvider(tp))
	if err != nil {
		return nil, nil, err
	}
	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}
	return tracing, shutdown, nil
}
