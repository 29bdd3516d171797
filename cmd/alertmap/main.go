package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akravchenko/alertmap/internal/api"
	"github.com/akravchenko/alertmap/internal/broadcast"
	"github.com/akravchenko/alertmap/internal/channel"
	"github.com/akravchenko/alertmap/internal/config"
	"github.com/akravchenko/alertmap/internal/geocode"
	"github.com/akravchenko/alertmap/internal/logging"
	"github.com/akravchenko/alertmap/internal/nlp"
	"github.com/akravchenko/alertmap/internal/observability"
	"github.com/akravchenko/alertmap/internal/pipeline"
	"github.com/akravchenko/alertmap/internal/render"
	"github.com/akravchenko/alertmap/internal/store"
	"github.com/akravchenko/alertmap/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	lemmas, err := nlp.NewDictLemmatizer(cfg.NLP.MorphDictPath)
	if err != nil {
		logging.Fatalf("Failed to load morphology dictionary: %v", err)
	}
	normalizer := nlp.NewNormalizer(lemmas)

	tagger := nlp.NewHTTPTagger(cfg.NLP.TaggerURL, cfg.NLP.TaggerTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The service cannot extract anything without the tagger; refuse to start
	// if it is unreachable.
	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.NLP.TaggerTimeout)
	if err := tagger.Ping(pingCtx); err != nil {
		pingCancel()
		logging.Fatalf("Entity tagger unreachable at %s: %v", cfg.NLP.TaggerURL, err)
	}
	pingCancel()

	geocoder := geocode.NewCached(
		geocode.NewNominatim(
			cfg.Geocoder.BaseURL,
			cfg.Geocoder.UserAgent,
			cfg.Geocoder.Viewbox,
			cfg.Geocoder.Timeout,
			cfg.Geocoder.RPS,
		),
		cfg.Geocoder.CacheSize,
	)

	db, err := store.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	csvLog, err := store.NewCSVLog(cfg.Store.CSVPath)
	if err != nil {
		logging.Fatalf("Failed to initialize CSV log: %v", err)
	}
	st := store.NewLogged(db, csvLog)

	clock := clockwork.NewRealClock()
	mapPath := filepath.Join(cfg.Render.StaticDir, cfg.Render.MapFile)
	publisher := render.NewPublisher(st, render.NewRenderer(), cfg.Retention, mapPath, clock)

	// Publish an initial artifact so the dashboard iframe never 404s.
	if err := publisher.Refresh(ctx); err != nil {
		logging.Fatalf("Failed to publish initial map: %v", err)
	}

	broadcaster := broadcast.New()
	metrics := observability.NewMetrics()

	pipe := pipeline.New(tagger, normalizer, geocoder, st, publisher, broadcaster, metrics, clock)

	pool := worker.NewPool(cfg.Worker.Count, cfg.Worker.BufferSize, pipe.Process)
	pool.Start(ctx)

	listener := channel.NewListener(cfg.Telegram, pool)
	listener.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(5)) // 5 req/s global limit

	mapURL := "/static/" + cfg.Render.MapFile
	handler := api.NewHandler(st, publisher, broadcaster, cfg.Retention, mapURL, clock)
	handler.RegisterRoutes(router)
	router.Static("/static", cfg.Render.StaticDir)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	listener.Stop()
	pool.Stop()
	broadcaster.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
