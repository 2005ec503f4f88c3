package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tripfare/config"
	"tripfare/database"
	"tripfare/handlers"
	"tripfare/logging"
	"tripfare/pricesearch"
	"tripfare/services"
)

// Demo fares are generated for the next demoDays departure dates.
const demoDays = 14

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.Init("tripfare", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := handlers.Deps{
		Logger:     logger,
		MaxResults: cfg.Search.MaxResults,
		Checks:     map[string]handlers.HealthCheck{},
	}

	var (
		flights pricesearch.Source[services.Flight, services.FlightFilter]
		hotels  pricesearch.Source[services.Hotel, services.HotelFilter]
	)
	if cfg.Database.UsePostgres() {
		db, err := setupPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("database setup failed")
		}
		defer db.Close()

		flights = database.NewFlightSource(db)
		hotels = database.NewHotelSource(db)
		deps.Searches = database.NewPostgresSearchLog(db)
		deps.Checks["database"] = db.PingContext
		deps.Backend = "postgres"
	} else {
		logger.Warn().Msg("no database configured, serving the in-memory demo catalog")
		flights = services.NewMemoryFlightSource(services.FlightCatalog(demoDates(time.Now(), demoDays)...))
		hotels = services.NewMemoryHotelSource(services.HotelCatalog())
		deps.Searches = database.NewMemorySearchLog()
		deps.Backend = "memory"
	}

	retries, initial := cfg.Search.RetryAttempts, cfg.Search.RetryInitial
	flights = services.NewRetrySource(flights, retries, initial, logger)
	hotels = services.NewRetrySource(hotels, retries, initial, logger)

	if cfg.Redis.URL != "" {
		cache, err := services.NewRedisBoundsCache(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn().Err(err).Msg("bounds cache disabled")
		} else {
			defer cache.Close()
			ttl := cfg.Redis.BoundsTTL
			flights = services.NewCachedBoundsSource(flights, cache, ttl, services.FlightFilter.Key, logger)
			hotels = services.NewCachedBoundsSource(hotels, cache, ttl, services.HotelFilter.Key, logger)
			deps.Checks["redis"] = cache.Ping
			logger.Info().Dur("ttl", ttl).Msg("bounds cache enabled")
		}
	}
	deps.Flights, deps.Hotels = flights, hotels

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.GinLogger(logger))

	// Trusted proxies (the platform sits behind a proxy)
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(cfg.Server.FrontendURL),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handlers.New(deps).Register(r.Group("/api"))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Str("backend", deps.Backend).Msg("TripFare backend starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	db, err := database.Open(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Msg("database connected and migrated")

	if !cfg.Database.Seed {
		return db, nil
	}
	nf, err := database.SeedFlights(ctx, db, services.FlightCatalog(demoDates(time.Now(), demoDays)...))
	if err != nil {
		db.Close()
		return nil, err
	}
	nh, err := database.SeedHotels(ctx, db, services.HotelCatalog())
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Int64("flights", nf).Int64("hotels", nh).Msg("demo data seeded")
	return db, nil
}

// demoDates returns n consecutive YYYY-MM-DD dates starting tomorrow.
func demoDates(from time.Time, n int) []string {
	dates := make([]string, n)
	for i := range dates {
		dates[i] = from.AddDate(0, 0, i+1).Format("2006-01-02")
	}
	return dates
}

// allowedOrigins adds the comma-separated frontend URLs to the local dev origins.
func allowedOrigins(frontendURLs string) []string {
	origins := []string{"http://localhost:5173", "http://localhost:3000"}
	for _, u := range strings.Split(frontendURLs, ",") {
		u = strings.TrimSpace(u)
		if u != "" && u != origins[0] && u != origins[1] {
			origins = append(origins, u)
		}
	}
	return origins
}
