package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tripfare/database"
	"tripfare/pricesearch"
	"tripfare/services"
)

// HealthCheck reports whether one backend is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators a Handler serves requests with.
type Deps struct {
	Flights    pricesearch.Source[services.Flight, services.FlightFilter]
	Hotels     pricesearch.Source[services.Hotel, services.HotelFilter]
	Searches   database.SearchLog
	Checks     map[string]HealthCheck
	Logger     zerolog.Logger
	MaxResults int
	Backend    string // "postgres" or "memory"
}

// Handler serves the /api routes.
type Handler struct {
	deps Deps
	opts []pricesearch.Option
}

func New(deps Deps) *Handler {
	opts := []pricesearch.Option{pricesearch.WithLogger(deps.Logger)}
	if deps.MaxResults > 0 {
		opts = append(opts, pricesearch.WithMaxResults(deps.MaxResults))
	}
	return &Handler{deps: deps, opts: opts}
}

// Register mounts every route on api.
func (h *Handler) Register(api gin.IRoutes) {
	api.GET("/health", h.Health)
	api.POST("/search/flights", h.SearchFlights)
	api.POST("/search/hotels", h.SearchHotels)
	api.POST("/search/flights/compare", h.CompareFlights)
	api.GET("/searches/:id", h.GetSearch)
	api.GET("/searches/:id/report", h.DownloadReport)
}

// fail maps err onto a status code and a JSON error body.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pricesearch.ErrInvalidRequest):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, pricesearch.ErrSourceUnavailable):
		status = http.StatusServiceUnavailable
		msg = "Price data is temporarily unavailable"
	case errors.Is(err, database.ErrSearchNotFound):
		status = http.StatusNotFound
		msg = "Search not found"
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
