package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripfare/database"
	"tripfare/pricesearch"
	"tripfare/services"
)

// GetSearch returns a stored search.
func (h *Handler) GetSearch(c *gin.Context) {
	s, err := h.deps.Searches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to load search")
		return
	}
	c.JSON(http.StatusOK, s)
}

// DownloadReport renders a stored search as a PDF.
func (h *Handler) DownloadReport(c *gin.Context) {
	id := c.Param("id")
	s, err := h.deps.Searches.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to load search")
		return
	}

	var report services.SearchReport
	switch s.Kind {
	case "flights":
		report, err = decodeReport[services.Flight, services.FlightFilter](s)
	case "hotels":
		report, err = decodeReport[services.Hotel, services.HotelFilter](s)
	default:
		err = fmt.Errorf("unknown search kind %q", s.Kind)
	}
	if err != nil {
		h.fail(c, err, "Stored search is unreadable")
		return
	}

	pdf, err := services.GenerateSearchReport(report)
	if err != nil {
		h.deps.Logger.Error().Err(err).Str("search_id", id).Msg("report generation failed")
		h.fail(c, err, "Failed to generate report")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=tripfare-search-"+id+".pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func decodeReport[R services.Reportable, F services.ReportFilter](s *database.PriceSearch) (services.SearchReport, error) {
	var req pricesearch.Request[F]
	if err := json.Unmarshal(s.Request, &req); err != nil {
		return services.SearchReport{}, fmt.Errorf("decode request: %w", err)
	}
	var res pricesearch.Result[R]
	if err := json.Unmarshal(s.Result, &res); err != nil {
		return services.SearchReport{}, fmt.Errorf("decode result: %w", err)
	}
	return services.NewSearchReport(s.ID, s.Kind, s.CreatedAt, req, &res), nil
}

// Health reports the service status and every backend check.
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "ok",
		"service": "TripFare API",
		"backend": h.deps.Backend,
	}
	for name, check := range h.deps.Checks {
		status := "ok"
		if err := check(c.Request.Context()); err != nil {
			status = "error: " + err.Error()
		}
		resp[name] = status
	}
	c.JSON(http.StatusOK, resp)
}
