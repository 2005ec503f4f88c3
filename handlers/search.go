package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripfare/database"
	"tripfare/pricesearch"
	"tripfare/services"
)

const (
	defaultFlightPrice     = 500
	defaultFlightTolerance = 100
	defaultHotelPrice      = 150
	defaultHotelTolerance  = 50
)

// searchParams are shared by every search endpoint. Omitted prices fall
// back to per-catalog defaults.
type searchParams struct {
	TargetPrice       *float64 `json:"target_price"`
	Tolerance         *float64 `json:"tolerance"`
	AdaptiveTolerance bool     `json:"adaptive_tolerance"`
	MaxIterations     int      `json:"max_iterations" binding:"gte=0,lte=100"`
	CollectVisData    bool     `json:"collect_vis_data"`
}

func toRequest[F any](p searchParams, defPrice, defTolerance float64, filter F) pricesearch.Request[F] {
	req := pricesearch.NewRequest(defPrice, defTolerance, filter)
	if p.TargetPrice != nil {
		req.TargetPrice = *p.TargetPrice
	}
	if p.Tolerance != nil {
		req.Tolerance = *p.Tolerance
	}
	if p.MaxIterations > 0 {
		req.MaxIterations = p.MaxIterations
	}
	req.AdaptiveTolerance = p.AdaptiveTolerance
	req.CollectTrace = p.CollectVisData
	return req
}

type FlightSearchRequest struct {
	searchParams
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type HotelSearchRequest struct {
	searchParams
	City      string  `json:"city"`
	MinRating float64 `json:"min_rating" binding:"gte=0,lte=5"`
}

// Performance summarises how a search ran.
type Performance struct {
	ExecutionTimeMS       float64           `json:"execution_time_ms"`
	Iterations            int               `json:"iterations"`
	Queries               int               `json:"queries"`
	Algorithm             string            `json:"algorithm"`
	Phase                 pricesearch.Phase `json:"phase"`
	AdaptiveToleranceUsed bool              `json:"adaptive_tolerance_used"`
	MinPrice              *float64          `json:"min_price"`
	MaxPrice              *float64          `json:"max_price"`
}

type Visualization struct {
	SearchSteps   []pricesearch.Step     `json:"search_steps"`
	HistogramData *pricesearch.Histogram `json:"histogram_data,omitempty"`
}

type SearchResponse[M any] struct {
	SearchID                    string         `json:"search_id"`
	Matches                     []M            `json:"matches"`
	Count                       int            `json:"count"`
	TargetPrice                 float64        `json:"target_price"`
	InitialTolerance            float64        `json:"initial_tolerance"`
	FinalTolerance              float64        `json:"final_tolerance"`
	FoundWithinInitialTolerance bool           `json:"found_within_initial_tolerance"`
	Performance                 Performance    `json:"performance"`
	Visualization               *Visualization `json:"visualization,omitempty"`
}

type FlightMatch struct {
	services.Flight
	PriceDifference float64 `json:"price_difference"`
	PricePercentage float64 `json:"price_percentage"`
}

type HotelMatch struct {
	services.Hotel
	PriceDifference float64 `json:"price_difference"`
	PricePercentage float64 `json:"price_percentage"`
}

// SearchFlights runs a price-proximity search over flights.
func (h *Handler) SearchFlights(c *gin.Context) {
	var body FlightSearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	filter, ok := flightFilter(c, body)
	if !ok {
		return
	}

	req := toRequest(body.searchParams, defaultFlightPrice, defaultFlightTolerance, filter)
	runSearch(c, h, "flights", h.deps.Flights, req, func(f services.Flight, diff, pct float64) FlightMatch {
		return FlightMatch{Flight: f, PriceDifference: diff, PricePercentage: pct}
	})
}

// SearchHotels runs a price-proximity search over hotel nightly rates.
func (h *Handler) SearchHotels(c *gin.Context) {
	var body HotelSearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	filter := services.HotelFilter{City: body.City, MinRating: body.MinRating}.Normalize()
	req := toRequest(body.searchParams, defaultHotelPrice, defaultHotelTolerance, filter)
	runSearch(c, h, "hotels", h.deps.Hotels, req, func(ht services.Hotel, diff, pct float64) HotelMatch {
		return HotelMatch{Hotel: ht, PriceDifference: diff, PricePercentage: pct}
	})
}

// CompareFlights runs the windowed search and a full scan on the same request.
func (h *Handler) CompareFlights(c *gin.Context) {
	var body FlightSearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	filter, ok := flightFilter(c, body)
	if !ok {
		return
	}

	req := toRequest(body.searchParams, defaultFlightPrice, defaultFlightTolerance, filter)
	cmp, err := pricesearch.Compare(c.Request.Context(), h.deps.Flights, req, h.opts...)
	if err != nil {
		h.fail(c, err, "Comparison failed")
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func flightFilter(c *gin.Context, body FlightSearchRequest) (services.FlightFilter, bool) {
	filter := services.FlightFilter{
		Origin:        body.Origin,
		Destination:   body.Destination,
		DepartureDate: body.DepartureDate,
	}.Normalize()

	for _, code := range []string{filter.Origin, filter.Destination} {
		if code != "" && len(code) != 3 {
			badRequest(c, "Airport codes must be exactly 3 characters (e.g. LHR, JFK)")
			return filter, false
		}
	}
	if filter.DepartureDate != "" {
		if _, err := time.Parse("2006-01-02", filter.DepartureDate); err != nil {
			badRequest(c, "Invalid departure date format. Use YYYY-MM-DD")
			return filter, false
		}
	}
	return filter, true
}

// runSearch executes req against src, records it in the search log and
// writes the response.
func runSearch[R pricesearch.Pricer, F any, M any](
	c *gin.Context,
	h *Handler,
	kind string,
	src pricesearch.Source[R, F],
	req pricesearch.Request[F],
	wrap func(r R, diff, pct float64) M,
) {
	log := h.deps.Logger
	log.Info().
		Str("kind", kind).
		Float64("target_price", req.TargetPrice).
		Float64("tolerance", req.Tolerance).
		Bool("adaptive", req.AdaptiveTolerance).
		Interface("filter", req.Filter).
		Msg("price search")

	res, err := pricesearch.Search(c.Request.Context(), src, req, h.opts...)
	if err != nil {
		h.fail(c, err, "Search failed")
		return
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		h.fail(c, err, "Failed to save search")
		return
	}
	resJSON, err := json.Marshal(res)
	if err != nil {
		h.fail(c, err, "Failed to save search")
		return
	}
	record := &database.PriceSearch{Kind: kind, Request: reqJSON, Result: resJSON}
	if err := h.deps.Searches.Save(c.Request.Context(), record); err != nil {
		log.Error().Err(err).Msg("failed to save search")
		h.fail(c, err, "Failed to save search")
		return
	}

	matches := make([]M, len(res.Matches))
	for i, r := range res.Matches {
		diff, pct := priceDelta(r.PriceValue(), req.TargetPrice)
		matches[i] = wrap(r, diff, pct)
	}

	resp := SearchResponse[M]{
		SearchID:                    record.ID,
		Matches:                     matches,
		Count:                       len(matches),
		TargetPrice:                 req.TargetPrice,
		InitialTolerance:            res.InitialTolerance,
		FinalTolerance:              res.FinalTolerance,
		FoundWithinInitialTolerance: res.FoundWithinInitialTolerance,
		Performance: Performance{
			ExecutionTimeMS:       float64(res.Elapsed) / float64(time.Millisecond),
			Iterations:            res.Iterations,
			Queries:               res.Queries,
			Algorithm:             "binary_search",
			Phase:                 res.Phase,
			AdaptiveToleranceUsed: req.AdaptiveTolerance,
			MinPrice:              res.DomainMin,
			MaxPrice:              res.DomainMax,
		},
	}
	if req.CollectTrace {
		resp.Visualization = &Visualization{SearchSteps: res.Steps, HistogramData: res.Histogram}
	}
	c.JSON(http.StatusOK, resp)
}

// priceDelta returns the absolute difference from target and the signed
// percentage, rounded to one decimal.
func priceDelta(price, target float64) (float64, float64) {
	diff := math.Abs(price - target)
	if target == 0 {
		return diff, 0
	}
	return diff, math.Round((price/target-1)*1000) / 10
}
