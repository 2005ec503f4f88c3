package services

import (
	"fmt"
	"strings"
)

// ─── Types ────────────────────────────────────────────────────────────────────

type Flight struct {
	ID                  string  `json:"id"`
	Origin              string  `json:"origin"`
	Destination         string  `json:"destination"`
	Price               float64 `json:"price"`
	Airline             string  `json:"airline"`
	AirlineCode         string  `json:"airline_code,omitempty"`
	FlightNumber        string  `json:"flight_number,omitempty"`
	DepartureTime       string  `json:"departure_time"`
	ArrivalTime         string  `json:"arrival_time"`
	Duration            string  `json:"duration"`
	Stops               int     `json:"stops"`
	ReturnDepartureTime string  `json:"return_departure_time,omitempty"`
	ReturnArrivalTime   string  `json:"return_arrival_time,omitempty"`
	ReturnDuration      string  `json:"return_duration,omitempty"`
	ReturnStops         int     `json:"return_stops,omitempty"`
	Currency            string  `json:"currency,omitempty"`
}

// PriceValue implements pricesearch.Pricer.
func (f Flight) PriceValue() float64 { return f.Price }

// Label is a one-line description used in reports.
func (f Flight) Label() string {
	return fmt.Sprintf("%s %s-%s", f.Airline, f.Origin, f.Destination)
}

func (f Flight) PriceCurrency() string { return currencyOrUSD(f.Currency) }

// Hotel prices are per night.
type Hotel struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Price     float64  `json:"price"`
	Rating    float64  `json:"rating"`
	Location  string   `json:"location"`
	Type      string   `json:"type,omitempty"`
	RoomType  string   `json:"room_type,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}

// PriceValue implements pricesearch.Pricer.
func (h Hotel) PriceValue() float64 { return h.Price }

// Label is a one-line description used in reports.
func (h Hotel) Label() string {
	return fmt.Sprintf("%s (%s)", h.Name, h.City)
}

func (h Hotel) PriceCurrency() string { return currencyOrUSD(h.Currency) }

func currencyOrUSD(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}

// ─── Filters ──────────────────────────────────────────────────────────────────

// FlightFilter narrows the flight domain. Empty fields match anything.
type FlightFilter struct {
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	DepartureDate string `json:"departure_date,omitempty"` // YYYY-MM-DD
}

// Normalize upper-cases airport codes and trims whitespace.
func (f FlightFilter) Normalize() FlightFilter {
	return FlightFilter{
		Origin:        strings.ToUpper(strings.TrimSpace(f.Origin)),
		Destination:   strings.ToUpper(strings.TrimSpace(f.Destination)),
		DepartureDate: strings.TrimSpace(f.DepartureDate),
	}
}

// Matches reports whether fl passes the filter.
func (f FlightFilter) Matches(fl Flight) bool {
	if f.Origin != "" && !strings.EqualFold(fl.Origin, f.Origin) {
		return false
	}
	if f.Destination != "" && !strings.EqualFold(fl.Destination, f.Destination) {
		return false
	}
	if f.DepartureDate != "" && !strings.HasPrefix(fl.DepartureTime, f.DepartureDate) {
		return false
	}
	return true
}

// Key identifies the filtered domain in caches.
func (f FlightFilter) Key() string {
	n := f.Normalize()
	return "flights:" + n.Origin + ":" + n.Destination + ":" + n.DepartureDate
}

// ReportFields lists the filter for search reports.
func (f FlightFilter) ReportFields() []ReportField {
	n := f.Normalize()
	return []ReportField{
		{Label: "Origin", Value: orAny(n.Origin)},
		{Label: "Destination", Value: orAny(n.Destination)},
		{Label: "Departure date", Value: orAny(n.DepartureDate)},
	}
}

// HotelFilter narrows the hotel domain. Empty fields match anything.
type HotelFilter struct {
	City      string  `json:"city,omitempty"`
	MinRating float64 `json:"min_rating,omitempty"`
}

// Normalize upper-cases the city code and maps airport codes to their city.
func (f HotelFilter) Normalize() HotelFilter {
	city := strings.ToUpper(strings.TrimSpace(f.City))
	if city != "" {
		city = airportToCity(city)
	}
	return HotelFilter{City: city, MinRating: f.MinRating}
}

// Matches reports whether h passes the filter.
func (f HotelFilter) Matches(h Hotel) bool {
	if f.City != "" && !strings.EqualFold(h.City, f.City) {
		return false
	}
	return h.Rating >= f.MinRating
}

// Key identifies the filtered domain in caches.
func (f HotelFilter) Key() string {
	n := f.Normalize()
	return fmt.Sprintf("hotels:%s:%.1f", n.City, n.MinRating)
}

// ReportFields lists the filter for search reports.
func (f HotelFilter) ReportFields() []ReportField {
	n := f.Normalize()
	rating := "Any"
	if n.MinRating > 0 {
		rating = fmt.Sprintf("%.1f+", n.MinRating)
	}
	return []ReportField{
		{Label: "City", Value: orAny(n.City)},
		{Label: "Minimum rating", Value: rating},
	}
}

func orAny(v string) string {
	if v == "" {
		return "Any"
	}
	return v
}
