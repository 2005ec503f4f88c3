package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfare/pricesearch"
)

func TestGenerateFlights(t *testing.T) {
	flights := GenerateFlights("lhr", "jfk", "2025-06-01", "2025-06-08")
	require.Len(t, flights, 5)

	prices := make([]float64, len(flights))
	for i, f := range flights {
		prices[i] = f.Price
		assert.Equal(t, "LHR", f.Origin)
		assert.Equal(t, "JFK", f.Destination)
		assert.NotEmpty(t, f.ID)
		assert.NotEmpty(t, f.ReturnDepartureTime)
		assert.Contains(t, f.DepartureTime, "2025-06-01")
	}
	assert.Equal(t, []float64{450, 515, 585, 290, 360}, prices)

	again := GenerateFlights("LHR", "JFK", "2025-06-01", "2025-06-08")
	assert.Equal(t, flights[0].ID, again[0].ID, "catalog ids are stable")
}

func TestGenerateFlights_UnknownRouteOneWay(t *testing.T) {
	flights := GenerateFlights("AAA", "BBB", "2025-06-01", "")
	require.Len(t, flights, 5)
	assert.Equal(t, 350.0, flights[0].Price)
	assert.Empty(t, flights[0].ReturnDepartureTime)
}

func TestGenerateHotels(t *testing.T) {
	london := GenerateHotels("LHR")
	require.Len(t, london, 5)
	for _, h := range london {
		assert.Equal(t, "LON", h.City)
		assert.NotEmpty(t, h.RoomType)
	}

	generic := GenerateHotels("xyz")
	require.Len(t, generic, 7)
	assert.Equal(t, "Luxury Hotel XYZ", generic[0].Name)
	assert.Equal(t, 199.99, generic[0].Price)
}

func TestFilters(t *testing.T) {
	f := Flight{Origin: "LHR", Destination: "JFK", DepartureTime: "2025-06-01T06:00:00Z"}

	assert.True(t, FlightFilter{}.Matches(f))
	assert.True(t, FlightFilter{Origin: " lhr "}.Normalize().Matches(f))
	assert.False(t, FlightFilter{Origin: "MAN"}.Matches(f))
	assert.False(t, FlightFilter{Destination: "CDG"}.Matches(f))
	assert.True(t, FlightFilter{DepartureDate: "2025-06-01"}.Matches(f))
	assert.False(t, FlightFilter{DepartureDate: "2025-06-02"}.Matches(f))
	assert.Equal(t, "flights:LHR:JFK:", FlightFilter{Origin: "lhr", Destination: "jfk"}.Key())

	h := Hotel{City: "LON", Rating: 4.2}
	assert.True(t, HotelFilter{City: "LHR"}.Normalize().Matches(h))
	assert.False(t, HotelFilter{City: "LON", MinRating: 4.5}.Matches(h))
	assert.Equal(t, "hotels:LON:4.0", HotelFilter{City: "lhr", MinRating: 4}.Key())
}

func TestMemoryFlightSource_Search(t *testing.T) {
	src := NewMemoryFlightSource(FlightCatalog("2025-06-01", "2025-06-02"))
	req := pricesearch.NewRequest(450, 10, FlightFilter{Origin: "LHR", Destination: "JFK", DepartureDate: "2025-06-01"})

	res, err := pricesearch.Search[Flight, FlightFilter](context.Background(), src, req)
	require.NoError(t, err)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "Turkish Airlines", res.Matches[0].Airline)
	assert.Equal(t, 450.0, res.Matches[0].Price)
}

func TestMemoryHotelSource_AdaptiveSearch(t *testing.T) {
	src := NewMemoryHotelSource(HotelCatalog())
	req := pricesearch.NewRequest(600, 20, HotelFilter{City: "DXB"})
	req.AdaptiveTolerance = true

	res, err := pricesearch.Search[Hotel, HotelFilter](context.Background(), src, req)
	require.NoError(t, err)

	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "Atlantis The Palm", res.Matches[0].Name)
	assert.False(t, res.FoundWithinInitialTolerance)
}
