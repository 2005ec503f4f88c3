package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"tripfare/services"
)

// SeedFlights inserts flights, skipping ids that already exist.
func SeedFlights(ctx context.Context, db *sql.DB, flights []services.Flight) (int64, error) {
	rows := make([]any, 0, len(flights))
	for _, f := range flights {
		rows = append(rows, goqu.Record{
			"id":                    f.ID,
			"origin":                f.Origin,
			"destination":           f.Destination,
			"price":                 f.Price,
			"airline":               f.Airline,
			"airline_code":          f.AirlineCode,
			"flight_number":         f.FlightNumber,
			"departure_time":        f.DepartureTime,
			"arrival_time":          f.ArrivalTime,
			"duration":              f.Duration,
			"stops":                 f.Stops,
			"return_departure_time": f.ReturnDepartureTime,
			"return_arrival_time":   f.ReturnArrivalTime,
			"return_duration":       f.ReturnDuration,
			"return_stops":          f.ReturnStops,
			"currency":              f.Currency,
		})
	}
	return insertIgnoringDuplicates(ctx, db, "flights", rows)
}

// SeedHotels inserts hotels, skipping ids that already exist.
func SeedHotels(ctx context.Context, db *sql.DB, hotels []services.Hotel) (int64, error) {
	rows := make([]any, 0, len(hotels))
	for _, h := range hotels {
		rows = append(rows, goqu.Record{
			"id":        h.ID,
			"name":      h.Name,
			"city":      h.City,
			"price":     h.Price,
			"rating":    h.Rating,
			"location":  h.Location,
			"type":      h.Type,
			"room_type": h.RoomType,
			"amenities": pq.Array(h.Amenities),
			"currency":  h.Currency,
		})
	}
	return insertIgnoringDuplicates(ctx, db, "hotels", rows)
}

func insertIgnoringDuplicates(ctx context.Context, db *sql.DB, table string, rows []any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query, args, err := goqu.Dialect("postgres").
		Insert(table).
		Prepared(true).
		Rows(rows...).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build %s seed query: %w", table, err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to seed %s: %w", table, err)
	}
	return res.RowsAffected()
}
