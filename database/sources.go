package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"tripfare/pricesearch"
	"tripfare/services"
)

// PriceTable serves one priced table as a pricesearch.Source. The filter is
// turned into WHERE conditions by where; scan reads one selected row.
type PriceTable[R pricesearch.Pricer, F any] struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	table   string
	columns []any
	where   func(F) []exp.Expression
	scan    func(*sql.Rows) (R, error)
}

func (t *PriceTable[R, F]) from(filter F) *goqu.SelectDataset {
	return t.dialect.From(t.table).Prepared(true).Where(t.where(filter)...)
}

// PriceBounds implements pricesearch.Source.
func (t *PriceTable[R, F]) PriceBounds(ctx context.Context, filter F) (pricesearch.Bounds, bool, error) {
	query, args, err := t.from(filter).
		Select(goqu.MIN("price"), goqu.MAX("price"), goqu.COUNT(goqu.Star())).
		ToSQL()
	if err != nil {
		return pricesearch.Bounds{}, false, fmt.Errorf("failed to build bounds query: %w", err)
	}

	var (
		lo, hi sql.NullFloat64
		count  int64
	)
	if err := t.db.QueryRowContext(ctx, query, args...).Scan(&lo, &hi, &count); err != nil {
		return pricesearch.Bounds{}, false, fmt.Errorf("failed to get %s price bounds: %w", t.table, err)
	}
	if count == 0 || !lo.Valid || !hi.Valid {
		return pricesearch.Bounds{}, false, nil
	}
	return pricesearch.Bounds{Min: lo.Float64, Max: hi.Float64}, true, nil
}

// QueryPriceRange implements pricesearch.Source.
func (t *PriceTable[R, F]) QueryPriceRange(ctx context.Context, filter F, lo, hi float64) ([]R, error) {
	query, args, err := t.from(filter).
		Select(t.columns...).
		Where(goqu.C("price").Between(goqu.Range(lo, hi))).
		Order(goqu.C("price").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build range query: %w", err)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.table, err)
	}
	defer rows.Close()

	var out []R
	for rows.Next() {
		r, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prices implements pricesearch.PriceLister.
func (t *PriceTable[R, F]) Prices(ctx context.Context, filter F) ([]float64, error) {
	query, args, err := t.from(filter).Select("price").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build prices query: %w", err)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s prices: %w", t.table, err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// ─── Flights ──────────────────────────────────────────────────────────────────

var flightColumns = []any{
	"id", "origin", "destination", "price", "airline", "airline_code", "flight_number",
	"departure_time", "arrival_time", "duration", "stops",
	"return_departure_time", "return_arrival_time", "return_duration", "return_stops", "currency",
}

// NewFlightSource serves the flights table.
func NewFlightSource(db *sql.DB) *PriceTable[services.Flight, services.FlightFilter] {
	return &PriceTable[services.Flight, services.FlightFilter]{
		db:      db,
		dialect: goqu.Dialect("postgres"),
		table:   "flights",
		columns: flightColumns,
		where:   flightWhere,
		scan:    scanFlight,
	}
}

func flightWhere(f services.FlightFilter) []exp.Expression {
	f = f.Normalize()
	var where []exp.Expression
	if f.Origin != "" {
		where = append(where, goqu.C("origin").Eq(f.Origin))
	}
	if f.Destination != "" {
		where = append(where, goqu.C("destination").Eq(f.Destination))
	}
	if f.DepartureDate != "" {
		where = append(where, goqu.C("departure_time").Like(f.DepartureDate+"%"))
	}
	return where
}

func scanFlight(rows *sql.Rows) (services.Flight, error) {
	var (
		f                                     services.Flight
		code, number, duration                sql.NullString
		retDep, retArr, retDuration, currency sql.NullString
		stops, retStops                       sql.NullInt64
	)
	err := rows.Scan(
		&f.ID, &f.Origin, &f.Destination, &f.Price, &f.Airline, &code, &number,
		&f.DepartureTime, &f.ArrivalTime, &duration, &stops,
		&retDep, &retArr, &retDuration, &retStops, &currency,
	)
	if err != nil {
		return f, err
	}
	f.AirlineCode = code.String
	f.FlightNumber = number.String
	f.Duration = duration.String
	f.Stops = int(stops.Int64)
	f.ReturnDepartureTime = retDep.String
	f.ReturnArrivalTime = retArr.String
	f.ReturnDuration = retDuration.String
	f.ReturnStops = int(retStops.Int64)
	f.Currency = currency.String
	return f, nil
}

// ─── Hotels ───────────────────────────────────────────────────────────────────

var hotelColumns = []any{
	"id", "name", "city", "price", "rating", "location", "type", "room_type", "amenities", "currency",
}

// NewHotelSource serves the hotels table.
func NewHotelSource(db *sql.DB) *PriceTable[services.Hotel, services.HotelFilter] {
	return &PriceTable[services.Hotel, services.HotelFilter]{
		db:      db,
		dialect: goqu.Dialect("postgres"),
		table:   "hotels",
		columns: hotelColumns,
		where:   hotelWhere,
		scan:    scanHotel,
	}
}

func hotelWhere(f services.HotelFilter) []exp.Expression {
	f = f.Normalize()
	var where []exp.Expression
	if f.City != "" {
		where = append(where, goqu.C("city").Eq(f.City))
	}
	if f.MinRating > 0 {
		where = append(where, goqu.C("rating").Gte(f.MinRating))
	}
	return where
}

func scanHotel(rows *sql.Rows) (services.Hotel, error) {
	var (
		h                                  services.Hotel
		location, kind, roomType, currency sql.NullString
	)
	err := rows.Scan(
		&h.ID, &h.Name, &h.City, &h.Price, &h.Rating,
		&location, &kind, &roomType, pq.Array(&h.Amenities), &currency,
	)
	if err != nil {
		return h, err
	}
	h.Location = location.String
	h.Type = kind.String
	h.RoomType = roomType.String
	h.Currency = currency.String
	return h, nil
}
