package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripfare/pricesearch"
)

// Catalog ids are name-based so regenerating the demo data keeps them stable.
var catalogNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tripfare/catalog"))

type routeInfo struct {
	basePrice float64
	duration  int // minutes
}

var routes = map[string]routeInfo{
	"TAS-IST": {280, 300}, "IST-TAS": {280, 300},
	"TAS-DXB": {320, 210}, "DXB-TAS": {320, 210},
	"TAS-FRA": {450, 420}, "FRA-TAS": {450, 420},
	"TAS-LHR": {500, 480}, "LHR-TAS": {500, 480},
	"BER-PAR": {120, 105}, "PAR-BER": {120, 105},
	"BER-LHR": {100, 100}, "LHR-BER": {100, 100},
	"IST-DXB": {250, 240}, "DXB-IST": {250, 240},
	"LHR-JFK": {450, 480}, "JFK-LHR": {450, 480},
	"LHR-CDG": {80, 75}, "CDG-LHR": {80, 75},
	"LHR-BCN": {200, 130}, "MAN-JFK": {480, 500},
	"MAN-CDG": {170, 85}, "FRA-IST": {150, 165},
}

type airlineOption struct {
	code     string
	name     string
	priceMod float64
	stops    int
}

var airlineOptions = []airlineOption{
	{"TK", "Turkish Airlines", 1.00, 0},
	{"LH", "Lufthansa", 1.15, 0},
	{"EK", "Emirates", 1.30, 0},
	{"W6", "Wizz Air", 0.65, 1},
	{"FZ", "FlyDubai", 0.80, 1},
}

// GenerateFlights produces plausible round-trip fares for one route across
// five airline price tiers. Unknown routes use a generic base fare.
func GenerateFlights(origin, destination, departureDate, returnDate string) []Flight {
	origin = strings.ToUpper(origin)
	destination = strings.ToUpper(destination)

	info, ok := routes[origin+"-"+destination]
	if !ok {
		info = routeInfo{350, 240}
	}

	depDate, _ := time.Parse("2006-01-02", departureDate)
	retDate, err := time.Parse("2006-01-02", returnDate)
	roundTrip := err == nil

	flights := make([]Flight, 0, len(airlineOptions))
	for i, opt := range airlineOptions {
		price := info.basePrice * opt.priceMod
		price = float64(int(price/5) * 5)

		dur := info.duration
		if opt.stops > 0 {
			dur += 90
		}

		depTime := time.Date(depDate.Year(), depDate.Month(), depDate.Day(), 6+i*3, 0, 0, 0, time.UTC)
		arrTime := depTime.Add(time.Duration(dur) * time.Minute)
		number := fmt.Sprintf("%s%d", opt.code, 100+i*11)

		f := Flight{
			ID:            uuid.NewSHA1(catalogNamespace, []byte(origin+destination+departureDate+number)).String(),
			Origin:        origin,
			Destination:   destination,
			Price:         price,
			Airline:       opt.name,
			AirlineCode:   opt.code,
			FlightNumber:  number,
			DepartureTime: depTime.Format(time.RFC3339),
			ArrivalTime:   arrTime.Format(time.RFC3339),
			Duration:      formatDurationMin(dur),
			Stops:         opt.stops,
			Currency:      "USD",
		}
		if roundTrip {
			retDep := time.Date(retDate.Year(), retDate.Month(), retDate.Day(), 8+i*2, 0, 0, 0, time.UTC)
			f.ReturnDepartureTime = retDep.Format(time.RFC3339)
			f.ReturnArrivalTime = retDep.Add(time.Duration(dur) * time.Minute).Format(time.RFC3339)
			f.ReturnDuration = formatDurationMin(dur)
			f.ReturnStops = opt.stops
		}
		flights = append(flights, f)
	}
	return flights
}

// FlightCatalog generates fares for every known route departing on the given dates.
func FlightCatalog(departureDates ...string) []Flight {
	keys := make([]string, 0, len(routes))
	for k := range routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var flights []Flight
	for _, date := range departureDates {
		for _, k := range keys {
			origin, destination, _ := strings.Cut(k, "-")
			flights = append(flights, GenerateFlights(origin, destination, date, "")...)
		}
	}
	return flights
}

type hotelSeed struct {
	name     string
	price    float64
	rating   float64
	location string
	kind     string
}

var cityHotels = map[string][]hotelSeed{
	"IST": {
		{"Grand Hyatt Istanbul", 180, 4.7, "Beyoglu, Istanbul", "luxury"},
		{"Hilton Istanbul Bosphorus", 165, 4.5, "Besiktas, Istanbul", "business"},
		{"Sultan Ahmet Palace Hotel", 95, 4.3, "Sultanahmet, Istanbul", "midrange"},
		{"Ibis Istanbul Taksim", 75, 4.0, "Taksim, Istanbul", "budget"},
		{"The Marmara Taksim", 140, 4.4, "Taksim Square, Istanbul", "midrange"},
	},
	"PAR": {
		{"Hotel Le Marais", 220, 4.6, "Le Marais, Paris", "boutique"},
		{"Pullman Paris Tour Eiffel", 280, 4.5, "7th Arr., Paris", "luxury"},
		{"Ibis Paris Montmartre", 95, 4.0, "Montmartre, Paris", "budget"},
		{"Hotel des Arts Montmartre", 130, 4.3, "18th Arr., Paris", "midrange"},
		{"Generator Paris", 55, 3.8, "10th Arr., Paris", "hostel"},
	},
	"LON": {
		{"Hilton London Tower Bridge", 180, 4.4, "Tower Bridge, London", "business"},
		{"Premier Inn London City", 95, 4.1, "City of London", "budget"},
		{"The Hoxton Shoreditch", 165, 4.5, "Shoreditch, London", "boutique"},
		{"Generator London", 50, 3.8, "Russell Square, London", "hostel"},
		{"citizenM London Bankside", 145, 4.4, "Bankside, London", "midrange"},
	},
	"DXB": {
		{"JW Marriott Marquis", 220, 4.6, "Business Bay, Dubai", "luxury"},
		{"Rove Downtown", 95, 4.3, "Downtown Dubai", "midrange"},
		{"Premier Inn Dubai", 65, 4.0, "Ibn Battuta, Dubai", "budget"},
		{"Atlantis The Palm", 380, 4.7, "Palm Jumeirah, Dubai", "luxury"},
		{"Hilton Dubai Al Habtoor City", 160, 4.4, "Dubai Marina", "business"},
	},
	"FRA": {
		{"Marriott Frankfurt City Center", 155, 4.4, "Sachsenhausen, Frankfurt", "business"},
		{"Motel One Frankfurt-Roemer", 89, 4.3, "Roemer, Frankfurt", "budget"},
		{"Hilton Frankfurt City Centre", 175, 4.5, "City Centre, Frankfurt", "business"},
		{"Generator Frankfurt", 45, 3.9, "Sachsenhausen, Frankfurt", "hostel"},
		{"Steigenberger Frankfurter Hof", 280, 4.6, "Kaiserplatz, Frankfurt", "luxury"},
	},
	"BER": {
		{"Hotel Adlon Kempinski", 320, 4.8, "Mitte, Berlin", "luxury"},
		{"Radisson Blu Berlin", 150, 4.4, "Alexanderplatz, Berlin", "business"},
		{"Motel One Berlin Hackescher Markt", 85, 4.2, "Mitte, Berlin", "budget"},
		{"Generator Berlin Mitte", 45, 3.9, "Mitte, Berlin", "hostel"},
		{"Michelberger Hotel", 130, 4.5, "Friedrichshain, Berlin", "boutique"},
	},
}

// Generic tiers used for cities without curated hotels.
var genericHotels = []hotelSeed{
	{"Luxury Hotel", 199.99, 4.8, "Downtown", "luxury"},
	{"Budget Inn", 89.99, 3.5, "Airport Area", "budget"},
	{"Midtown Suites", 149.99, 4.2, "Midtown", "midrange"},
	{"Hostel", 29.99, 3.8, "University District", "hostel"},
	{"Business Hotel", 179.99, 4.5, "Financial District", "business"},
	{"Grand Plaza", 249.99, 4.9, "Plaza", "luxury"},
	{"Cozy B&B", 119.99, 4.6, "Historic District", "bb"},
}

var amenitiesByType = map[string][]string{
	"luxury":   {"Free WiFi", "Pool", "Spa", "Restaurant"},
	"business": {"Free WiFi", "Business Center", "Conference Rooms"},
	"midrange": {"Free WiFi", "Laundry"},
	"boutique": {"Free WiFi", "Bar"},
	"budget":   {"Free WiFi", "Free Parking"},
	"hostel":   {"Free WiFi", "Shared Kitchen"},
	"bb":       {"Free WiFi", "Breakfast Included", "Garden"},
}

var roomByType = map[string]string{
	"luxury":   "Deluxe Suite",
	"business": "Executive Room",
	"midrange": "Standard Double",
	"boutique": "Queen Room",
	"budget":   "Standard Double",
	"hostel":   "Dorm Bed",
	"bb":       "Queen Room",
}

// GenerateHotels produces nightly rates for a city. Airport codes are
// mapped to their city first.
func GenerateHotels(city string) []Hotel {
	city = airportToCity(strings.ToUpper(strings.TrimSpace(city)))

	seeds, curated := cityHotels[city]
	if !curated {
		seeds = genericHotels
	}

	hotels := make([]Hotel, 0, len(seeds))
	for _, s := range seeds {
		name, location := s.name, s.location
		if !curated {
			name = s.name + " " + city
			location = s.location + ", " + city
		}
		hotels = append(hotels, Hotel{
			ID:        uuid.NewSHA1(catalogNamespace, []byte(city+name)).String(),
			Name:      name,
			City:      city,
			Price:     s.price,
			Rating:    s.rating,
			Location:  location,
			Type:      s.kind,
			RoomType:  roomByType[s.kind],
			Amenities: amenitiesByType[s.kind],
			Currency:  "USD",
		})
	}
	return hotels
}

// HotelCatalog generates hotels for every curated city.
func HotelCatalog() []Hotel {
	cities := make([]string, 0, len(cityHotels))
	for c := range cityHotels {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	var hotels []Hotel
	for _, c := range cities {
		hotels = append(hotels, GenerateHotels(c)...)
	}
	return hotels
}

// NewMemoryFlightSource serves flights from memory.
func NewMemoryFlightSource(flights []Flight) *pricesearch.MemorySource[Flight, FlightFilter] {
	return pricesearch.NewMemorySource(flights, func(fl Flight, f FlightFilter) bool {
		return f.Normalize().Matches(fl)
	})
}

// NewMemoryHotelSource serves hotels from memory.
func NewMemoryHotelSource(hotels []Hotel) *pricesearch.MemorySource[Hotel, HotelFilter] {
	return pricesearch.NewMemorySource(hotels, func(h Hotel, f HotelFilter) bool {
		return f.Normalize().Matches(h)
	})
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func formatDurationMin(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

// airportToCity maps airport IATA codes to city codes for hotel search
func airportToCity(airport string) string {
	mapping := map[string]string{
		"LHR": "LON", "LGW": "LON", "STN": "LON", "LTN": "LON",
		"CDG": "PAR", "ORY": "PAR",
		"JFK": "NYC", "LGA": "NYC", "EWR": "NYC",
		"BER": "BER", "SXF": "BER",
		"FCO": "ROM", "CIA": "ROM",
		"NRT": "TYO", "HND": "TYO",
	}
	if city, ok := mapping[airport]; ok {
		return city
	}
	return airport
}
