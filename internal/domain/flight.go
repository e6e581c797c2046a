package domain

import "fmt"

// Flight is a read-only snapshot of a scheduled flight as reported by the service.
type Flight struct {
	ID             int64   `json:"id"`
	FlightNumber   string  `json:"flightNumber"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	DepartureTime  string  `json:"departureTime"`
	Capacity       int     `json:"capacity"`
	AvailableSeats int     `json:"availableSeats"`
	BasePrice      float64 `json:"basePrice"`
}

// Bookable reports whether the service still advertises free seats.
func (f Flight) Bookable() bool {
	return f.AvailableSeats > 0
}

func (f Flight) Route() string {
	return f.Origin + " → " + f.Destination
}

func (f Flight) FormattedPrice() string {
	return FormatPrice(f.BasePrice)
}

func (f Flight) SeatsText() string {
	return fmt.Sprintf("%d/%d seats", f.AvailableSeats, f.Capacity)
}

// FormatPrice renders an amount the way the booking screens show it.
func FormatPrice(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
