package domain

import "strings"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking mirrors the service's booking response. Prices are whatever the
// service computed; the client never recomputes them.
type Booking struct {
	ID               int64         `json:"id"`
	BookingReference string        `json:"bookingReference"`
	FlightNumber     string        `json:"flightNumber"`
	Origin           string        `json:"origin"`
	Destination      string        `json:"destination"`
	DepartureTime    string        `json:"departureTime"`
	PassengerName    string        `json:"passengerName"`
	SeatNumber       string        `json:"seatNumber"`
	TotalPrice       float64       `json:"totalPrice"`
	DiscountAmount   float64       `json:"discountAmount"`
	Status           BookingStatus `json:"status"`
	BookingDate      string        `json:"bookingDate"`
}

func (b Booking) IsActive() bool {
	return b.Status == BookingStatusConfirmed
}

func (b Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

func (b Booking) Route() string {
	return b.Origin + " → " + b.Destination
}

func (b Booking) FormattedPrice() string {
	return FormatPrice(b.TotalPrice)
}

type SeatPreference string

const (
	SeatPreferenceWindow       SeatPreference = "WINDOW"
	SeatPreferenceAisle        SeatPreference = "AISLE"
	SeatPreferenceMiddle       SeatPreference = "MIDDLE"
	SeatPreferenceNoPreference SeatPreference = "NO_PREFERENCE"
)

// SeatPreferences lists the accepted values in display order.
var SeatPreferences = []SeatPreference{
	SeatPreferenceWindow,
	SeatPreferenceAisle,
	SeatPreferenceMiddle,
	SeatPreferenceNoPreference,
}

// ParseSeatPreference accepts any casing; empty input means no preference.
func ParseSeatPreference(s string) (SeatPreference, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return SeatPreferenceNoPreference, true
	}
	for _, p := range SeatPreferences {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// BookingRequest is built at submission time and discarded after the response.
type BookingRequest struct {
	FlightID           int64          `json:"flightId"`
	PassengerFirstName string         `json:"passengerFirstName"`
	PassengerLastName  string         `json:"passengerLastName"`
	PassengerAge       int            `json:"passengerAge"`
	SeatPreference     SeatPreference `json:"seatPreference"`
	SeatNumber         string         `json:"seatNumber"`
}

type BookingStats struct {
	TotalBookings     int64   `json:"totalBookings"`
	ConfirmedBookings int64   `json:"confirmedBookings"`
	CancelledBookings int64   `json:"cancelledBookings"`
	TotalSpent        float64 `json:"totalSpent"`
}
