package reconcile

import "github.com/Domenick1991/airbooking-client/internal/domain"

type (
	FlightResult  = Result[domain.Flight, int64]
	BookingResult = Result[domain.Booking, int64]
)

func flightKey(f domain.Flight) int64 { return f.ID }

func bookingKey(b domain.Booking) int64 { return b.ID }

func DiffFlights(old, new []domain.Flight) FlightResult {
	return Diff(old, new, flightKey, func(a, b domain.Flight) bool { return a == b })
}

func DiffBookings(old, new []domain.Booking) BookingResult {
	return Diff(old, new, bookingKey, func(a, b domain.Booking) bool { return a == b })
}

func ApplyFlights(old []domain.Flight, res FlightResult) []domain.Flight {
	return Apply(old, res, flightKey)
}

func ApplyBookings(old []domain.Booking, res BookingResult) []domain.Booking {
	return Apply(old, res, bookingKey)
}
