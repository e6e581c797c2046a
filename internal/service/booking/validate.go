package booking

import (
	"strconv"
	"strings"

	"github.com/Domenick1991/airbooking-client/internal/apierr"
	"github.com/Domenick1991/airbooking-client/internal/domain"
)

const (
	ErrFillAllFields   = "Please fill all fields"
	ErrInvalidAge      = "Please enter a valid age"
	ErrInvalidSeatPref = "Please choose a seat preference"

	MaxPassengerAge = 120
)

// BuildRequest validates form and turns it into the wire request.
func BuildRequest(flightID int64, form Form) (domain.BookingRequest, error) {
	first := strings.TrimSpace(form.FirstName)
	last := strings.TrimSpace(form.LastName)
	ageText := strings.TrimSpace(form.Age)
	seat := strings.TrimSpace(form.SeatNumber)

	switch {
	case first == "":
		return domain.BookingRequest{}, apierr.Validation("firstName", ErrFillAllFields)
	case last == "":
		return domain.BookingRequest{}, apierr.Validation("lastName", ErrFillAllFields)
	case ageText == "":
		return domain.BookingRequest{}, apierr.Validation("age", ErrFillAllFields)
	case seat == "":
		return domain.BookingRequest{}, apierr.Validation("seatNumber", ErrFillAllFields)
	}

	age, err := strconv.Atoi(ageText)
	if err != nil || age < 0 || age > MaxPassengerAge {
		return domain.BookingRequest{}, apierr.Validation("age", ErrInvalidAge)
	}

	pref, ok := domain.ParseSeatPreference(form.SeatPreference)
	if !ok {
		return domain.BookingRequest{}, apierr.Validation("seatPreference", ErrInvalidSeatPref)
	}

	return domain.BookingRequest{
		FlightID:           flightID,
		PassengerFirstName: first,
		PassengerLastName:  last,
		PassengerAge:       age,
		SeatPreference:     pref,
		SeatNumber:         strings.ToUpper(seat),
	}, nil
}
