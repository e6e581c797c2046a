package booking

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/airbooking-client/internal/domain"
)

// Params identify the flight being booked. They are captured when the
// workflow starts and never refreshed.
type Params struct {
	FlightID      int64
	FlightNumber  string
	Route         string
	DepartureTime string
	BasePrice     float64
}

func ParamsFromFlight(f domain.Flight) Params {
	return Params{
		FlightID:      f.ID,
		FlightNumber:  f.FlightNumber,
		Route:         f.Route(),
		DepartureTime: f.DepartureTime,
		BasePrice:     f.BasePrice,
	}
}

// Quote is the price preview shown before submitting. The service prices
// the booking on its own; its figures come back on the created booking.
type Quote struct {
	BasePrice       float64
	DiscountPercent int
	DiscountAmount  float64
	FinalPrice      float64
}

func NewQuote(basePrice float64, profile *domain.Profile) Quote {
	q := Quote{BasePrice: basePrice}
	if profile != nil {
		q.DiscountPercent = profile.DiscountPercent
	}
	q.DiscountAmount = basePrice * float64(q.DiscountPercent) / 100
	q.FinalPrice = basePrice - q.DiscountAmount
	return q
}

func (q Quote) BaseText() string {
	return "Base Price: " + domain.FormatPrice(q.BasePrice)
}

// DiscountText is empty when no discount applies.
func (q Quote) DiscountText() string {
	if q.DiscountPercent <= 0 {
		return ""
	}
	return fmt.Sprintf("Discount (%d%%): -%s", q.DiscountPercent, domain.FormatPrice(q.DiscountAmount))
}

func (q Quote) TotalText() string {
	return "Total: " + domain.FormatPrice(q.FinalPrice)
}

// Form holds the passenger fields as typed by the user.
type Form struct {
	FirstName      string
	LastName       string
	Age            string
	SeatNumber     string
	SeatPreference string
}

// PrefillForm splits a profile name into first name and the rest.
func PrefillForm(profile *domain.Profile) Form {
	form := Form{SeatPreference: string(domain.SeatPreferenceNoPreference)}
	if profile == nil {
		return form
	}
	parts := strings.Fields(profile.Name)
	if len(parts) > 0 {
		form.FirstName = parts[0]
	}
	if len(parts) > 1 {
		form.LastName = strings.Join(parts[1:], " ")
	}
	return form
}
