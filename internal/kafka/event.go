package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEvent records a booking change made from this client.
type BookingEvent struct {
	Type             string               `json:"type"`
	BookingID        int64                `json:"booking_id"`
	BookingReference string               `json:"booking_reference"`
	FlightNumber     string               `json:"flight_number"`
	Route            string               `json:"route"`
	PassengerName    string               `json:"passenger_name"`
	Status           domain.BookingStatus `json:"status"`
	TotalPrice       float64              `json:"total_price"`
	Email            string               `json:"email,omitempty"`
	OccurredAt       time.Time            `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b domain.Booking, email string) BookingEvent {
	return BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		FlightNumber:     b.FlightNumber,
		Route:            b.Route(),
		PassengerName:    b.PassengerName,
		Status:           b.Status,
		TotalPrice:       b.TotalPrice,
		Email:            email,
		OccurredAt:       time.Now().UTC(),
	}
}

// Key partitions events of the same booking together.
func (e BookingEvent) Key() string {
	if e.BookingReference != "" {
		return e.BookingReference
	}
	return strconv.FormatInt(e.BookingID, 10)
}

func DecodeEvent(msg kafka.Message) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return BookingEvent{}, fmt.Errorf("decode booking event: %w", err)
	}
	if event.Type == "" {
		return BookingEvent{}, fmt.Errorf("decode booking event: missing type")
	}
	return event, nil
}
