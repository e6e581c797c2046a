package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooking() domain.Booking {
	return domain.Booking{
		ID:               12,
		BookingReference: "TXR482913",
		FlightNumber:     "TX101",
		Origin:           "AUS",
		Destination:      "DFW",
		PassengerName:    "John Smith",
		Status:           domain.BookingStatusConfirmed,
		TotalPrice:       127.49,
	}
}

func TestNewBookingEvent(t *testing.T) {
	event := NewBookingEvent(EventBookingCreated, sampleBooking(), "john@example.com")

	assert.Equal(t, EventBookingCreated, event.Type)
	assert.Equal(t, int64(12), event.BookingID)
	assert.Equal(t, "AUS → DFW", event.Route)
	assert.Equal(t, "TXR482913", event.Key())
	assert.False(t, event.OccurredAt.IsZero())

	event.BookingReference = ""
	assert.Equal(t, "12", event.Key())
}

func TestDecodeEvent(t *testing.T) {
	data, err := json.Marshal(NewBookingEvent(EventBookingCancelled, sampleBooking(), ""))
	require.NoError(t, err)

	event, err := DecodeEvent(kafka.Message{Value: data})
	require.NoError(t, err)
	assert.Equal(t, EventBookingCancelled, event.Type)
	assert.Equal(t, domain.BookingStatusConfirmed, event.Status)

	_, err = DecodeEvent(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)

	_, err = DecodeEvent(kafka.Message{Value: []byte(`{"booking_id": 1}`)})
	assert.ErrorContains(t, err, "missing type")
}

func TestEventHandler_SkipsBadMessages(t *testing.T) {
	var got []BookingEvent
	handler := EventHandler(zerolog.Nop(), func(_ context.Context, e BookingEvent) error {
		got = append(got, e)
		return nil
	})

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: []byte("garbage")}))
	assert.Empty(t, got)

	data, _ := json.Marshal(NewBookingEvent(EventBookingCreated, sampleBooking(), ""))
	assert.NoError(t, handler(context.Background(), kafka.Message{Value: data}))
	assert.Len(t, got, 1)
}

func TestEventHandler_PropagatesHandlerError(t *testing.T) {
	boom := errors.New("smtp down")
	handler := EventHandler(zerolog.Nop(), func(context.Context, BookingEvent) error { return boom })

	data, _ := json.Marshal(NewBookingEvent(EventBookingCreated, sampleBooking(), ""))
	assert.ErrorIs(t, handler(context.Background(), kafka.Message{Value: data}), boom)
}
