// Package email turns booking activity events into customer notifications.
package email

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/kafka"
	"github.com/Domenick1991/airbooking-client/internal/logging"
	"github.com/rs/zerolog"
)

// ErrNoRecipient is returned for events that carry no email address.
var ErrNoRecipient = errors.New("event has no recipient")

type Message struct {
	To      string
	Subject string
	Body    string
}

func Compose(event kafka.BookingEvent) (Message, error) {
	if event.Email == "" {
		return Message{}, ErrNoRecipient
	}
	msg := Message{To: event.Email}
	switch event.Type {
	case kafka.EventBookingCreated:
		msg.Subject = fmt.Sprintf("Booking %s confirmed", event.BookingReference)
		msg.Body = fmt.Sprintf("Hello %s,\n\nyour seat on flight %s (%s) is booked.\nTotal paid: %s\n",
			event.PassengerName, event.FlightNumber, event.Route, domain.FormatPrice(event.TotalPrice))
	case kafka.EventBookingCancelled:
		msg.Subject = fmt.Sprintf("Booking %s cancelled", event.BookingReference)
		msg.Body = fmt.Sprintf("Hello %s,\n\nyour booking on flight %s (%s) has been cancelled.\n",
			event.PassengerName, event.FlightNumber, event.Route)
	default:
		return Message{}, fmt.Errorf("unsupported event type %q", event.Type)
	}
	return msg, nil
}

// Sender writes composed messages to out. It stands in for an SMTP relay.
type Sender struct {
	out io.Writer
	log zerolog.Logger
}

func NewSender(out io.Writer, log zerolog.Logger) *Sender {
	return &Sender{out: out, log: logging.Component(log, "email")}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := Compose(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.out, "To: %s\nSubject: %s\n\n%s\n", msg.To, msg.Subject, msg.Body); err != nil {
		return fmt.Errorf("write email: %w", err)
	}
	s.log.Info().Str("to", msg.To).Str("type", event.Type).Str("reference", event.BookingReference).Msg("email sent")
	return nil
}
