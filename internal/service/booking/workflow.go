// Package booking drives a single booking attempt from form entry to the
// service's answer.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Domenick1991/airbooking-client/internal/apierr"
	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/kafka"
	"github.com/rs/zerolog"
)

const ErrBookingFailed = "Booking failed"

// ErrInvalidState is returned when a command does not apply to the
// current state, e.g. a second submit while one is in flight.
var ErrInvalidState = errors.New("booking: command not allowed in current state")

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type BookingsAPI interface {
	CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Snapshot is what the presentation layer sees after each transition.
type Snapshot struct {
	State State
	// Booking is set once the service accepted the booking.
	Booking *domain.Booking
	Err     error
	// Message is the text to show the user, if any.
	Message string
}

type Observer func(Snapshot)

type Option func(*Workflow)

func WithObserver(o Observer) Option {
	return func(w *Workflow) { w.observer = o }
}

// WithEvents publishes a booking_created event to topic after success.
func WithEvents(p Producer, topic string) Option {
	return func(w *Workflow) {
		w.producer = p
		w.topic = topic
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(w *Workflow) { w.log = log }
}

type Workflow struct {
	api     BookingsAPI
	params  Params
	profile *domain.Profile

	observer Observer
	producer Producer
	topic    string
	log      zerolog.Logger

	mu      sync.Mutex
	state   State
	booking *domain.Booking
	err     error
}

// New starts a workflow in StateIdle. profile may be nil; it only affects
// the price preview and the prefilled form.
func New(api BookingsAPI, params Params, profile *domain.Profile, opts ...Option) *Workflow {
	w := &Workflow{
		api:     api,
		params:  params,
		profile: profile,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With().Str("component", "booking").Int64("flight_id", params.FlightID).Logger()
	return w
}

func (w *Workflow) Params() Params {
	return w.params
}

func (w *Workflow) Quote() Quote {
	return NewQuote(w.params.BasePrice, w.profile)
}

func (w *Workflow) PrefillForm() Form {
	return PrefillForm(w.profile)
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Submit validates form and, if it is valid, sends exactly one create
// request. Invalid input moves the workflow to StateFailed without any
// network call. Submitting again after a failure retries: the workflow
// passes through StateIdle first.
func (w *Workflow) Submit(ctx context.Context, form Form) (domain.Booking, error) {
	var snaps []Snapshot

	w.mu.Lock()
	if w.state == StateFailed {
		w.resetLocked()
		snaps = append(snaps, w.snapshotLocked())
	}
	if w.state != StateIdle {
		state := w.state
		w.mu.Unlock()
		return domain.Booking{}, fmt.Errorf("%w: %s", ErrInvalidState, state)
	}

	req, err := BuildRequest(w.params.FlightID, form)
	if err != nil {
		w.failLocked(err)
		snaps = append(snaps, w.snapshotLocked())
		w.mu.Unlock()
		w.notify(snaps...)
		return domain.Booking{}, err
	}

	w.state = StateSubmitting
	w.err = nil
	snaps = append(snaps, w.snapshotLocked())
	w.mu.Unlock()
	w.notify(snaps...)

	created, err := w.api.CreateBooking(ctx, req)

	w.mu.Lock()
	if err != nil {
		w.failLocked(err)
	} else {
		w.state = StateSucceeded
		w.booking = &created
	}
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.notify(snap)

	if err != nil {
		w.log.Warn().Err(err).Msg("booking failed")
		return domain.Booking{}, err
	}
	w.log.Info().Str("reference", created.BookingReference).Msg("booking created")
	w.publish(ctx, created)
	return created, nil
}

// Retry returns a failed workflow to StateIdle so the user can resubmit.
func (w *Workflow) Retry() error {
	w.mu.Lock()
	if w.state != StateFailed {
		state := w.state
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidState, state)
	}
	w.resetLocked()
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.notify(snap)
	return nil
}

// FailureMessage is the text shown for a failed submit.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	return apierr.MessageOr(err, ErrBookingFailed)
}

func SuccessMessage(b domain.Booking) string {
	return "Booking confirmed! Ref: " + b.BookingReference
}

func (w *Workflow) resetLocked() {
	w.state = StateIdle
	w.err = nil
}

func (w *Workflow) failLocked(err error) {
	w.state = StateFailed
	w.err = err
}

func (w *Workflow) snapshotLocked() Snapshot {
	snap := Snapshot{State: w.state, Err: w.err}
	switch w.state {
	case StateFailed:
		snap.Message = FailureMessage(w.err)
	case StateSucceeded:
		b := *w.booking
		snap.Booking = &b
		snap.Message = SuccessMessage(b)
	}
	return snap
}

func (w *Workflow) notify(snaps ...Snapshot) {
	if w.observer == nil {
		return
	}
	for _, s := range snaps {
		w.observer(s)
	}
}

func (w *Workflow) publish(ctx context.Context, b domain.Booking) {
	if w.producer == nil || w.topic == "" {
		return
	}
	email := ""
	if w.profile != nil {
		email = w.profile.Email
	}
	event := kafka.NewBookingEvent(kafka.EventBookingCreated, b, email)
	if err := w.producer.Publish(ctx, w.topic, event.Key(), event); err != nil {
		w.log.Warn().Err(err).Str("reference", b.BookingReference).Msg("failed to publish booking_created event")
	}
}
