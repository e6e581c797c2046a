// Package tabs keeps the flights and bookings lists in step with the
// service while the user switches between them.
package tabs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Domenick1991/airbooking-client/internal/apierr"
	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/kafka"
	"github.com/Domenick1991/airbooking-client/internal/logging"
	"github.com/Domenick1991/airbooking-client/internal/reconcile"
	"github.com/Domenick1991/airbooking-client/internal/service/booking"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrCancelDeclined is returned when the user did not confirm a cancellation.
var ErrCancelDeclined = errors.New("cancellation declined")

const ErrNotCancellable = "Only confirmed bookings can be cancelled"

type Tab int

const (
	TabFlights Tab = iota
	TabBookings
)

func (t Tab) String() string {
	switch t {
	case TabFlights:
		return "flights"
	case TabBookings:
		return "bookings"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

type FlightsSource interface {
	Available(ctx context.Context) ([]domain.Flight, error)
	CheckBookable(flight domain.Flight) error
}

type BookingsAPI interface {
	ListMyBookings(ctx context.Context) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, id int64) (domain.Booking, error)
	CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error)
}

// View renders what the coordinator decides. Calls may arrive from any
// goroutine but never concurrently with each other. Implementations must
// not call back into the Coordinator from these methods.
type View interface {
	ApplyFlights(flights []domain.Flight, diff reconcile.FlightResult)
	ApplyBookings(bookings []domain.Booking, diff reconcile.BookingResult)
	ShowError(tab Tab, err error)
	SetLoading(tab Tab, loading bool)
}

type Confirmer interface {
	ConfirmCancel(ctx context.Context, b domain.Booking) bool
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Option func(*Coordinator)

func WithConfirmer(c Confirmer) Option {
	return func(co *Coordinator) { co.confirmer = c }
}

// WithEvents publishes booking activity to topic. email, if set, is read
// when an event is built.
func WithEvents(p Producer, topic string, email func(ctx context.Context) string) Option {
	return func(co *Coordinator) {
		co.producer = p
		co.topic = topic
		co.email = email
	}
}

// WithActiveTab sets the tab that starts out active without fetching it.
func WithActiveTab(tab Tab) Option {
	return func(co *Coordinator) { co.active = tab }
}

func WithLogger(log zerolog.Logger) Option {
	return func(co *Coordinator) { co.log = log }
}

type Coordinator struct {
	flights   FlightsSource
	bookings  BookingsAPI
	view      View
	confirmer Confirmer
	producer  Producer
	topic     string
	email     func(ctx context.Context) string
	log       zerolog.Logger

	group singleflight.Group
	wg    sync.WaitGroup

	mu     sync.Mutex
	active Tab

	// applyMu orders view updates and guards the displayed lists. Only the
	// newest fetch of a tab, as numbered by gen, may touch them.
	applyMu       sync.Mutex
	gen           map[Tab]uint64
	shownFlights  []domain.Flight
	shownBookings []domain.Booking
	loaded        [2]bool
}

func New(flights FlightsSource, bookings BookingsAPI, view View, opts ...Option) *Coordinator {
	c := &Coordinator{
		flights:  flights,
		bookings: bookings,
		view:     view,
		active:   TabFlights,
		gen:      make(map[Tab]uint64),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.Component(c.log, "tabs")
	return c
}

func (c *Coordinator) ActiveTab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SelectTab makes tab active and fetches it. A fetch of the same tab that
// is already running is joined instead of repeated.
func (c *Coordinator) SelectTab(ctx context.Context, tab Tab) {
	c.mu.Lock()
	c.active = tab
	c.mu.Unlock()
	c.fetch(ctx, tab, false)
}

// Refresh always issues a new request for the active tab.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.fetch(ctx, c.ActiveTab(), true)
}

// OnResume refetches the active tab every time the screen comes back.
func (c *Coordinator) OnResume(ctx context.Context) {
	c.fetch(ctx, c.ActiveTab(), true)
}

// Wait blocks until every started fetch has been applied or discarded.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) Flights() []domain.Flight {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	return append([]domain.Flight(nil), c.shownFlights...)
}

func (c *Coordinator) Bookings() []domain.Booking {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	return append([]domain.Booking(nil), c.shownBookings...)
}

// fetch loads tab in the background. fresh detaches it from any running
// fetch of the same tab, whose result then arrives stale and is dropped.
func (c *Coordinator) fetch(ctx context.Context, tab Tab, fresh bool) {
	c.applyMu.Lock()
	c.gen[tab]++
	gen := c.gen[tab]
	c.view.SetLoading(tab, true)
	c.applyMu.Unlock()

	if fresh {
		c.group.Forget(tab.String())
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		v, err, _ := c.group.Do(tab.String(), func() (interface{}, error) {
			return c.load(ctx, tab)
		})
		c.apply(tab, gen, v, err)
	}()
}

func (c *Coordinator) load(ctx context.Context, tab Tab) (interface{}, error) {
	switch tab {
	case TabFlights:
		return c.flights.Available(ctx)
	case TabBookings:
		return c.bookings.ListMyBookings(ctx)
	default:
		return nil, fmt.Errorf("unknown tab %s", tab)
	}
}

func (c *Coordinator) apply(tab Tab, gen uint64, v interface{}, err error) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if gen != c.gen[tab] {
		c.log.Debug().Stringer("tab", tab).Msg("discarding stale response")
		return
	}
	c.view.SetLoading(tab, false)

	if active := c.ActiveTab(); active != tab {
		c.log.Debug().Stringer("tab", tab).Stringer("active", active).Msg("discarding late response")
		return
	}
	if err != nil {
		c.log.Warn().Err(err).Stringer("tab", tab).Msg("refresh failed")
		c.view.ShowError(tab, err)
		return
	}

	switch tab {
	case TabFlights:
		next := v.([]domain.Flight)
		diff := reconcile.DiffFlights(c.shownFlights, next)
		if !diff.Changed() && c.loaded[tab] {
			return
		}
		c.shownFlights = append([]domain.Flight(nil), next...)
		c.loaded[tab] = true
		c.view.ApplyFlights(append([]domain.Flight(nil), next...), diff)
	case TabBookings:
		next := v.([]domain.Booking)
		diff := reconcile.DiffBookings(c.shownBookings, next)
		if !diff.Changed() && c.loaded[tab] {
			return
		}
		c.shownBookings = append([]domain.Booking(nil), next...)
		c.loaded[tab] = true
		c.view.ApplyBookings(append([]domain.Booking(nil), next...), diff)
	}
}

// CancelBooking asks for confirmation, cancels b and refetches the
// bookings list. On failure the displayed list is left as it was.
func (c *Coordinator) CancelBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if !b.IsActive() {
		err := &apierr.Error{Kind: apierr.KindBusiness, Op: "cancelBooking", Message: ErrNotCancellable}
		c.showError(TabBookings, err)
		return domain.Booking{}, err
	}
	if c.confirmer != nil && !c.confirmer.ConfirmCancel(ctx, b) {
		return domain.Booking{}, ErrCancelDeclined
	}

	cancelled, err := c.bookings.CancelBooking(ctx, b.ID)
	if err != nil {
		c.log.Warn().Err(err).Int64("booking_id", b.ID).Msg("cancel failed")
		c.showError(TabBookings, err)
		return domain.Booking{}, err
	}

	c.log.Info().Str("reference", cancelled.BookingReference).Msg("booking cancelled")
	c.publish(ctx, kafka.EventBookingCancelled, cancelled)
	c.fetch(ctx, TabBookings, true)
	return cancelled, nil
}

// BeginBooking starts a booking workflow for flight. Flights without free
// seats are refused before any request is made.
func (c *Coordinator) BeginBooking(flight domain.Flight, profile *domain.Profile, opts ...booking.Option) (*booking.Workflow, error) {
	if err := c.flights.CheckBookable(flight); err != nil {
		return nil, err
	}
	base := []booking.Option{booking.WithLogger(c.log)}
	if c.producer != nil {
		base = append(base, booking.WithEvents(c.producer, c.topic))
	}
	return booking.New(c.bookings, booking.ParamsFromFlight(flight), profile, append(base, opts...)...), nil
}

func (c *Coordinator) showError(tab Tab, err error) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.view.ShowError(tab, err)
}

func (c *Coordinator) publish(ctx context.Context, eventType string, b domain.Booking) {
	if c.producer == nil || c.topic == "" {
		return
	}
	email := ""
	if c.email != nil {
		email = c.email(ctx)
	}
	event := kafka.NewBookingEvent(eventType, b, email)
	if err := c.producer.Publish(ctx, c.topic, event.Key(), event); err != nil {
		c.log.Warn().Err(err).Str("type", eventType).Msg("failed to publish event")
	}
}
