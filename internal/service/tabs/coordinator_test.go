package tabs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/airbooking-client/internal/apierr"
	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/kafka"
	"github.com/Domenick1991/airbooking-client/internal/reconcile"
	"github.com/Domenick1991/airbooking-client/internal/service/booking"
	"github.com/Domenick1991/airbooking-client/internal/service/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlights struct {
	mock.Mock
	// gate, when set, blocks Available until closed.
	gate chan struct{}
}

func (m *MockFlights) Available(ctx context.Context) ([]domain.Flight, error) {
	if m.gate != nil {
		<-m.gate
	}
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlights) CheckBookable(flight domain.Flight) error {
	return flights.NewFlightService(nil).CheckBookable(flight)
}

type MockBookings struct {
	mock.Mock
	gate chan struct{}
}

func (m *MockBookings) ListMyBookings(ctx context.Context) ([]domain.Booking, error) {
	if m.gate != nil {
		<-m.gate
	}
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookings) CancelBooking(ctx context.Context, id int64) (domain.Booking, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Booking), args.Error(1)
}

func (m *MockBookings) CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Booking), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type confirmFunc func(ctx context.Context, b domain.Booking) bool

func (f confirmFunc) ConfirmCancel(ctx context.Context, b domain.Booking) bool { return f(ctx, b) }

type fakeView struct {
	mu            sync.Mutex
	flights       [][]domain.Flight
	flightDiffs   []reconcile.FlightResult
	bookings      [][]domain.Booking
	bookingDiffs  []reconcile.BookingResult
	errors        map[Tab][]error
	loadingEvents map[Tab][]bool
}

func newFakeView() *fakeView {
	return &fakeView{errors: map[Tab][]error{}, loadingEvents: map[Tab][]bool{}}
}

func (v *fakeView) ApplyFlights(f []domain.Flight, diff reconcile.FlightResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flights = append(v.flights, f)
	v.flightDiffs = append(v.flightDiffs, diff)
}

func (v *fakeView) ApplyBookings(b []domain.Booking, diff reconcile.BookingResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bookings = append(v.bookings, b)
	v.bookingDiffs = append(v.bookingDiffs, diff)
}

func (v *fakeView) ShowError(tab Tab, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors[tab] = append(v.errors[tab], err)
}

func (v *fakeView) SetLoading(tab Tab, loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadingEvents[tab] = append(v.loadingEvents[tab], loading)
}

func sampleFlights() []domain.Flight {
	return []domain.Flight{
		{ID: 1, FlightNumber: "TX101", Origin: "AUS", Destination: "DFW", Capacity: 100, AvailableSeats: 10, BasePrice: 150},
		{ID: 2, FlightNumber: "TX202", Origin: "AUS", Destination: "IAH", Capacity: 100, AvailableSeats: 0, BasePrice: 90},
	}
}

func sampleBookings() []domain.Booking {
	return []domain.Booking{
		{ID: 7, BookingReference: "TXR7", FlightNumber: "TX101", Status: domain.BookingStatusConfirmed},
		{ID: 8, BookingReference: "TXR8", FlightNumber: "TX202", Status: domain.BookingStatusCancelled},
	}
}

func TestCoordinator_DefaultsToFlights(t *testing.T) {
	c := New(&MockFlights{}, &MockBookings{}, newFakeView())
	assert.Equal(t, TabFlights, c.ActiveTab())
}

func TestCoordinator_WithActiveTabDoesNotFetch(t *testing.T) {
	mockBookings := &MockBookings{}
	c := New(&MockFlights{}, mockBookings, newFakeView(), WithActiveTab(TabBookings))

	assert.Equal(t, TabBookings, c.ActiveTab())
	c.Wait()
	mockBookings.AssertNotCalled(t, "ListMyBookings", mock.Anything)
}

func TestCoordinator_ResumeLoadsActiveTab(t *testing.T) {
	mockFlights := &MockFlights{}
	view := newFakeView()
	c := New(mockFlights, &MockBookings{}, view)
	ctx := context.Background()

	mockFlights.On("Available", ctx).Return(sampleFlights(), nil).Once()

	c.OnResume(ctx)
	c.Wait()

	require.Len(t, view.flights, 1)
	assert.Equal(t, sampleFlights(), view.flights[0])
	assert.Len(t, view.flightDiffs[0].Inserted, 2)
	assert.Equal(t, []bool{true, false}, view.loadingEvents[TabFlights])
	assert.Equal(t, sampleFlights(), c.Flights())
	mockFlights.AssertExpectations(t)
}

func TestCoordinator_RefreshDiffsAgainstDisplayed(t *testing.T) {
	mockFlights := &MockFlights{}
	view := newFakeView()
	c := New(mockFlights, &MockBookings{}, view)
	ctx := context.Background()

	updated := sampleFlights()
	updated[0].AvailableSeats = 9
	mockFlights.On("Available", ctx).Return(sampleFlights(), nil).Once()
	mockFlights.On("Available", ctx).Return(updated, nil).Once()
	mockFlights.On("Available", ctx).Return(updated, nil).Once()

	c.Refresh(ctx)
	c.Wait()
	c.Refresh(ctx)
	c.Wait()
	c.Refresh(ctx)
	c.Wait()

	require.Len(t, view.flights, 2, "an unchanged list is not pushed again")
	diff := view.flightDiffs[1]
	require.Len(t, diff.Updated, 1)
	assert.Equal(t, 0, diff.Updated[0].Index)
	assert.Empty(t, diff.Inserted)
	assert.Equal(t, updated, c.Flights())
	mockFlights.AssertExpectations(t)
}

func TestCoordinator_EmptyFirstLoadIsPushed(t *testing.T) {
	mockBookings := &MockBookings{}
	view := newFakeView()
	c := New(&MockFlights{}, mockBookings, view)
	ctx := context.Background()

	mockBookings.On("ListMyBookings", ctx).Return([]domain.Booking{}, nil).Once()

	c.SelectTab(ctx, TabBookings)
	c.Wait()

	require.Len(t, view.bookings, 1)
	assert.True(t, view.bookingDiffs[0].IsEmpty)
}

func TestCoordinator_FailureLeavesListUntouched(t *testing.T) {
	mockFlights := &MockFlights{}
	view := newFakeView()
	c := New(mockFlights, &MockBookings{}, view)
	ctx := context.Background()

	mockFlights.On("Available", ctx).Return(sampleFlights(), nil).Once()
	mockFlights.On("Available", ctx).Return(nil, apierr.Transport("listAvailableFlights", errors.New("timeout"))).Once()

	c.Refresh(ctx)
	c.Wait()
	c.Refresh(ctx)
	c.Wait()

	require.Len(t, view.errors[TabFlights], 1)
	assert.True(t, apierr.IsKind(view.errors[TabFlights][0], apierr.KindTransport))
	assert.Len(t, view.flights, 1)
	assert.Equal(t, sampleFlights(), c.Flights())
}

func TestCoordinator_LateResponseForInactiveTabIsDiscarded(t *testing.T) {
	mockFlights := &MockFlights{gate: make(chan struct{})}
	mockBookings := &MockBookings{}
	view := newFakeView()
	c := New(mockFlights, mockBookings, view)
	ctx := context.Background()

	mockFlights.On("Available", ctx).Return(sampleFlights(), nil).Once()
	mockBookings.On("ListMyBookings", ctx).Return(sampleBookings(), nil).Once()

	c.Refresh(ctx)
	c.SelectTab(ctx, TabBookings)
	close(mockFlights.gate)
	c.Wait()

	assert.Empty(t, view.flights)
	assert.Empty(t, c.Flights())
	require.Len(t, view.bookings, 1)
	assert.Equal(t, TabBookings, c.ActiveTab())
	mockFlights.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
}

func TestCoordinator_CollapsesDuplicateFetches(t *testing.T) {
	mockBookings := &MockBookings{gate: make(chan struct{})}
	view := newFakeView()
	c := New(&MockFlights{}, mockBookings, view)
	ctx := context.Background()

	mockBookings.On("ListMyBookings", ctx).Return(sampleBookings(), nil).Once()

	c.SelectTab(ctx, TabBookings)
	c.SelectTab(ctx, TabBookings)

	time.Sleep(50 * time.Millisecond)
	close(mockBookings.gate)
	c.Wait()

	mockBookings.AssertNumberOfCalls(t, "ListMyBookings", 1)
	assert.Len(t, view.bookings, 1)
	assert.Equal(t, []bool{true, true, false}, view.loadingEvents[TabBookings])
	assert.Equal(t, sampleBookings(), c.Bookings())
}

// bookingsServer answers from its current state at the moment a list
// request arrives. The first list call is held until release is closed.
type bookingsServer struct {
	mu       sync.Mutex
	bookings []domain.Booking
	calls    int
	release  chan struct{}
}

func (s *bookingsServer) ListMyBookings(ctx context.Context) ([]domain.Booking, error) {
	s.mu.Lock()
	snapshot := append([]domain.Booking(nil), s.bookings...)
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if first {
		<-s.release
	}
	return snapshot, nil
}

func (s *bookingsServer) CancelBooking(ctx context.Context, id int64) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			s.bookings[i].Status = domain.BookingStatusCancelled
			return s.bookings[i], nil
		}
	}
	return domain.Booking{}, apierr.FromResponse("cancelBooking", 404, nil)
}

func (s *bookingsServer) CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	return domain.Booking{}, errors.New("not supported")
}

func (s *bookingsServer) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCoordinator_CancelDuringRunningFetchShowsNewStatus(t *testing.T) {
	srv := &bookingsServer{bookings: sampleBookings(), release: make(chan struct{})}
	view := newFakeView()
	c := New(&MockFlights{}, srv, view)
	ctx := context.Background()

	c.SelectTab(ctx, TabBookings)
	require.Eventually(t, func() bool { return srv.listCalls() == 1 }, time.Second, 5*time.Millisecond)

	got, err := c.CancelBooking(ctx, sampleBookings()[0])
	require.NoError(t, err)
	assert.True(t, got.IsCancelled())

	require.Eventually(t, func() bool { return srv.listCalls() == 2 }, time.Second, 5*time.Millisecond)
	close(srv.release)
	c.Wait()

	shown := c.Bookings()
	require.Len(t, shown, 2)
	assert.True(t, shown[0].IsCancelled(), "the list fetched before the cancel must not win")
	require.Len(t, view.bookings, 1)
	assert.Equal(t, []bool{true, true, false}, view.loadingEvents[TabBookings])
}

func TestCoordinator_RefreshIsNotJoinedWithRunningFetch(t *testing.T) {
	srv := &bookingsServer{bookings: sampleBookings(), release: make(chan struct{})}
	view := newFakeView()
	c := New(&MockFlights{}, srv, view, WithActiveTab(TabBookings))
	ctx := context.Background()

	c.OnResume(ctx)
	require.Eventually(t, func() bool { return srv.listCalls() == 1 }, time.Second, 5*time.Millisecond)

	srv.mu.Lock()
	srv.bookings[0].Status = domain.BookingStatusCancelled
	srv.mu.Unlock()

	c.Refresh(ctx)
	require.Eventually(t, func() bool {
		shown := c.Bookings()
		return len(shown) == 2 && shown[0].IsCancelled()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, srv.listCalls())

	close(srv.release)
	c.Wait()
	assert.True(t, c.Bookings()[0].IsCancelled())
	assert.Len(t, view.bookings, 1)
}

func TestCoordinator_CancelBooking(t *testing.T) {
	mockBookings := &MockBookings{}
	mockProducer := &MockProducer{}
	view := newFakeView()
	var asked []int64
	c := New(&MockFlights{}, mockBookings, view,
		WithConfirmer(confirmFunc(func(_ context.Context, b domain.Booking) bool {
			asked = append(asked, b.ID)
			return true
		})),
		WithEvents(mockProducer, "booking-activity", func(context.Context) string { return "john@example.com" }),
	)
	ctx := context.Background()

	mockBookings.On("ListMyBookings", ctx).Return(sampleBookings(), nil).Once()
	c.SelectTab(ctx, TabBookings)
	c.Wait()

	cancelled := sampleBookings()[0]
	cancelled.Status = domain.BookingStatusCancelled
	refreshed := sampleBookings()
	refreshed[0] = cancelled

	mockBookings.On("CancelBooking", ctx, int64(7)).Return(cancelled, nil).Once()
	mockBookings.On("ListMyBookings", ctx).Return(refreshed, nil).Once()
	mockProducer.On("Publish", ctx, "booking-activity", "TXR7", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCancelled && e.Email == "john@example.com"
	})).Return(nil).Once()

	got, err := c.CancelBooking(ctx, sampleBookings()[0])
	c.Wait()

	require.NoError(t, err)
	assert.True(t, got.IsCancelled())
	assert.Equal(t, []int64{7}, asked)
	require.Len(t, view.bookings, 2)
	require.Len(t, view.bookingDiffs[1].Updated, 1)
	assert.Equal(t, refreshed, c.Bookings())

	mockBookings.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestCoordinator_CancelDeclined(t *testing.T) {
	mockBookings := &MockBookings{}
	c := New(&MockFlights{}, mockBookings, newFakeView(),
		WithConfirmer(confirmFunc(func(context.Context, domain.Booking) bool { return false })))

	_, err := c.CancelBooking(context.Background(), sampleBookings()[0])

	assert.ErrorIs(t, err, ErrCancelDeclined)
	mockBookings.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
}

func TestCoordinator_CancelFailureKeepsList(t *testing.T) {
	mockBookings := &MockBookings{}
	view := newFakeView()
	c := New(&MockFlights{}, mockBookings, view)
	ctx := context.Background()

	mockBookings.On("ListMyBookings", ctx).Return(sampleBookings(), nil).Once()
	c.SelectTab(ctx, TabBookings)
	c.Wait()

	mockBookings.On("CancelBooking", ctx, int64(7)).
		Return(domain.Booking{}, apierr.FromResponse("cancelBooking", 400, []byte(`{"message":"Booking is already cancelled"}`))).Once()

	_, err := c.CancelBooking(ctx, sampleBookings()[0])
	c.Wait()

	assert.True(t, apierr.IsKind(err, apierr.KindBusiness))
	require.Len(t, view.errors[TabBookings], 1)
	assert.Equal(t, "Booking is already cancelled", apierr.MessageOr(view.errors[TabBookings][0], ""))
	assert.Len(t, view.bookings, 1)
	assert.Equal(t, sampleBookings(), c.Bookings())
	mockBookings.AssertExpectations(t)
}

func TestCoordinator_CancelOnlyConfirmed(t *testing.T) {
	mockBookings := &MockBookings{}
	c := New(&MockFlights{}, mockBookings, newFakeView())

	_, err := c.CancelBooking(context.Background(), sampleBookings()[1])

	assert.Equal(t, ErrNotCancellable, apierr.MessageOr(err, ""))
	mockBookings.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
}

func TestCoordinator_BeginBooking(t *testing.T) {
	c := New(&MockFlights{}, &MockBookings{}, newFakeView())
	fl := sampleFlights()

	w, err := c.BeginBooking(fl[0], nil)
	require.NoError(t, err)
	assert.Equal(t, booking.StateIdle, w.State())
	assert.Equal(t, int64(1), w.Params().FlightID)
	assert.Equal(t, "AUS → DFW", w.Params().Route)

	w, err = c.BeginBooking(fl[1], nil)
	assert.Nil(t, w)
	assert.Equal(t, flights.ErrNoSeats, apierr.MessageOr(err, ""))
}

func TestCoordinator_Run(t *testing.T) {
	mockFlights := &MockFlights{}
	mockBookings := &MockBookings{}
	view := newFakeView()
	c := New(mockFlights, mockBookings, view)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mockFlights.On("Available", mock.Anything).Return(sampleFlights(), nil)
	mockBookings.On("ListMyBookings", mock.Anything).Return(sampleBookings(), nil)

	cmds := make(chan Command, 3)
	cmds <- Resume{}
	cmds <- SelectTab{Tab: TabBookings}
	cmds <- Refresh{}
	close(cmds)

	require.NoError(t, c.Run(ctx, cmds))

	assert.Equal(t, TabBookings, c.ActiveTab())
	assert.Equal(t, sampleBookings(), c.Bookings())
}
