// Package fakeairport is an in-memory stand-in for the booking service.
// It speaks the same JSON contract and backs local development and the
// client's end-to-end tests.
package fakeairport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("Email already registered")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrFlightNotFound     = errors.New("Flight not found")
	ErrNoSeats            = errors.New("No available seats on this flight")
	ErrBookingNotFound    = errors.New("Booking not found")
	ErrAlreadyCancelled   = errors.New("Booking is already cancelled")
)

// FrequentFlyerMiles is credited to frequent flyers for every booking.
const FrequentFlyerMiles = 500

type user struct {
	profile      domain.Profile
	passwordHash []byte
}

type booking struct {
	record domain.Booking
	userID int64
	flight int64
}

type Store struct {
	mu         sync.Mutex
	cost       int
	nextUserID int64
	nextBookID int64
	users      map[string]*user
	usersByID  map[int64]*user
	flights    []*domain.Flight
	bookings   []*booking
	now        func() time.Time
}

// NewStore returns an empty store. cost is the bcrypt cost for stored
// passwords; zero means bcrypt.DefaultCost.
func NewStore(cost int) *Store {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		cost:      cost,
		users:     make(map[string]*user),
		usersByID: make(map[int64]*user),
		now:       time.Now,
	}
}

// Seed loads the sample Texas routes and demo accounts.
func (s *Store) Seed() error {
	samples := []struct {
		number, origin, destination, departure string
		capacity                               int
		price                                  float64
	}{
		{"TX101", "Dallas", "Austin", "08:00 AM", 150, 199.99},
		{"TX102", "Houston", "San Antonio", "10:30 AM", 120, 149.99},
		{"TX103", "Austin", "Dallas", "02:00 PM", 150, 199.99},
		{"TX104", "El Paso", "Lubbock", "09:15 AM", 80, 129.99},
		{"TX105", "Corpus Christi", "Amarillo", "11:45 AM", 100, 179.99},
		{"TX106", "Dallas", "Houston", "07:00 AM", 180, 159.99},
		{"TX107", "San Antonio", "Austin", "09:00 AM", 100, 89.99},
		{"TX108", "Houston", "Dallas", "03:30 PM", 180, 159.99},
		{"TX109", "Austin", "El Paso", "12:00 PM", 120, 229.99},
		{"TX110", "Lubbock", "Dallas", "04:00 PM", 80, 149.99},
	}
	for _, f := range samples {
		s.AddFlight(domain.Flight{
			FlightNumber:   f.number,
			Origin:         f.origin,
			Destination:    f.destination,
			DepartureTime:  f.departure,
			Capacity:       f.capacity,
			AvailableSeats: f.capacity,
			BasePrice:      f.price,
		})
	}

	johnPhone, janePhone := "555-1234", "555-5678"
	if _, err := s.Register(domain.RegisterRequest{Name: "John Doe", Email: "john@example.com", Password: "password123", PhoneNumber: &johnPhone}); err != nil {
		return fmt.Errorf("seed john: %w", err)
	}
	if _, err := s.RegisterFrequentFlyer(domain.FrequentFlyerRegisterRequest{
		RegisterRequest: domain.RegisterRequest{Name: "Jane Smith", Email: "jane@example.com", Password: "password123", PhoneNumber: &janePhone},
		InitialMiles:    30000,
	}); err != nil {
		return fmt.Errorf("seed jane: %w", err)
	}
	return nil
}

// AddFlight stores f with a fresh id and returns it.
func (s *Store) AddFlight(f domain.Flight) domain.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = int64(len(s.flights) + 1)
	s.flights = append(s.flights, &f)
	return f
}

func (s *Store) Register(req domain.RegisterRequest) (domain.Profile, error) {
	return s.addUser(req, domain.Profile{
		CustomerType:    domain.CustomerTypeRegular,
		MembershipLevel: domain.MembershipNone,
	})
}

func (s *Store) RegisterFrequentFlyer(req domain.FrequentFlyerRegisterRequest) (domain.Profile, error) {
	p := domain.Profile{CustomerType: domain.CustomerTypeFrequentFlyer, MembershipLevel: domain.MembershipNone}
	p.MilesFlown = req.InitialMiles
	applyMembership(&p)
	return s.addUser(req.RegisterRequest, p)
}

func (s *Store) addUser(req domain.RegisterRequest, p domain.Profile) (domain.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("hash password: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return domain.Profile{}, ErrEmailTaken
	}
	s.nextUserID++
	p.ID = s.nextUserID
	p.Name = req.Name
	p.Email = email
	p.PhoneNumber = req.PhoneNumber
	u := &user{profile: p, passwordHash: hash}
	s.users[email] = u
	s.usersByID[p.ID] = u
	return p, nil
}

func (s *Store) Authenticate(email, password string) (domain.Profile, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	var hash []byte
	var p domain.Profile
	if ok {
		hash, p = u.passwordHash, u.profile
	}
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return domain.Profile{}, ErrInvalidCredentials
	}
	return p, nil
}

func (s *Store) User(id int64) (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[id]
	if !ok {
		return domain.Profile{}, false
	}
	return u.profile, true
}

// Flights returns the flights matching keep, in id order.
func (s *Store) Flights(keep func(domain.Flight) bool) []domain.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		if keep == nil || keep(*f) {
			out = append(out, *f)
		}
	}
	return out
}

func (s *Store) Flight(id int64) (domain.Flight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.flightLocked(id); f != nil {
		return *f, true
	}
	return domain.Flight{}, false
}

func (s *Store) FlightByNumber(number string) (domain.Flight, bool) {
	for _, f := range s.Flights(func(f domain.Flight) bool { return strings.EqualFold(f.FlightNumber, number) }) {
		return f, true
	}
	return domain.Flight{}, false
}

func (s *Store) CreateBooking(userID int64, req domain.BookingRequest) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByID[userID]
	if !ok {
		return domain.Booking{}, ErrInvalidCredentials
	}
	f := s.flightLocked(req.FlightID)
	if f == nil {
		return domain.Booking{}, ErrFlightNotFound
	}
	if f.AvailableSeats <= 0 {
		return domain.Booking{}, ErrNoSeats
	}
	f.AvailableSeats--

	discount := f.BasePrice * float64(u.profile.DiscountPercent) / 100
	s.nextBookID++
	b := &booking{
		userID: userID,
		flight: f.ID,
		record: domain.Booking{
			ID:               s.nextBookID,
			BookingReference: newReference(),
			FlightNumber:     f.FlightNumber,
			Origin:           f.Origin,
			Destination:      f.Destination,
			DepartureTime:    f.DepartureTime,
			PassengerName:    strings.TrimSpace(req.PassengerFirstName + " " + req.PassengerLastName),
			SeatNumber:       strings.ToUpper(req.SeatNumber),
			TotalPrice:       f.BasePrice - discount,
			DiscountAmount:   discount,
			Status:           domain.BookingStatusConfirmed,
			BookingDate:      s.now().UTC().Format("2006-01-02T15:04:05"),
		},
	}
	s.bookings = append(s.bookings, b)

	if u.profile.IsFrequentFlyer() {
		u.profile.MilesFlown += FrequentFlyerMiles
		applyMembership(&u.profile)
	}
	return b.record, nil
}

// Bookings returns the user's bookings, newest first.
func (s *Store) Bookings(userID int64, activeOnly bool) []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if b.userID != userID || (activeOnly && !b.record.IsActive()) {
			continue
		}
		out = append(out, b.record)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) Booking(userID int64, match func(domain.Booking) bool) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(userID, match)
	if b == nil {
		return domain.Booking{}, ErrBookingNotFound
	}
	return b.record, nil
}

// CancelBooking cancels the user's booking selected by match and frees its seat.
func (s *Store) CancelBooking(userID int64, match func(domain.Booking) bool) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookingLocked(userID, match)
	if b == nil {
		return domain.Booking{}, ErrBookingNotFound
	}
	if b.record.IsCancelled() {
		return domain.Booking{}, ErrAlreadyCancelled
	}
	b.record.Status = domain.BookingStatusCancelled
	if f := s.flightLocked(b.flight); f != nil && f.AvailableSeats < f.Capacity {
		f.AvailableSeats++
	}
	return b.record, nil
}

func (s *Store) Stats(userID int64) domain.BookingStats {
	var stats domain.BookingStats
	for _, b := range s.Bookings(userID, false) {
		stats.TotalBookings++
		switch b.Status {
		case domain.BookingStatusConfirmed:
			stats.ConfirmedBookings++
		case domain.BookingStatusCancelled:
			stats.CancelledBookings++
		}
		if !b.IsCancelled() {
			stats.TotalSpent += b.TotalPrice
		}
	}
	return stats
}

func (s *Store) flightLocked(id int64) *domain.Flight {
	for _, f := range s.flights {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (s *Store) bookingLocked(userID int64, match func(domain.Booking) bool) *booking {
	for _, b := range s.bookings {
		if b.userID == userID && match(b.record) {
			return b
		}
	}
	return nil
}

func ByID(id int64) func(domain.Booking) bool {
	return func(b domain.Booking) bool { return b.ID == id }
}

func ByReference(ref string) func(domain.Booking) bool {
	return func(b domain.Booking) bool { return strings.EqualFold(b.BookingReference, ref) }
}

// applyMembership derives level and discount from miles for frequent flyers.
func applyMembership(p *domain.Profile) {
	if !p.IsFrequentFlyer() {
		p.DiscountPercent = 0
		return
	}
	switch {
	case p.MilesFlown >= 50000:
		p.MembershipLevel, p.DiscountPercent = domain.MembershipPlatinum, 20
	case p.MilesFlown >= 25000:
		p.MembershipLevel, p.DiscountPercent = domain.MembershipGold, 15
	case p.MilesFlown > 0:
		p.MembershipLevel, p.DiscountPercent = domain.MembershipSilver, 10
	default:
		p.MembershipLevel, p.DiscountPercent = domain.MembershipNone, 0
	}
}

// newReference returns "TXR" followed by nine digits.
func newReference() string {
	id := uuid.New()
	var n uint64
	for _, b := range id[:8] {
		n = n<<8 | uint64(b)
	}
	return fmt.Sprintf("TXR%09d", n%1_000_000_000)
}
