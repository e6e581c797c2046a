package flights

import (
	"context"
	"strings"

	"github.com/Domenick1991/airbooking-client/internal/apierr"
	"github.com/Domenick1991/airbooking-client/internal/domain"
)

const ErrNoSeats = "No available seats on this flight"

type FlightUseCase interface {
	Available(ctx context.Context) ([]domain.Flight, error)
	All(ctx context.Context) ([]domain.Flight, error)
	ByDestination(ctx context.Context, destination string) ([]domain.Flight, error)
	ByOrigin(ctx context.Context, origin string) ([]domain.Flight, error)
	ByRoute(ctx context.Context, origin, destination string) ([]domain.Flight, error)
	AvailableByRoute(ctx context.Context, origin, destination string) ([]domain.Flight, error)
	ByNumber(ctx context.Context, number string) (domain.Flight, error)
	Get(ctx context.Context, id int64) (domain.Flight, error)
	CheckBookable(flight domain.Flight) error
}

// FlightsAPI is the part of the transport client the catalog reads from.
type FlightsAPI interface {
	ListAllFlights(ctx context.Context) ([]domain.Flight, error)
	ListAvailableFlights(ctx context.Context) ([]domain.Flight, error)
	GetFlight(ctx context.Context, id int64) (domain.Flight, error)
	GetFlightByNumber(ctx context.Context, number string) (domain.Flight, error)
	SearchFlightsByDestination(ctx context.Context, destination string) ([]domain.Flight, error)
	SearchFlightsByOrigin(ctx context.Context, origin string) ([]domain.Flight, error)
	SearchFlightsByRoute(ctx context.Context, origin, destination string) ([]domain.Flight, error)
	SearchAvailableByRoute(ctx context.Context, origin, destination string) ([]domain.Flight, error)
}

type FlightService struct {
	api FlightsAPI
}

func NewFlightService(api FlightsAPI) *FlightService {
	return &FlightService{api: api}
}

func (s *FlightService) Available(ctx context.Context) ([]domain.Flight, error) {
	return s.api.ListAvailableFlights(ctx)
}

func (s *FlightService) All(ctx context.Context) ([]domain.Flight, error) {
	return s.api.ListAllFlights(ctx)
}

func (s *FlightService) ByDestination(ctx context.Context, destination string) ([]domain.Flight, error) {
	destination, err := required("destination", destination)
	if err != nil {
		return nil, err
	}
	return s.api.SearchFlightsByDestination(ctx, destination)
}

func (s *FlightService) ByOrigin(ctx context.Context, origin string) ([]domain.Flight, error) {
	origin, err := required("origin", origin)
	if err != nil {
		return nil, err
	}
	return s.api.SearchFlightsByOrigin(ctx, origin)
}

func (s *FlightService) ByRoute(ctx context.Context, origin, destination string) ([]domain.Flight, error) {
	origin, destination, err := route(origin, destination)
	if err != nil {
		return nil, err
	}
	return s.api.SearchFlightsByRoute(ctx, origin, destination)
}

func (s *FlightService) AvailableByRoute(ctx context.Context, origin, destination string) ([]domain.Flight, error) {
	origin, destination, err := route(origin, destination)
	if err != nil {
		return nil, err
	}
	return s.api.SearchAvailableByRoute(ctx, origin, destination)
}

func (s *FlightService) ByNumber(ctx context.Context, number string) (domain.Flight, error) {
	number, err := required("flightNumber", number)
	if err != nil {
		return domain.Flight{}, err
	}
	return s.api.GetFlightByNumber(ctx, strings.ToUpper(number))
}

func (s *FlightService) Get(ctx context.Context, id int64) (domain.Flight, error) {
	if id <= 0 {
		return domain.Flight{}, apierr.Validation("id", "Flight ID must be positive")
	}
	return s.api.GetFlight(ctx, id)
}

// CheckBookable gates the booking flow locally; no request is made.
func (s *FlightService) CheckBookable(flight domain.Flight) error {
	if !flight.Bookable() {
		return &apierr.Error{Kind: apierr.KindBusiness, Op: "checkBookable", Message: ErrNoSeats}
	}
	return nil
}

func required(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apierr.Validation(field, "Please enter "+field)
	}
	return v, nil
}

func route(origin, destination string) (string, string, error) {
	origin, err := required("origin", origin)
	if err != nil {
		return "", "", err
	}
	destination, err = required("destination", destination)
	if err != nil {
		return "", "", err
	}
	return origin, destination, nil
}

var _ FlightUseCase = (*FlightService)(nil)
