package transport

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Domenick1991/airbooking-client/internal/domain"
)

func (c *Client) listFlights(ctx context.Context, op, path string, query url.Values) ([]domain.Flight, error) {
	var out []domain.Flight
	if err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAllFlights(ctx context.Context) ([]domain.Flight, error) {
	return c.listFlights(ctx, "listAllFlights", "/api/flights", nil)
}

func (c *Client) ListAvailableFlights(ctx context.Context) ([]domain.Flight, error) {
	return c.listFlights(ctx, "listAvailableFlights", "/api/flights/available", nil)
}

func (c *Client) SearchFlightsByDestination(ctx context.Context, destination string) ([]domain.Flight, error) {
	return c.listFlights(ctx, "searchFlightsByDestination", "/api/flights/search/destination"+segment(destination), nil)
}

func (c *Client) SearchFlightsByOrigin(ctx context.Context, origin string) ([]domain.Flight, error) {
	return c.listFlights(ctx, "searchFlightsByOrigin", "/api/flights/search/origin"+segment(origin), nil)
}

func (c *Client) SearchFlightsByRoute(ctx context.Context, origin, destination string) ([]domain.Flight, error) {
	return c.listFlights(ctx, "searchFlightsByRoute", "/api/flights/search/route", routeQuery(origin, destination))
}

func (c *Client) SearchAvailableByRoute(ctx context.Context, origin, destination string) ([]domain.Flight, error) {
	return c.listFlights(ctx, "searchAvailableByRoute", "/api/flights/search/available", routeQuery(origin, destination))
}

func (c *Client) GetFlight(ctx context.Context, id int64) (domain.Flight, error) {
	var out domain.Flight
	err := c.do(ctx, request{
		op:     "getFlight",
		method: http.MethodGet,
		path:   "/api/flights/" + strconv.FormatInt(id, 10),
	}, &out)
	return out, err
}

func (c *Client) GetFlightByNumber(ctx context.Context, number string) (domain.Flight, error) {
	var out domain.Flight
	err := c.do(ctx, request{
		op:     "getFlightByNumber",
		method: http.MethodGet,
		path:   "/api/flights/number" + segment(number),
	}, &out)
	return out, err
}

func routeQuery(origin, destination string) url.Values {
	return url.Values{"origin": {origin}, "destination": {destination}}
}
