package transport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Domenick1991/airbooking-client/internal/domain"
)

func (c *Client) listBookings(ctx context.Context, op, path string) ([]domain.Booking, error) {
	var out []domain.Booking
	if err := c.do(ctx, request{op: op, method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMyBookings returns every booking of the logged in user, cancelled ones included.
func (c *Client) ListMyBookings(ctx context.Context) ([]domain.Booking, error) {
	return c.listBookings(ctx, "listMyBookings", "/api/bookings")
}

func (c *Client) ListActiveBookings(ctx context.Context) ([]domain.Booking, error) {
	return c.listBookings(ctx, "listActiveBookings", "/api/bookings/active")
}

func (c *Client) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return c.booking(ctx, "getBooking", http.MethodGet, "/api/bookings/"+strconv.FormatInt(id, 10), nil)
}

func (c *Client) GetBookingByReference(ctx context.Context, ref string) (domain.Booking, error) {
	return c.booking(ctx, "getBookingByReference", http.MethodGet, "/api/bookings/reference"+segment(ref), nil)
}

func (c *Client) CreateBooking(ctx context.Context, req domain.BookingRequest) (domain.Booking, error) {
	return c.booking(ctx, "createBooking", http.MethodPost, "/api/bookings", req)
}

// CancelBooking returns the booking as the service stored it after cancellation.
func (c *Client) CancelBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return c.booking(ctx, "cancelBooking", http.MethodDelete, "/api/bookings/"+strconv.FormatInt(id, 10), nil)
}

func (c *Client) CancelBookingByReference(ctx context.Context, ref string) (domain.Booking, error) {
	return c.booking(ctx, "cancelBookingByReference", http.MethodDelete, "/api/bookings/reference"+segment(ref), nil)
}

func (c *Client) BookingStats(ctx context.Context) (domain.BookingStats, error) {
	var out domain.BookingStats
	err := c.do(ctx, request{op: "bookingStats", method: http.MethodGet, path: "/api/bookings/stats"}, &out)
	return out, err
}

func (c *Client) booking(ctx context.Context, op, method, path string, body any) (domain.Booking, error) {
	var out domain.Booking
	err := c.do(ctx, request{op: op, method: method, path: path, body: body}, &out)
	return out, err
}
