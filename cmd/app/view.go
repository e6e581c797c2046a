package main

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/reconcile"
	"github.com/Domenick1991/airbooking-client/internal/service/tabs"
)

// terminalView prints the lists the coordinator pushes and keeps the last
// error for the command to report. quiet suppresses list output.
type terminalView struct {
	out   io.Writer
	quiet bool

	mu  sync.Mutex
	err error
}

func (v *terminalView) ApplyFlights(flights []domain.Flight, _ reconcile.FlightResult) {
	if !v.quiet {
		printFlights(v.out, flights)
	}
}

func (v *terminalView) ApplyBookings(bookings []domain.Booking, _ reconcile.BookingResult) {
	if !v.quiet {
		printBookings(v.out, bookings)
	}
}

func (v *terminalView) ShowError(_ tabs.Tab, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
}

// Err returns the last error shown, if any.
func (v *terminalView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *terminalView) SetLoading(tabs.Tab, bool) {}

func printFlights(out io.Writer, flights []domain.Flight) {
	if len(flights) == 0 {
		fmt.Fprintln(out, "No flights found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFLIGHT\tROUTE\tDEPARTS\tSEATS\tPRICE")
	for _, f := range flights {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", f.ID, f.FlightNumber, f.Route(), f.DepartureTime, f.SeatsText(), f.FormattedPrice())
	}
	w.Flush()
}

func printBookings(out io.Writer, bookings []domain.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(out, "No bookings yet")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREF\tFLIGHT\tROUTE\tPASSENGER\tSEAT\tTOTAL\tSTATUS")
	for _, b := range bookings {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.BookingReference, b.FlightNumber, b.Route(), b.PassengerName, b.SeatNumber, b.FormattedPrice(), b.Status)
	}
	w.Flush()
}
