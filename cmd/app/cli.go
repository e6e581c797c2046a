package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/airbooking-client/internal/apierr"
	"github.com/Domenick1991/airbooking-client/internal/bootstrap"
	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/service/auth"
	"github.com/Domenick1991/airbooking-client/internal/service/booking"
	"github.com/Domenick1991/airbooking-client/internal/service/tabs"
	"github.com/Domenick1991/airbooking-client/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNotLoggedIn = errors.New("Please login first")

type cli struct {
	in     *bufio.Reader
	stdin  *os.File
	out    io.Writer
	newApp func(ctx context.Context) (*bootstrap.App, error)
	app    *bootstrap.App
}

func newCLI(in io.Reader, out io.Writer, newApp func(ctx context.Context) (*bootstrap.App, error)) *cli {
	c := &cli{in: bufio.NewReader(in), out: out, newApp: newApp}
	if f, ok := in.(*os.File); ok {
		c.stdin = f
	}
	return c
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "airbooking",
		Short:         "Texas airport booking client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.newApp(cmd.Context())
			if err != nil {
				return err
			}
			c.app = app
			return nil
		},
	}
	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.registerCmd(),
		c.whoamiCmd(),
		c.flightsCmd(),
		c.flightCmd(),
		c.bookingsCmd(),
		c.bookingCmd(),
		c.bookCmd(),
		c.cancelCmd(),
		c.statsCmd(),
	)
	return root
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = c.prompt("Email: ")
			}
			if password == "" {
				password = c.promptSecret("Password: ")
			}
			profile, err := c.app.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			c.success("Welcome, %s!", profile.Name)
			fmt.Fprintln(c.out, profile.Summary())
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			c.success("Logged out")
			return nil
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	var in auth.RegisterInput
	var frequentFlyer bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				in.Password = c.promptSecret("Password: ")
			}
			register := c.app.Auth.Register
			if frequentFlyer {
				register = c.app.Auth.RegisterFrequentFlyer
			}
			profile, err := register(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.success("Registration successful! Please login.")
			fmt.Fprintln(c.out, profile.Summary())
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().BoolVar(&frequentFlyer, "frequent-flyer", false, "join the frequent flyer program")
	cmd.Flags().IntVar(&in.InitialMiles, "miles", 0, "miles already flown (frequent flyers)")
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := c.app.Auth.Current(cmd.Context())
			if !status.LoggedIn || status.Profile == nil {
				fmt.Fprintln(c.out, "Not logged in")
				return nil
			}
			p := status.Profile
			fmt.Fprintf(c.out, "%s <%s>\n%s\n", p.Name, p.Email, p.Summary())
			if p.IsFrequentFlyer() {
				fmt.Fprintf(c.out, "Miles: %d (%s)\n", p.MilesFlown, p.DiscountText())
			}
			if token, ok := c.app.Session.Token(cmd.Context()); ok {
				if exp := session.TokenExpiry(token); !exp.IsZero() {
					fmt.Fprintf(c.out, "Session expires %s\n", exp.Local().Format(time.RFC1123))
				}
			}
			return nil
		},
	}
}

func (c *cli) flightsCmd() *cobra.Command {
	var all, available bool
	var origin, destination string
	cmd := &cobra.Command{
		Use:   "flights",
		Short: "List flights (available ones by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := c.app.Flights
			var list []domain.Flight
			var err error
			switch {
			case origin != "" && destination != "" && available:
				list, err = svc.AvailableByRoute(ctx, origin, destination)
			case origin != "" && destination != "":
				list, err = svc.ByRoute(ctx, origin, destination)
			case origin != "":
				list, err = svc.ByOrigin(ctx, origin)
			case destination != "":
				list, err = svc.ByDestination(ctx, destination)
			case all:
				list, err = svc.All(ctx)
			default:
				return c.showTab(ctx, tabs.TabFlights)
			}
			if err != nil {
				return err
			}
			printFlights(c.out, list)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include full flights")
	cmd.Flags().BoolVar(&available, "available", false, "only flights with free seats (with --origin and --destination)")
	cmd.Flags().StringVar(&origin, "origin", "", "departure city")
	cmd.Flags().StringVar(&destination, "destination", "", "arrival city")
	return cmd
}

func (c *cli) flightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flight <id|number>",
		Short: "Show one flight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.lookupFlight(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printFlights(c.out, []domain.Flight{f})
			return nil
		},
	}
}

func (c *cli) bookingsCmd() *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List your bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			if !active {
				return c.showTab(cmd.Context(), tabs.TabBookings)
			}
			list, err := c.app.API.ListActiveBookings(cmd.Context())
			if err != nil {
				return err
			}
			printBookings(c.out, list)
			return nil
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "only confirmed bookings")
	return cmd
}

func (c *cli) bookingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "booking <id|reference>",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			b, err := c.lookupBooking(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printBookings(c.out, []domain.Booking{b})
			return nil
		},
	}
}

func (c *cli) bookCmd() *cobra.Command {
	var form booking.Form
	cmd := &cobra.Command{
		Use:   "book <flight id|number>",
		Short: "Book a seat on a flight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, ok := c.app.Session.User(ctx)
			if !ok {
				return errNotLoggedIn
			}
			flight, err := c.lookupFlight(ctx, args[0])
			if err != nil {
				return err
			}

			coord := c.app.Tabs(&terminalView{out: c.out})
			wf, err := coord.BeginBooking(flight, profile, booking.WithObserver(func(s booking.Snapshot) {
				if s.State == booking.StateSubmitting {
					fmt.Fprintln(c.out, "Booking...")
				}
			}))
			if err != nil {
				return err
			}

			filled := wf.PrefillForm()
			mergeForm(&filled, form)

			q := wf.Quote()
			fmt.Fprintf(c.out, "%s  %s  %s\n%s\n", flight.FlightNumber, flight.Route(), flight.DepartureTime, q.BaseText())
			if d := q.DiscountText(); d != "" {
				fmt.Fprintln(c.out, color.GreenString(d))
			}
			fmt.Fprintln(c.out, q.TotalText())

			created, err := wf.Submit(ctx, filled)
			if err != nil {
				return errors.New(booking.FailureMessage(err))
			}
			c.success("%s", booking.SuccessMessage(created))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "passenger first name (defaults to your profile)")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "passenger last name (defaults to your profile)")
	cmd.Flags().StringVar(&form.Age, "age", "", "passenger age")
	cmd.Flags().StringVar(&form.SeatNumber, "seat", "", "seat number, e.g. 12A")
	cmd.Flags().StringVar(&form.SeatPreference, "preference", "", "WINDOW, AISLE, MIDDLE or NO_PREFERENCE")
	return cmd
}

func (c *cli) cancelCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cancel <id|reference>",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.requireLogin(ctx); err != nil {
				return err
			}
			b, err := c.lookupBooking(ctx, args[0])
			if err != nil {
				return err
			}

			view := &terminalView{out: c.out, quiet: true}
			opts := []tabs.Option{tabs.WithActiveTab(tabs.TabBookings)}
			if !yes {
				opts = append(opts, tabs.WithConfirmer(confirmFunc(c.confirmCancel)))
			}
			coord := c.app.Tabs(view, opts...)
			cancelled, err := coord.CancelBooking(ctx, b)
			coord.Wait()
			switch {
			case errors.Is(err, tabs.ErrCancelDeclined):
				fmt.Fprintln(c.out, "Kept booking", b.BookingReference)
				return nil
			case err != nil:
				return errors.New(apierr.MessageOr(err, "Cancel failed"))
			}
			c.success("Booking %s cancelled", cancelled.BookingReference)
			if refreshed := coord.Bookings(); refreshed != nil {
				fmt.Fprintf(c.out, "Active bookings: %d\n", countActive(refreshed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func countActive(bookings []domain.Booking) int {
	n := 0
	for _, b := range bookings {
		if b.IsActive() {
			n++
		}
	}
	return n
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show booking statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd.Context()); err != nil {
				return err
			}
			s, err := c.app.API.BookingStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Bookings: %d (confirmed %d, cancelled %d)\nTotal spent: %s\n",
				s.TotalBookings, s.ConfirmedBookings, s.CancelledBookings, domain.FormatPrice(s.TotalSpent))
			return nil
		},
	}
}

// showTab loads one tab through the coordinator and prints the result.
func (c *cli) showTab(ctx context.Context, tab tabs.Tab) error {
	view := &terminalView{out: c.out}
	coord := c.app.Tabs(view)
	coord.SelectTab(ctx, tab)
	coord.Wait()
	return view.Err()
}

func (c *cli) requireLogin(ctx context.Context) error {
	if !c.app.Session.IsLoggedIn(ctx) {
		return errNotLoggedIn
	}
	return nil
}

func (c *cli) lookupFlight(ctx context.Context, arg string) (domain.Flight, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return c.app.Flights.Get(ctx, id)
	}
	return c.app.Flights.ByNumber(ctx, arg)
}

func (c *cli) lookupBooking(ctx context.Context, arg string) (domain.Booking, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return c.app.API.GetBooking(ctx, id)
	}
	return c.app.API.GetBookingByReference(ctx, strings.ToUpper(arg))
}

func (c *cli) confirmCancel(_ context.Context, b domain.Booking) bool {
	answer := c.prompt(fmt.Sprintf("Cancel booking %s (%s)? [y/N] ", b.BookingReference, b.Route()))
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func (c *cli) prompt(label string) string {
	fmt.Fprint(c.out, label)
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (c *cli) promptSecret(label string) string {
	if c.stdin == nil || !term.IsTerminal(int(c.stdin.Fd())) {
		return c.prompt(label)
	}
	fmt.Fprint(c.out, label)
	secret, _ := term.ReadPassword(int(c.stdin.Fd()))
	fmt.Fprintln(c.out)
	return string(secret)
}

func (c *cli) success(format string, args ...interface{}) {
	fmt.Fprintln(c.out, color.GreenString(format, args...))
}

type confirmFunc func(ctx context.Context, b domain.Booking) bool

func (f confirmFunc) ConfirmCancel(ctx context.Context, b domain.Booking) bool { return f(ctx, b) }

// mergeForm overrides the prefilled fields with the ones given on the command line.
func mergeForm(dst *booking.Form, src booking.Form) {
	if src.FirstName != "" {
		dst.FirstName = src.FirstName
	}
	if src.LastName != "" {
		dst.LastName = src.LastName
	}
	if src.Age != "" {
		dst.Age = src.Age
	}
	if src.SeatNumber != "" {
		dst.SeatNumber = src.SeatNumber
	}
	if src.SeatPreference != "" {
		dst.SeatPreference = src.SeatPreference
	}
}

// errorText renders err the way the booking screens word failures.
func errorText(err error) string {
	if e, ok := apierr.As(err); ok && e.Kind == apierr.KindAuth && e.Message == "" {
		return "Session expired, please login again"
	}
	return apierr.MessageOr(err, err.Error())
}
