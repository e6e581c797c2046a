package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/airbooking-client/config"
	"github.com/Domenick1991/airbooking-client/internal/bootstrap"
	"github.com/Domenick1991/airbooking-client/internal/fakeairport"
	"github.com/Domenick1991/airbooking-client/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	cfg     *config.Config
	backend *session.MemoryBackend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := fakeairport.NewStore(bcrypt.MinCost)
	require.NoError(t, store.Seed())
	srv := fakeairport.NewServer(":0", store, fakeairport.NewTokens("cli", time.Hour), zerolog.Nop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.API.BaseURL = ts.URL
	return &harness{cfg: cfg, backend: session.NewMemoryBackend()}
}

// run executes one command line against a fresh CLI sharing the session.
func (h *harness) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := newCLI(strings.NewReader(input), &out, func(ctx context.Context) (*bootstrap.App, error) {
		return bootstrap.New(ctx, h.cfg, zerolog.Nop(), bootstrap.WithSessionBackend(h.backend))
	})
	root := c.root()
	root.SetArgs(args)
	root.SetOut(&out)
	err := root.ExecuteContext(context.Background())
	c.close()
	return out.String(), err
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	out, err = h.run(t, "password123\n", "login", "--email", "jane@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Jane Smith!")
	assert.Contains(t, out, "GOLD Member • 15% discount")

	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "jane@example.com")
	assert.Contains(t, out, "Miles: 30000 (15% off)")
	assert.Contains(t, out, "Session expires")

	_, err = h.run(t, "", "logout")
	require.NoError(t, err)
	_, err = h.run(t, "", "bookings")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_LoginFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "login", "-e", "john@example.com", "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", errorText(err))
}

func TestCLI_Flights(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "flights")
	require.NoError(t, err)
	assert.Contains(t, out, "TX101")
	assert.Contains(t, out, "Dallas → Austin")
	assert.Contains(t, out, "150/150 seats")

	out, err = h.run(t, "", "flights", "--origin", "austin", "--destination", "dallas")
	require.NoError(t, err)
	assert.Contains(t, out, "TX103")
	assert.NotContains(t, out, "TX101")

	out, err = h.run(t, "", "flight", "tx110")
	require.NoError(t, err)
	assert.Contains(t, out, "Lubbock → Dallas")

	_, err = h.run(t, "", "flights", "--destination", "  ")
	require.Error(t, err)
	assert.Equal(t, "Please enter destination", errorText(err))
}

func TestCLI_BookAndCancel(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "login", "-e", "jane@example.com", "-p", "password123")
	require.NoError(t, err)

	out, err := h.run(t, "", "book", "TX101", "--age", "34", "--seat", "4c", "--preference", "aisle")
	require.NoError(t, err)
	assert.Contains(t, out, "Base Price: $199.99")
	assert.Contains(t, out, "Discount (15%): -$30.00")
	assert.Contains(t, out, "Total: $169.99")
	assert.Contains(t, out, "Booking confirmed! Ref: TXR")

	out, err = h.run(t, "", "bookings", "--active")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Smith")
	assert.Contains(t, out, "4C")

	out, err = h.run(t, "n\n", "cancel", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Kept booking")

	out, err = h.run(t, "y\n", "cancel", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")
	assert.Contains(t, out, "Active bookings: 0")

	_, err = h.run(t, "", "cancel", "1", "--yes")
	require.Error(t, err)
	assert.Equal(t, "Only confirmed bookings can be cancelled", errorText(err))

	out, err = h.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Bookings: 1 (confirmed 0, cancelled 1)")
	assert.Contains(t, out, "Total spent: $0.00")
}

func TestCLI_BookValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "login", "-e", "john@example.com", "-p", "password123")
	require.NoError(t, err)

	_, err = h.run(t, "", "book", "1", "--age", "abc", "--seat", "1A")
	require.Error(t, err)
	assert.Equal(t, "Please enter a valid age", errorText(err))

	out, err := h.run(t, "", "bookings")
	require.NoError(t, err)
	assert.Contains(t, out, "No bookings yet")
}

func TestCLI_Register(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "register", "--name", "Pat Lee", "--email", "pat@example.com",
		"--password", "secret1", "--frequent-flyer", "--miles", "26000")
	require.NoError(t, err)
	assert.Contains(t, out, "Registration successful")
	assert.Contains(t, out, "GOLD Member")

	_, err = h.run(t, "", "register", "--name", "Pat Lee", "--email", "pat@example.com", "--password", "secret1")
	require.Error(t, err)
	assert.Equal(t, "Email already registered", errorText(err))
}
