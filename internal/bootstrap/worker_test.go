package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/airbooking-client/config"
	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/email"
	"github.com/Domenick1991/airbooking-client/internal/kafka"
	"github.com/Domenick1991/airbooking-client/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, event kafka.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func countEvents(t *testing.T, reg *prometheus.Registry, result string) int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0
	for _, f := range families {
		if f.GetName() != "airbooking_client_worker_events_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					total += int(metric.GetCounter().GetValue())
				}
			}
		}
	}
	return total
}

func TestNotifyHandler_SendsEmail(t *testing.T) {
	var out bytes.Buffer
	reg := prometheus.NewRegistry()
	handle := NotifyHandler(email.NewSender(&out, zerolog.Nop()), metrics.New(reg), zerolog.Nop())

	b := domain.Booking{ID: 3, BookingReference: "TXR123", FlightNumber: "TX101", Origin: "Dallas", Destination: "Austin", PassengerName: "Jane Smith", TotalPrice: 169.99, Status: domain.BookingStatusConfirmed}
	require.NoError(t, handle(context.Background(), kafka.NewBookingEvent(kafka.EventBookingCreated, b, "jane@example.com")))

	assert.Contains(t, out.String(), "To: jane@example.com")
	assert.Contains(t, out.String(), "Subject: Booking TXR123 confirmed")
	assert.Equal(t, 1, countEvents(t, reg, "sent"))
}

func TestNotifyHandler_SkipsAndFailuresDoNotStop(t *testing.T) {
	reg := prometheus.NewRegistry()
	n := &MockNotifier{}
	handle := NotifyHandler(n, metrics.New(reg), zerolog.Nop())

	noMail := kafka.BookingEvent{Type: kafka.EventBookingCancelled, BookingReference: "A"}
	broken := kafka.BookingEvent{Type: kafka.EventBookingCreated, BookingReference: "B", Email: "x@example.com"}
	n.On("Send", mock.Anything, noMail).Return(email.ErrNoRecipient).Once()
	n.On("Send", mock.Anything, broken).Return(errors.New("relay down")).Once()

	assert.NoError(t, handle(context.Background(), noMail))
	assert.NoError(t, handle(context.Background(), broken))

	assert.Equal(t, 1, countEvents(t, reg, "skipped"))
	assert.Equal(t, 1, countEvents(t, reg, "failed"))
	series, err := testutil.GatherAndCount(reg, "airbooking_client_worker_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
	n.AssertExpectations(t)
}

func TestNotifyHandler_StopsOnCancel(t *testing.T) {
	n := &MockNotifier{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.On("Send", mock.Anything, mock.Anything).Return(context.Canceled).Once()

	err := NotifyHandler(n, nil, zerolog.Nop())(ctx, kafka.BookingEvent{Type: kafka.EventBookingCreated})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWorker_RequiresKafka(t *testing.T) {
	err := RunWorker(context.Background(), config.Default(), &bytes.Buffer{}, zerolog.Nop())
	assert.Error(t, err)
}
