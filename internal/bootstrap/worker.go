package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/airbooking-client/config"
	"github.com/Domenick1991/airbooking-client/internal/email"
	"github.com/Domenick1991/airbooking-client/internal/kafka"
	"github.com/Domenick1991/airbooking-client/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Notifier interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

// NotifyHandler sends one email per activity event. Failures are counted
// and logged but never stop consumption.
func NotifyHandler(n Notifier, m *metrics.Metrics, log zerolog.Logger) func(context.Context, kafka.BookingEvent) error {
	return func(ctx context.Context, event kafka.BookingEvent) error {
		err := n.Send(ctx, event)
		switch {
		case err == nil:
			m.IncEvent(event.Type, "sent")
		case errors.Is(err, email.ErrNoRecipient):
			m.IncEvent(event.Type, "skipped")
			log.Debug().Str("reference", event.BookingReference).Msg("event without recipient")
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			m.IncEvent(event.Type, "failed")
			log.Error().Err(err).Str("type", event.Type).Str("reference", event.BookingReference).Msg("send email")
		}
		return nil
	}
}

// RunWorker consumes booking activity and mails customers until ctx is
// cancelled. Metrics are served on cfg.Worker.MetricsAddress when set.
func RunWorker(ctx context.Context, cfg *config.Config, out io.Writer, log zerolog.Logger) error {
	if !cfg.Kafka.Enabled() {
		return fmt.Errorf("worker requires kafka.brokers and kafka.activity_topic")
	}

	checkCtx, cancelCheck := context.WithTimeout(ctx, 10*time.Second)
	partitions, checkErr := kafka.CheckConnection(checkCtx, cfg.Kafka.Brokers)
	cancelCheck()
	if checkErr != nil {
		log.Warn().Err(checkErr).Msg("kafka not reachable yet, the consumer will keep retrying")
	} else {
		log.Info().Int("partitions", partitions).Msg("connected to kafka")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	errCh := make(chan error, 2)
	var metricsSrv *http.Server
	if cfg.Worker.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.Worker.MetricsAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ActivityTopic, log)
	defer consumer.Close()

	sender := email.NewSender(out, log)
	go func() {
		errCh <- consumer.ConsumeEvents(ctx, NotifyHandler(sender, m, log))
	}()
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.ActivityTopic).Msg("worker started")

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
			log.Warn().Err(serr).Msg("shutdown metrics server")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
