package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airbooking-client/config"
	"github.com/Domenick1991/airbooking-client/internal/kafka"
	"github.com/Domenick1991/airbooking-client/internal/metrics"
	"github.com/Domenick1991/airbooking-client/internal/service/auth"
	"github.com/Domenick1991/airbooking-client/internal/service/flights"
	"github.com/Domenick1991/airbooking-client/internal/service/tabs"
	"github.com/Domenick1991/airbooking-client/internal/session"
	"github.com/Domenick1991/airbooking-client/internal/transport"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// App is the wired client: session storage, the API client and the
// services built on top of them.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Session  *session.Manager
	API      *transport.Client
	Auth     *auth.AuthService
	Flights  *flights.FlightService
	Producer *kafka.Producer
	Metrics  *metrics.Metrics

	closers []func() error
}

type Option func(*appOptions)

type appOptions struct {
	backend session.Backend
	metrics *metrics.Metrics
}

// WithSessionBackend bypasses the configured session backend.
func WithSessionBackend(b session.Backend) Option {
	return func(o *appOptions) { o.backend = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *appOptions) { o.metrics = m }
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Log: log, Metrics: o.metrics}

	backend := o.backend
	if backend == nil {
		b, closer, err := NewSessionBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backend = b
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
	}
	app.Session = session.NewManager(backend, log)

	client, err := transport.New(cfg.API.BaseURL, app.Session,
		transport.WithTimeout(cfg.API.Timeout()),
		transport.WithLogger(log),
		transport.WithMetrics(o.metrics),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}
	app.API = client
	app.Auth = auth.NewAuthService(client, app.Session, log)
	app.Flights = flights.NewFlightService(client)

	if cfg.Kafka.Enabled() {
		app.Producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		app.closers = append(app.closers, app.Producer.Close)
	}
	return app, nil
}

// NewSessionBackend opens the backend selected by cfg.Session.Backend. The
// returned closer may be nil.
func NewSessionBackend(ctx context.Context, cfg *config.Config) (session.Backend, func() error, error) {
	ns := cfg.Session.Namespace
	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		return session.NewMemoryBackend(), nil, nil
	case config.SessionBackendFile:
		return session.NewFileBackend(cfg.Session.FilePath, ns), nil, nil
	case config.SessionBackendRedis:
		b := session.NewRedisBackend(cfg.Redis, ns)
		return b, b.Close, nil
	case config.SessionBackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		b := session.NewPostgresBackend(pool, ns)
		if err := b.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return b, func() error { pool.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// Tabs builds a coordinator for view, publishing booking activity when
// Kafka is configured.
func (a *App) Tabs(view tabs.View, opts ...tabs.Option) *tabs.Coordinator {
	base := []tabs.Option{tabs.WithLogger(a.Log)}
	if a.Producer != nil {
		base = append(base, tabs.WithEvents(a.Producer, a.Config.Kafka.ActivityTopic, a.userEmail))
	}
	return tabs.New(a.Flights, a.API, view, append(base, opts...)...)
}

func (a *App) userEmail(ctx context.Context) string {
	if p, ok := a.Session.User(ctx); ok {
		return p.Email
	}
	return ""
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}
