// Package auth signs users in and out and keeps the stored session in
// step with the service.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/airbooking-client/internal/apierr"
	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/logging"
	"github.com/rs/zerolog"
)

const (
	ErrMissingCredentials = "Please fill all fields"
	ErrMissingFields      = "Please fill all required fields"
	ErrInvalidCredentials = "Invalid email or password"
	ErrRegistrationFailed = "Registration failed"
)

type AuthUseCase interface {
	Login(ctx context.Context, email, password string) (domain.Profile, error)
	Register(ctx context.Context, input RegisterInput) (domain.Profile, error)
	RegisterFrequentFlyer(ctx context.Context, input RegisterInput) (domain.Profile, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) Status
}

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domain.LoginResult, error)
	Register(ctx context.Context, req domain.RegisterRequest) (domain.Profile, error)
	RegisterFrequentFlyer(ctx context.Context, req domain.FrequentFlyerRegisterRequest) (domain.Profile, error)
}

type SessionStore interface {
	SaveSession(ctx context.Context, token string, profile domain.Profile) error
	User(ctx context.Context) (*domain.Profile, bool)
	IsLoggedIn(ctx context.Context) bool
	Logout(ctx context.Context) error
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// Phone is optional; blank means not provided.
	Phone        string
	InitialMiles int
}

// Status describes the stored session. Profile may be nil while LoggedIn
// is true when the stored profile could not be read.
type Status struct {
	LoggedIn bool
	Profile  *domain.Profile
}

type AuthService struct {
	api     AuthAPI
	session SessionStore
	log     zerolog.Logger
}

func NewAuthService(api AuthAPI, session SessionStore, log zerolog.Logger) *AuthService {
	return &AuthService{api: api, session: session, log: logging.Component(log, "auth")}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Profile, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" {
		return domain.Profile{}, apierr.Validation("email", ErrMissingCredentials)
	}
	if password == "" {
		return domain.Profile{}, apierr.Validation("password", ErrMissingCredentials)
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		if e, ok := apierr.As(err); ok && e.Kind == apierr.KindAuth && e.Message == "" {
			e.Message = ErrInvalidCredentials
		}
		return domain.Profile{}, err
	}
	if res.Token == "" {
		return domain.Profile{}, apierr.Transport("login", fmt.Errorf("response carried no token"))
	}

	if err := s.session.SaveSession(ctx, res.Token, res.User); err != nil {
		return domain.Profile{}, fmt.Errorf("login: %w", err)
	}
	s.log.Info().Int64("user_id", res.User.ID).Msg("logged in")
	return res.User, nil
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.Profile, error) {
	req, err := registerRequest(input)
	if err != nil {
		return domain.Profile{}, err
	}
	profile, err := s.api.Register(ctx, req)
	if err != nil {
		return domain.Profile{}, withFallback(err, ErrRegistrationFailed)
	}
	return profile, nil
}

func (s *AuthService) RegisterFrequentFlyer(ctx context.Context, input RegisterInput) (domain.Profile, error) {
	req, err := registerRequest(input)
	if err != nil {
		return domain.Profile{}, err
	}
	if input.InitialMiles < 0 {
		return domain.Profile{}, apierr.Validation("initialMiles", "Initial miles cannot be negative")
	}
	profile, err := s.api.RegisterFrequentFlyer(ctx, domain.FrequentFlyerRegisterRequest{
		RegisterRequest: req,
		InitialMiles:    input.InitialMiles,
	})
	if err != nil {
		return domain.Profile{}, withFallback(err, ErrRegistrationFailed)
	}
	return profile, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.session.Logout(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("logged out")
	return nil
}

func (s *AuthService) Current(ctx context.Context) Status {
	if !s.session.IsLoggedIn(ctx) {
		return Status{}
	}
	profile, _ := s.session.User(ctx)
	return Status{LoggedIn: true, Profile: profile}
}

func registerRequest(input RegisterInput) (domain.RegisterRequest, error) {
	req := domain.RegisterRequest{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Password: strings.TrimSpace(input.Password),
	}
	switch {
	case req.Name == "":
		return req, apierr.Validation("name", ErrMissingFields)
	case req.Email == "":
		return req, apierr.Validation("email", ErrMissingFields)
	case req.Password == "":
		return req, apierr.Validation("password", ErrMissingFields)
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		req.PhoneNumber = &phone
	}
	return req, nil
}

func withFallback(err error, fallback string) error {
	if e, ok := apierr.As(err); ok && e.Kind != apierr.KindTransport && e.Message == "" {
		e.Message = fallback
	}
	return err
}

var _ AuthUseCase = (*AuthService)(nil)
