package transport

import (
	"context"
	"net/http"

	"github.com/Domenick1991/airbooking-client/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	var out domain.LoginResult
	err := c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   loginRequest{Email: email, Password: password},
	}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (domain.Profile, error) {
	var out domain.Profile
	err := c.do(ctx, request{
		op:     "register",
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   req,
	}, &out)
	return out, err
}

func (c *Client) RegisterFrequentFlyer(ctx context.Context, req domain.FrequentFlyerRegisterRequest) (domain.Profile, error) {
	var out domain.Profile
	err := c.do(ctx, request{
		op:     "registerFrequentFlyer",
		method: http.MethodPost,
		path:   "/api/auth/register/frequent-flyer",
		body:   req,
	}, &out)
	return out, err
}
