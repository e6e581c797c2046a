package transport

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const HeaderRequestID = "X-Request-ID"

type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestID) != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(HeaderRequestID, uuid.NewString())
	return t.base.RoundTrip(r)
}

// bearerTransport reads the token on every request so that a login or
// logout takes effect on the very next call.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.tokens == nil {
		return t.base.RoundTrip(req)
	}
	token, ok := t.tokens.Token(req.Context())
	if !ok {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(r)
	return t.base.RoundTrip(r)
}

type loggingTransport struct {
	base http.RoundTripper
	log  zerolog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		t.log.Warn().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("request_id", req.Header.Get(HeaderRequestID)).
			Dur("elapsed", elapsed).
			Msg("request failed")
		return nil, err
	}

	ev := t.log.Debug()
	if resp.StatusCode >= 400 {
		ev = t.log.Warn()
	}
	ev.Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Dur("elapsed", elapsed).
		Msg("request")
	return resp, nil
}
