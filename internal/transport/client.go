// Package transport talks JSON over HTTP to the booking service. Every
// request carries the session bearer token when one is stored.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/airbooking-client/internal/apierr"
	"github.com/Domenick1991/airbooking-client/internal/logging"
	"github.com/Domenick1991/airbooking-client/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 4 << 20
)

// TokenSource yields the bearer token for the next request. ok=false
// sends the request without credentials.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
	metrics *metrics.Metrics
}

type Option func(*options)

type options struct {
	timeout time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
	base    http.RoundTripper
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRoundTripper replaces the network transport at the bottom of the chain.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	o := options{timeout: DefaultTimeout, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.base == nil {
		o.base = newBaseTransport(o.timeout)
	}
	log := logging.Component(o.log, "transport")

	var rt http.RoundTripper = &loggingTransport{base: o.base, log: log}
	rt = &bearerTransport{base: rt, tokens: tokens}
	rt = &requestIDTransport{base: rt}

	return &Client{
		baseURL: u.String(),
		http:    &http.Client{Transport: rt, Timeout: o.timeout},
		log:     log,
		metrics: o.metrics,
	}, nil
}

func newBaseTransport(timeout time.Duration) http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	return t
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

// do sends req and decodes a 2xx body into out. All errors are *apierr.Error.
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRequest(req.op, outcome(err), time.Since(start))
	}()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return apierr.Transport(req.op, err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return apierr.Transport(req.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apierr.Transport(req.op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.FromResponse(req.op, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return apierr.Transport(req.op, errors.New("empty response body"))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apierr.Transport(req.op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// segment escapes a caller supplied value for use as one path element.
func segment(v string) string {
	return "/" + url.PathEscape(v)
}

func outcome(err error) string {
	switch apierr.KindOf(err) {
	case 0:
		if err == nil {
			return metrics.OutcomeOK
		}
		return metrics.OutcomeTransport
	case apierr.KindAuth:
		return metrics.OutcomeAuth
	case apierr.KindBusiness:
		return metrics.OutcomeBusiness
	default:
		return metrics.OutcomeTransport
	}
}
