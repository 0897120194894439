// Package request wraps resty with the retry, header and redirect policy shared
// by every outbound call the harvester makes.
package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"proxyharvester/internal/shared/logger"
	"proxyharvester/internal/shared/types"
)

// retryTimeoutStep is added to the timeout of every retry attempt.
const retryTimeoutStep = time.Second

// Client issues direct requests and builds per-proxy clients.
type Client struct {
	cfg     types.RequestConf
	headers map[string]string
	direct  *resty.Client
}

// New creates a Client from the [request] section.
func New(cfg types.RequestConf) *Client {
	c := &Client{
		cfg: cfg,
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept-Language": cfg.AcceptLanguage,
			"Pragma":          "no-cache",
			"Cache-Control":   "no-cache",
			"Referer":         cfg.Referer,
		},
	}
	c.direct = c.newResty()
	return c
}

func (c *Client) newResty() *resty.Client {
	rc := resty.New().
		SetLogger(restyLogger{l: logger.WithComponent("Request")}).
		SetRedirectPolicy(noRedirect())
	for k, v := range c.headers {
		if v != "" {
			rc.SetHeader(k, v)
		}
	}
	return rc
}

// Fetch downloads a provider page with the configured timeout and retry count.
// Non-2xx responses are errors. The body is decoded to UTF-8 using the
// response Content-Type and any <meta> charset hint.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := execute(ctx, c.direct, http.MethodGet, url, c.cfg.Timeout, c.cfg.Retries)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("received non-successful status code %d from %s", resp.StatusCode(), url)
	}

	body := resp.Body()
	r, err := charset.NewReader(bytes.NewReader(body), resp.Header().Get("Content-Type"))
	if err != nil {
		return body, nil
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body, nil
	}
	return decoded, nil
}

// Probe sends one direct GET and reports whether it returned a 2xx status.
func (c *Client) Probe(ctx context.Context, url string, timeout time.Duration) bool {
	return probe(ctx, c.direct, url, timeout)
}

// Via returns a client that sends every request through the HTTP proxy at
// address (host:port). Close it when done.
func (c *Client) Via(address string) *Proxied {
	rc := c.newResty().
		SetProxy("http://" + address).
		SetCloseConnection(true)
	return &Proxied{rc: rc}
}

// Proxied is a client bound to one candidate proxy.
type Proxied struct {
	rc *resty.Client
}

// Probe sends one GET through the proxy and reports whether it returned a 2xx status.
func (p *Proxied) Probe(ctx context.Context, url string, timeout time.Duration) bool {
	return probe(ctx, p.rc, url, timeout)
}

// Close releases idle connections to the proxy.
func (p *Proxied) Close() {
	p.rc.GetClient().CloseIdleConnections()
}

func probe(ctx context.Context, rc *resty.Client, url string, timeout time.Duration) bool {
	resp, err := execute(ctx, rc, http.MethodGet, url, timeout, 1)
	if err != nil {
		return false
	}
	return resp.IsSuccess()
}

// execute tries the request up to attempts times. Only transport errors are
// retried; every retry gets one more second of timeout than the previous try.
func execute(ctx context.Context, rc *resty.Client, method, url string, timeout time.Duration, attempts int) (*resty.Response, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		actx, cancel := context.WithTimeout(ctx, timeout+time.Duration(i)*retryTimeoutStep)
		resp, err := rc.R().SetContext(actx).Execute(method, url)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%s %s failed after %d attempt(s): %w", method, url, attempts, lastErr)
}

// noRedirect hands 3xx responses back to the caller instead of following them.
func noRedirect() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	})
}

// restyLogger routes resty's own log output into zerolog.
type restyLogger struct {
	l zerolog.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) { r.l.Error().Msgf(format, v...) }
func (r restyLogger) Warnf(format string, v ...interface{})  { r.l.Warn().Msgf(format, v...) }
func (r restyLogger) Debugf(format string, v ...interface{}) { r.l.Debug().Msgf(format, v...) }
