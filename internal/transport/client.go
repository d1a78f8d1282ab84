// Package transport is the shared outbound HTTP stack for every data adapter:
// proxy support, per-host rate limiting, per-host circuit breaking and retries.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"TradeIdeas/internal/model"
)

// DefaultUserAgent is sent when the caller sets none.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Observer receives one call per finished request.
type Observer func(host, result string, elapsed time.Duration)

// Options configures a Client.
type Options struct {
	Timeout           time.Duration
	ProxyURL          string
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	Backoff           time.Duration
	// BreakerFailures consecutive failures open a host's breaker for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	Observer        Observer
}

// DefaultOptions returns conservative settings for public endpoints.
func DefaultOptions() Options {
	return Options{
		Timeout:           30 * time.Second,
		UserAgent:         DefaultUserAgent,
		RequestsPerSecond: 2,
		Burst:             4,
		MaxRetries:        2,
		Backoff:           time.Second,
		BreakerFailures:   5,
		BreakerCooldown:   60 * time.Second,
	}
}

// Client performs GET requests on behalf of adapters.
type Client struct {
	opts Options
	http *http.Client
	rt   *guardedTransport
}

// New builds a Client. Zero option fields fall back to DefaultOptions.
func New(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = def.RequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = def.Burst
	}
	if opts.Backoff <= 0 {
		opts.Backoff = def.Backoff
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = def.BreakerFailures
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = def.BreakerCooldown
	}

	base := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			base.Proxy = http.ProxyURL(u)
		}
	}
	rt := &guardedTransport{
		base:     base,
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
	return &Client{
		opts: opts,
		rt:   rt,
		http: &http.Client{Timeout: opts.Timeout, Transport: rt},
	}
}

// Transport exposes the rate-limited, breaker-guarded round tripper for collectors
// that manage their own http.Client.
func (c *Client) Transport() http.RoundTripper { return c.rt }

// UserAgent returns the configured agent string.
func (c *Client) UserAgent() string { return c.opts.UserAgent }

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.opts.Timeout }

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d, body: %s", e.URL, e.Status, e.Body)
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	return !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, context.Canceled)
}

// Get fetches rawURL with exponential backoff. Every failure wraps model.ErrSourceUnavailable.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for i := 0; i <= c.opts.MaxRetries; i++ {
		body, err := c.getOnce(ctx, rawURL, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) || i == c.opts.MaxRetries {
			break
		}
		backoff := c.opts.Backoff * time.Duration(1<<uint(i))
		log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", backoff).Msg("request failed, retrying")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", model.ErrSourceUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("%w: %v", model.ErrSourceUnavailable, lastErr)
}

func (c *Client) getOnce(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{URL: rawURL, Status: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// guardedTransport applies the host's limiter and breaker around the base round tripper.
type guardedTransport struct {
	base http.RoundTripper
	opts Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

// serverError lets 5xx responses count against the breaker while still being returned.
type serverError struct{ status int }

func (e serverError) Error() string { return fmt.Sprintf("server error %d", e.status) }

func (t *guardedTransport) hostGuards(host string) (*rate.Limiter, *gobreaker.CircuitBreaker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(t.opts.RequestsPerSecond), t.opts.Burst)
		t.limiters[host] = lim
	}
	br, ok := t.breakers[host]
	if !ok {
		threshold := t.opts.BreakerFailures
		br = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     host,
			Interval: 60 * time.Second,
			Timeout:  t.opts.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("host", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		})
		t.breakers[host] = br
	}
	return lim, br
}

func (t *guardedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	lim, br := t.hostGuards(host)
	if err := lim.Wait(req.Context()); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := br.Execute(func() (interface{}, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, serverError{status: resp.StatusCode}
		}
		return resp, nil
	})
	t.observe(host, out, err, time.Since(start))

	var se serverError
	if errors.As(err, &se) && out != nil {
		return out.(*http.Response), nil
	}
	if err != nil {
		return nil, err
	}
	return out.(*http.Response), nil
}

func (t *guardedTransport) observe(host string, out interface{}, err error, elapsed time.Duration) {
	if t.opts.Observer == nil {
		return
	}
	result := "ok"
	var se serverError
	switch {
	case errors.As(err, &se):
		result = fmt.Sprintf("status_%d", se.status)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "breaker_open"
	case err != nil:
		result = "error"
	case out != nil && out.(*http.Response).StatusCode >= 400:
		result = fmt.Sprintf("status_%d", out.(*http.Response).StatusCode)
	}
	t.opts.Observer(host, result, elapsed)
}
