package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/lox/vaervarsel/internal/metrics"
)

// StatusError is returned for any non-200 upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Fetcher performs rate limited GET requests with retries and a circuit
// breaker. 429 and 5xx responses are retried; everything else is returned
// to the caller as is.
type Fetcher struct {
	service string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
}

// NewFetcher creates a Fetcher for the named upstream service. A
// requestsPerSecond of zero or less disables rate limiting.
func NewFetcher(service string, client *http.Client, requestsPerSecond float64) *Fetcher {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Fetcher{
		service: service,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:         service,
			MaxRequests:  5,
			Interval:     1 * time.Minute,
			Timeout:      2 * time.Minute,
			IsSuccessful: countsAsSuccess,
		}),
		InitialInterval: 500 * time.Millisecond,
		MaxElapsedTime:  1 * time.Minute,
	}
}

// Get fetches url and returns the response body.
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: wait for rate limiter: %w", f.service, err)
	}

	var body []byte
	operation := func() error {
		start := time.Now()
		result, err := f.breaker.Execute(func() (interface{}, error) {
			return f.do(ctx, url, header)
		})
		metrics.UpstreamLatency.WithLabelValues(f.service).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.UpstreamCallsTotal.WithLabelValues(f.service, callStatus(err)).Inc()
			var se *StatusError
			switch {
			case ctx.Err() != nil:
				return backoff.Permanent(ctx.Err())
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				return backoff.Permanent(fmt.Errorf("%s: circuit open: %w", f.service, err))
			case errors.As(err, &se) && (se.Code == http.StatusTooManyRequests || se.Code >= 500):
				return fmt.Errorf("%s: %w", f.service, err)
			default:
				return backoff.Permanent(fmt.Errorf("%s: %w", f.service, err))
			}
		}

		metrics.UpstreamCallsTotal.WithLabelValues(f.service, "ok").Inc()
		body = result.([]byte)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.InitialInterval
	bo.MaxElapsedTime = f.MaxElapsedTime
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > 200 {
			body = body[:200]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// countsAsSuccess keeps caller-side failures out of the breaker counts:
// cancelled requests and 4xx responses other than 429.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests
}

func callStatus(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("%d", se.Code)
	case errors.Is(err, gobreaker.ErrOpenState):
		return "circuit_open"
	default:
		return "error"
	}
}
