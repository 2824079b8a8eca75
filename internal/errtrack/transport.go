package errtrack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"request-correlator/internal/metrics"

	"github.com/hashicorp/go-retryablehttp"
	"gitlab.com/gitlab-org/labkit/correlation"
)

const (
	defaultTimeout          = 5 * time.Second
	defaultRetryWaitMinimum = 100 * time.Millisecond
	defaultRetryWaitMaximum = 2 * time.Second
)

// StatusError is returned when the tracking service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("errtrack: unexpected status %d", e.StatusCode)
}

// HTTPTransportOptions configures an HTTPTransport.
type HTTPTransportOptions struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// Base is the round tripper requests end up on. Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// HTTPTransport posts events as JSON. The event's request ID is propagated
// as the X-Request-ID header.
type HTTPTransport struct {
	client   *retryablehttp.Client
	endpoint string
}

// NewHTTPTransport returns a transport posting to endpoint.
func NewHTTPTransport(endpoint string, opts HTTPTransportOptions) (*HTTPTransport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse error tracking URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid error tracking URL %q: must be an absolute http(s) URL", endpoint)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = defaultRetryWaitMinimum
	}
	if opts.RetryWaitMax < opts.RetryWaitMin {
		opts.RetryWaitMax = defaultRetryWaitMaximum
	}
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}

	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	c.RetryWaitMin = opts.RetryWaitMin
	c.RetryWaitMax = opts.RetryWaitMax
	c.Logger = nil
	c.HTTPClient.Transport = correlation.NewInstrumentedRoundTripper(metrics.NewRoundTripper(base))
	c.HTTPClient.Timeout = opts.Timeout

	return &HTTPTransport{client: c, endpoint: u.String()}, nil
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if event.RequestID != "" {
		ctx = correlation.ContextWithCorrelation(ctx, event.RequestID)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body is not read

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
