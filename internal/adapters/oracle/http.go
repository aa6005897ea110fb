package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 8 * time.Second

// HTTPOracle posts inference requests to an external endpoint as JSON.
type HTTPOracle struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// HTTPOption applies a configuration option to the HTTPOracle.
type HTTPOption func(*HTTPOracle)

// WithTimeout bounds a single inference call independently of the caller.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(o *HTTPOracle) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(o *HTTPOracle) {
		if client != nil {
			o.client = client
		}
	}
}

// NewHTTPOracle creates an oracle client for the given endpoint.
func NewHTTPOracle(url string, opts ...HTTPOption) *HTTPOracle {
	o := &HTTPOracle{
		url:     url,
		client:  &http.Client{},
		timeout: defaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Infer posts the request and decodes the structured guess. The hard timeout
// applies even when the caller's ctx has none.
func (o *HTTPOracle) Infer(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return result, nil
}
