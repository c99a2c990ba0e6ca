// Package client is the outbound SDK for the wellness platform API. It is
// the single choke point for application traffic: credential injection,
// envelope decoding, error classification, and bounded retries all happen
// here so callers never talk to the transport directly.
//
// Every failed call surfaces exactly one of the three typed errors from
// domain/apierror; a failure envelope on HTTP 200 is still an error.
package client

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
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wellgate/wellgate/domain/apierror"
	"github.com/wellgate/wellgate/domain/envelope"
)

const maxResponseBody = 10 << 20 // 10MB

// Client issues enveloped requests against the platform API.
type Client struct {
	hc      *http.Client
	baseURL *url.URL
	log     zerolog.Logger
	retry   RetryPolicy

	mu    sync.RWMutex
	creds CredentialProvider
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets a custom transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithLogger sets the logger used by the client.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetryPolicy replaces the retry strategy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithCredentials sets the initial credential provider.
func WithCredentials(p CredentialProvider) Option {
	return func(c *Client) { c.creds = p }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	c := &Client{
		hc: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: u,
		log:     zerolog.Nop(),
		retry:   DefaultRetryPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SetCredentials replaces the credential provider. Re-registration (login,
// logout) fully swaps the previous provider; in-flight requests keep the
// provider they captured.
func (c *Client) SetCredentials(p CredentialProvider) {
	c.mu.Lock()
	c.creds = p
	c.mu.Unlock()
}

func (c *Client) credentials() CredentialProvider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*envelope.Success, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*envelope.Success, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*envelope.Success, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*envelope.Success, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*envelope.Success, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do issues a request and returns the success envelope, or one of the three
// typed errors. Retries of transient failures happen inside; callers only
// see the final outcome.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*envelope.Success, error) {
	method = strings.ToUpper(method)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		success, retryAfter, err := c.attempt(ctx, method, path, payload)
		if err == nil {
			return success, nil
		}

		if attempt >= c.retry.MaxRetries || !c.retryable(method, err) {
			return nil, err
		}

		wait := c.retry.Backoff(attempt+1, retryAfter)
		c.log.Warn().
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Err(err).
			Msg("retrying request")

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, apierror.NewTimeoutError("")
			}
		}
	}
}

// retryable maps the classified error back onto the retry predicate.
// Timeouts (cancellation included) never retry.
func (c *Client) retryable(method string, err error) bool {
	var timeoutErr *apierror.TimeoutError
	if errors.As(err, &timeoutErr) {
		return false
	}
	var netErr *apierror.NetworkError
	if errors.As(err, &netErr) {
		return c.retry.ShouldRetry(method, 0, netErr)
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return c.retry.ShouldRetry(method, apiErr.StatusCode, nil)
	}
	return false
}

// attempt performs one request/response cycle and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (*envelope.Success, time.Duration, error) {
	target := c.resolve(path)

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if creds := c.credentials(); creds != nil {
		token, err := creds.Token(ctx)
		if err != nil {
			return nil, 0, apierror.NewNetworkError(fmt.Sprintf("resolve token: %v", err))
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if orgID := creds.OrganizationID(); orgID != "" {
			req.Header.Set("x-organization-id", orgID)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, c.classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, 0, apierror.NewNetworkError(fmt.Sprintf("read response: %v", err))
	}

	retryAfter := parseRetryAfter(resp)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// A failure envelope on a 2xx is still a failure. Some backends
		// signal errors with 200; the discriminant wins over the status.
		if isEnv, isSuccess := envelope.Detect(respBody); isEnv {
			success, failure, err := envelope.Parse(respBody)
			if err != nil {
				return nil, 0, apierror.NewNetworkError(fmt.Sprintf("decode envelope: %v", err))
			}
			if !isSuccess {
				return nil, 0, c.apiError(failure, req)
			}
			return success, 0, nil
		}
		// Non-enveloped 2xx (e.g. the auth provider's REST surface):
		// hand the raw body through as the payload.
		return &envelope.Success{Data: respBody}, 0, nil
	}

	// Non-2xx: prefer the failure envelope's fields, fall back to the
	// transport's view of the response.
	failure := &envelope.Failure{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}
	if isEnv, isSuccess := envelope.Detect(respBody); isEnv && !isSuccess {
		if _, parsed, err := envelope.Parse(respBody); err == nil {
			failure.Message = parsed.Message
			failure.Errors = parsed.Errors
		}
	}
	failure.StatusCode = resp.StatusCode
	failure.Path = req.URL.Path
	failure.Method = method

	return nil, retryAfter, c.apiError(failure, req)
}

// apiError finalizes an APIError and fires token invalidation on auth
// failures before the error is surfaced.
func (c *Client) apiError(f *envelope.Failure, req *http.Request) error {
	if f.Path == "" {
		f.Path = req.URL.Path
	}
	if f.Method == "" {
		f.Method = strings.ToUpper(req.Method)
	}
	apiErr := apierror.FromFailure(f)
	if apiErr.IsAuthError() {
		if creds := c.credentials(); creds != nil {
			creds.Invalidate()
		}
	}
	return apiErr
}

// classifyTransport maps a transport error with no response onto the
// taxonomy: aborts and timeouts are TimeoutError, everything else is
// NetworkError carrying the original message.
func (c *Client) classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apierror.NewTimeoutError("")
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return apierror.NewTimeoutError("")
	}
	c.log.Debug().Err(err).Msg("transport error")
	return apierror.NewNetworkError(err.Error())
}

// resolve joins a request path onto the base URL. Absolute URLs pass
// through untouched.
func (c *Client) resolve(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.String() + path
	}
	return c.baseURL.ResolveReference(ref).String()
}

// Get issues a GET request and decodes the payload into T.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return decode[T](c.Get(ctx, path))
}

// Post issues a POST request and decodes the payload into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return decode[T](c.Post(ctx, path, body))
}

// Patch issues a PATCH request and decodes the payload into T.
func Patch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return decode[T](c.Patch(ctx, path, body))
}

func decode[T any](s *envelope.Success, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	return envelope.DecodeData[T](s)
}
