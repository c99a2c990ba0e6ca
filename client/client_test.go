package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wellgate/wellgate/client"
	"github.com/wellgate/wellgate/domain/apierror"
	"github.com/wellgate/wellgate/domain/envelope"
)

func zeroDelay() client.RetryPolicy {
	p := client.DefaultRetryPolicy()
	p.Backoff = func(int, time.Duration) time.Duration { return 0 }
	return p
}

func newClient(t *testing.T, baseURL string, opts ...client.Option) *client.Client {
	t.Helper()
	opts = append([]client.Option{client.WithRetryPolicy(zeroDelay())}, opts...)
	c, err := client.New(baseURL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeSuccess(w http.ResponseWriter, data any, meta *envelope.PaginationMeta) {
	env, _ := envelope.NewSuccess(data, meta)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func TestGetDecodesSuccessEnvelope(t *testing.T) {
	var gotAuth, gotOrg string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotOrg = r.Header.Get("x-organization-id")
		meta := envelope.NewPaginationMeta(1, 10, 25)
		writeSuccess(w, []string{"a", "b"}, &meta)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, client.WithCredentials(client.NewStaticCredentials("tok-123", "org-9")))

	s, err := c.Get(context.Background(), "/api/v1/things")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
	if gotOrg != "org-9" {
		t.Errorf("x-organization-id = %q, want %q", gotOrg, "org-9")
	}
	items, err := envelope.DecodeData[[]string](s)
	if err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if len(items) != 2 || items[0] != "a" {
		t.Errorf("items = %v", items)
	}
	if s.Meta == nil || s.Meta.TotalPages != 3 {
		t.Errorf("meta = %+v, want totalPages 3", s.Meta)
	}
}

func TestAnonymousRequestOmitsAuthHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("Authorization header present on anonymous request")
		}
		if _, ok := r.Header["X-Organization-Id"]; ok {
			t.Error("x-organization-id header present on anonymous request")
		}
		writeSuccess(w, map[string]bool{"ok": true}, nil)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	if _, err := c.Get(context.Background(), "/ping"); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestFailureEnvelopeOnOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := envelope.NewFailure(422, "name is taken", r.URL.Path, r.Method, time.Now())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(f)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)

	_, err := c.Post(context.Background(), "/api/v1/organizations", map[string]string{"name": "x"})
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != 422 || apiErr.Message != "name is taken" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestNonEnvelopeBodyPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	s, err := c.Get(context.Background(), "/token")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := envelope.DecodeData[map[string]string](s)
	if err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if got["access_token"] != "abc" {
		t.Errorf("data = %v", got)
	}
}

func TestRetryExhaustsAfterThreeAttempts(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)

	_, err := c.Get(context.Background(), "/api/v1/things")
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", apiErr.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRetryRecoversMidway(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			http.Error(w, "warming up", http.StatusBadGateway)
			return
		}
		writeSuccess(w, map[string]string{"id": "1"}, nil)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	if _, err := c.Get(context.Background(), "/api/v1/things/1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestInternalErrorNotRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)

	_, err := c.Get(context.Background(), "/api/v1/things")
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if !apiErr.IsServerError() {
		t.Errorf("IsServerError = false for %d", apiErr.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestValidationErrorNotRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		f := envelope.NewFailure(400, "validation failed", r.URL.Path, r.Method, time.Now())
		f.Errors = map[string]any{"name": "required"}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(f)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)

	_, err := c.Post(context.Background(), "/api/v1/organizations", map[string]string{})
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if !apiErr.IsValidationError() {
		t.Errorf("IsValidationError = false, errors = %v", apiErr.Errors)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestAuthFailureInvalidatesOnce(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		f := envelope.NewFailure(401, "token expired", r.URL.Path, r.Method, time.Now())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(f)
	}))
	defer srv.Close()

	creds := client.NewStaticCredentials("stale", "org-1")
	var invalidations int32
	creds.OnInvalidate(func() { atomic.AddInt32(&invalidations, 1) })

	c := newClient(t, srv.URL, client.WithCredentials(creds))

	_, err := c.Get(context.Background(), "/api/v1/me")
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if !apiErr.IsAuthError() {
		t.Errorf("IsAuthError = false for %d", apiErr.StatusCode)
	}
	if got := atomic.LoadInt32(&invalidations); got != 1 {
		t.Errorf("invalidations = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestNetworkErrorOnClosedServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newClient(t, url)

	_, err := c.Post(context.Background(), "/api/v1/things", map[string]string{"k": "v"})
	var netErr *apierror.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	// The transport's own message survives; the canonical default only
	// covers transports that report nothing.
	if !strings.Contains(netErr.Message, "connection refused") {
		t.Errorf("message = %q, want the transport's connection refused text", netErr.Message)
	}
}

func TestTransportErrorRetriedOnlyWhenIdempotent(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer does not support hijacking")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)

	_, err := c.Get(context.Background(), "/api/v1/things")
	var netErr *apierror.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("GET err = %v, want NetworkError", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("GET attempts = %d, want 3", got)
	}

	atomic.StoreInt32(&attempts, 0)
	_, err = c.Post(context.Background(), "/api/v1/things", map[string]string{"k": "v"})
	if !errors.As(err, &netErr) {
		t.Fatalf("POST err = %v, want NetworkError", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("POST attempts = %d, want 1", got)
	}
}

func TestDeadlineYieldsTimeoutErrorWithoutRetry(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/api/v1/slow")
	var toErr *apierror.TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
	if toErr.Message != "Request timeout" {
		t.Errorf("message = %q", toErr.Message)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestRetryAfterPassedToBackoff(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("Retry-After", "7")
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var seen []time.Duration
	policy := client.DefaultRetryPolicy()
	policy.Backoff = func(attempt int, retryAfter time.Duration) time.Duration {
		seen = append(seen, retryAfter)
		return 0
	}

	c := newClient(t, srv.URL, client.WithRetryPolicy(policy))

	_, err := c.Get(context.Background(), "/api/v1/things")
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if len(seen) != 2 {
		t.Fatalf("backoff calls = %d, want 2", len(seen))
	}
	for i, d := range seen {
		if d != 7*time.Second {
			t.Errorf("retryAfter[%d] = %v, want 7s", i, d)
		}
	}
}

func TestDefaultBackoffIsExponential(t *testing.T) {
	p := client.DefaultRetryPolicy()
	if got := p.Backoff(1, 0); got != time.Second {
		t.Errorf("Backoff(1) = %v, want 1s", got)
	}
	if got := p.Backoff(2, 0); got != 2*time.Second {
		t.Errorf("Backoff(2) = %v, want 2s", got)
	}
	if got := p.Backoff(1, 5*time.Second); got != 5*time.Second {
		t.Errorf("Backoff with Retry-After = %v, want 5s", got)
	}
}

func TestSetCredentialsSwapsProvider(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeSuccess(w, nil, nil)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, client.WithCredentials(client.NewStaticCredentials("first", "")))

	if _, err := c.Get(context.Background(), "/a"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer first" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	c.SetCredentials(client.NewStaticCredentials("second", ""))
	if _, err := c.Get(context.Background(), "/b"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer second" {
		t.Errorf("Authorization after swap = %q", gotAuth)
	}
}
