package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/wellgate/wellgate/adapters/metrics"
	"github.com/wellgate/wellgate/config"
)

// proxyTarget resolves the current upstream for a proxy from the live
// config. An empty base means the upstream is not configured; the request
// fails, the gateway does not.
type proxyTarget struct {
	base    string
	prefix  string // path appended after the base, e.g. "/auth/v1"
	timeout time.Duration
	apiKey  string // forced "apikey" header value, auth provider only
}

// Proxy forwards requests under a mount point to a configured upstream.
// Bodies stream through in both directions; redirects from the upstream go
// back to the caller untouched.
type Proxy struct {
	name    string
	cfg     *config.Holder
	resolve func(*config.Config) (proxyTarget, bool)
	client  *http.Client
	log     zerolog.Logger
	metrics *metrics.Collector
}

// Inbound headers never forwarded upstream. Host is carried in r.Host and
// would conflict with the upstream's virtual host; Content-Length is
// recomputed by the transport.
var droppedInbound = map[string]struct{}{
	"host":                {},
	"connection":          {},
	"content-length":      {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"transfer-encoding":   {},
	"upgrade":             {},
}

// Upstream response headers never forwarded back to the caller.
var droppedOutbound = map[string]struct{}{
	"connection":        {},
	"keep-alive":        {},
	"transfer-encoding": {},
	"upgrade":           {},
}

// NewBackendProxy creates the generic backend API proxy.
func NewBackendProxy(cfg *config.Holder, log zerolog.Logger, m *metrics.Collector) *Proxy {
	return newProxy("backend", cfg, log, m, func(c *config.Config) (proxyTarget, bool) {
		if c.Backend.URL == "" {
			return proxyTarget{}, false
		}
		return proxyTarget{base: c.Backend.URL, timeout: c.Backend.Timeout}, true
	})
}

// NewAuthProxy creates the auth provider proxy. It rewrites paths onto the
// provider's /auth/v1 surface and attaches the provider API key server-side
// so it never ships to browsers.
func NewAuthProxy(cfg *config.Holder, log zerolog.Logger, m *metrics.Collector) *Proxy {
	return newProxy("authprovider", cfg, log, m, func(c *config.Config) (proxyTarget, bool) {
		if c.AuthProvider.URL == "" {
			return proxyTarget{}, false
		}
		return proxyTarget{
			base:    c.AuthProvider.URL,
			prefix:  "/auth/v1",
			timeout: c.AuthProvider.Timeout,
			apiKey:  c.AuthProvider.AnonKey,
		}, true
	})
}

func newProxy(name string, cfg *config.Holder, log zerolog.Logger, m *metrics.Collector, resolve func(*config.Config) (proxyTarget, bool)) *Proxy {
	return &Proxy{
		name:    name,
		cfg:     cfg,
		resolve: resolve,
		client: &http.Client{
			// Redirects from the upstream pass through to the caller;
			// following them here would hide Location semantics.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log:     log,
		metrics: m,
	}
}

// ServeHTTP forwards one request to the upstream.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target, ok := p.resolve(p.cfg.Get())
	if !ok {
		p.log.Error().Str("target", p.name).Msg("proxy upstream not configured")
		p.countError("not_configured")
		writeFailure(w, r, http.StatusBadGateway, "upstream service is not configured", nil)
		return
	}

	upstreamURL, err := p.buildURL(target, r)
	if err != nil {
		p.countError("bad_url")
		writeFailure(w, r, http.StatusBadGateway, "invalid upstream URL", nil)
		return
	}

	ctx := r.Context()
	if target.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, target.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, upstreamURL, r.Body)
	if err != nil {
		p.countError("build_request")
		writeFailure(w, r, http.StatusBadGateway, "failed to build upstream request", nil)
		return
	}

	copyInboundHeaders(req, r)
	if target.apiKey != "" {
		// Forced, not defaulted: a caller-supplied apikey must not win.
		req.Header.Set("apikey", target.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Error().Err(err).
			Str("target", p.name).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("upstream request failed")
		p.countError("upstream")
		writeFailure(w, r, http.StatusBadGateway, "failed to reach upstream service", nil)
		return
	}
	defer resp.Body.Close()

	if p.metrics != nil {
		p.metrics.UpstreamDuration.WithLabelValues(p.name, r.Method).Observe(time.Since(start).Seconds())
		p.metrics.ProxyRequestsTotal.WithLabelValues(p.name, r.Method, strconv.Itoa(resp.StatusCode)).Inc()
	}

	copyOutboundHeaders(w, resp)
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are gone; all we can do is log.
		p.log.Warn().Err(err).Str("target", p.name).Msg("streaming upstream response interrupted")
	}
}

// buildURL joins the upstream base, the optional path prefix, and the
// remainder of the mount wildcard, preserving the raw query string.
func (p *Proxy) buildURL(target proxyTarget, r *http.Request) (string, error) {
	base, err := url.Parse(target.base)
	if err != nil {
		return "", err
	}

	rest := chi.URLParam(r, "*")
	path := strings.TrimSuffix(base.Path, "/") + target.prefix
	if rest != "" {
		path += "/" + rest
	}

	u := *base
	u.Path = path
	u.RawQuery = r.URL.RawQuery
	return u.String(), nil
}

func (p *Proxy) countError(reason string) {
	if p.metrics != nil {
		p.metrics.ProxyErrors.WithLabelValues(p.name, reason).Inc()
	}
}

func copyInboundHeaders(dst *http.Request, src *http.Request) {
	for k, vs := range src.Header {
		if _, drop := droppedInbound[strings.ToLower(k)]; drop {
			continue
		}
		for _, v := range vs {
			dst.Header.Add(k, v)
		}
	}
}

func copyOutboundHeaders(w http.ResponseWriter, resp *http.Response) {
	for k, vs := range resp.Header {
		if _, drop := droppedOutbound[strings.ToLower(k)]; drop {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
}
