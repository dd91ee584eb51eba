package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/followtrack/internal/bypass"
	"github.com/FranksOps/followtrack/internal/fingerprint"
	"github.com/FranksOps/followtrack/internal/metrics"
	"github.com/FranksOps/followtrack/pkg/httpclient"
	"github.com/FranksOps/followtrack/pkg/proxy"
	"github.com/FranksOps/followtrack/pkg/useragent"
)

// DefaultTimeout bounds every request a source makes.
const DefaultTimeout = 15 * time.Second

// RobotsAgent is the product token matched against robots.txt groups.
const RobotsAgent = "followtrack"

// ErrDisallowed is returned when robots.txt forbids fetching a URL.
var ErrDisallowed = errors.New("scraper: disallowed by robots.txt")

type contextKey string

const proxyKey contextKey = "proxy_url"

// FetchConfig configures how pages are fetched.
type FetchConfig struct {
	Timeout     time.Duration
	Profiles    *useragent.Pool
	Fingerprint fingerprint.Profile
	ProxyPool   *proxy.Pool
	// RespectRobots makes Fetch consult the host's robots.txt first.
	RespectRobots bool
	Metrics       *metrics.Metrics
}

// Page is a fetched response. Blocker names the bot-protection vendor that
// challenged the request, if any.
type Page struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Blocker    string
	Duration   time.Duration
}

// OK reports a 2xx status.
func (p *Page) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// Fetcher performs single GET requests with a browser header profile, a TLS
// fingerprint and optional proxy rotation. It is shared by all sources of a run.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	robots *RobotsTxtAuditor
	logger *slog.Logger
}

// NewFetcher initializes a Fetcher. The transport is created once so
// connections are pooled across sources on the same host.
func NewFetcher(cfg FetchConfig, logger *slog.Logger) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Profiles == nil {
		cfg.Profiles = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if logger == nil {
		logger = slog.Default()
	}

	// The proxy for a request travels in its context, so one transport can
	// rotate proxies per request.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		UseCookieJar: true,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	f := &Fetcher{config: cfg, client: client, logger: logger}
	if cfg.RespectRobots {
		f.robots = NewRobotsTxtAuditor(f.get, logger)
	}
	return f, nil
}

// Fetch GETs targetURL. Non-2xx responses are returned as a Page, not an
// error; transport failures and robots.txt refusals are errors.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	if f.robots != nil {
		allowed, err := f.robots.IsAllowed(ctx, targetURL, RobotsAgent)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, targetURL)
		}
	}
	return f.get(ctx, targetURL)
}

func (f *Fetcher) get(ctx context.Context, targetURL string) (*Page, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	f.config.Profiles.Sequential().Apply(req)

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		activeProxy = f.config.ProxyPool.Next()
	}
	if activeProxy != nil {
		ctx = context.WithValue(ctx, proxyKey, activeProxy)
	}

	res, err := f.client.Fetch(ctx, req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			f.config.Metrics.RecordProxyFailure(activeProxy.Redacted())
			f.logger.Debug("proxy request failed", "proxy", activeProxy.Redacted(), "url", targetURL, "err", err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	page := &Page{
		URL:        targetURL,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       res.Body,
		Duration:   time.Since(start),
	}
	page.Blocker = bypass.Analyze(bypass.Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       res.Body,
	}, bypass.DefaultDetectors())

	return page, nil
}
