package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/FranksOps/followtrack/internal/config"
	"github.com/FranksOps/followtrack/internal/fingerprint"
	"github.com/FranksOps/followtrack/internal/metrics"
	"github.com/FranksOps/followtrack/internal/pipeline"
	"github.com/FranksOps/followtrack/internal/publish"
	"github.com/FranksOps/followtrack/internal/scraper"
	"github.com/FranksOps/followtrack/internal/storage"
	"github.com/FranksOps/followtrack/pkg/proxy"
	"github.com/FranksOps/followtrack/pkg/ratelimit"
	"github.com/FranksOps/followtrack/pkg/useragent"
	"github.com/spf13/cobra"
)

// requestJitter stretches REQUEST_DELAY by up to this fraction.
const requestJitter = 0.2

var errRunFailed = errors.New("run failed: not every handle was tracked and published")

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read follower counts, update the history and publish the posts.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		return track(cmd.Context(), cfg, log, cmd.OutOrStdout())
	},
}

// track runs the pipeline once for every configured handle. It returns
// errRunFailed when any handle could not be acquired or published.
func track(ctx context.Context, c *config.Config, logger *slog.Logger, out io.Writer) error {
	m := metrics.New()

	backend, err := openBackend(ctx, c)
	if err != nil {
		logger.Error("history unavailable, samples will not be kept", "backend", c.HistoryBackend, "err", err)
		backend = storage.Unavailable{Err: err}
	}
	store := storage.NewStore(backend, logger)
	defer store.Close()

	fetcher, err := newFetcher(c, m, logger)
	if err != nil {
		return err
	}
	acquirer := scraper.NewAcquirer(scraper.AcquirerConfig{
		Sources: scraper.DefaultSources(fetcher, c.NitterInstances, c.SocialBladeURL),
		Limiter: ratelimit.NewLimiter(c.RequestDelay, requestJitter),
		Metrics: m,
	}, logger)

	publisher, err := publish.New(publish.Config{
		Kind:         c.Publisher,
		XBearerToken: c.XBearerToken,
		XAPIURL:      c.XAPIURL,
		WebhookURL:   c.WebhookURL,
		Out:          out,
	})
	if err != nil {
		if !errors.Is(err, publish.ErrMissingCredentials) {
			return err
		}
		logger.Error("publisher unavailable, posts will fail", "publisher", c.Publisher, "err", err)
		publisher = publish.Unavailable{Kind: c.Publisher, Err: err}
	}

	p := &pipeline.Pipeline{
		Acquirer:             acquirer,
		History:              store,
		Publisher:            publisher,
		Metrics:              m,
		Logger:               logger,
		PublishFailureNotice: c.PublishFailureNotice,
	}
	if c.Publisher != publish.KindStdout {
		p.Preview = out
	}

	start := time.Now()
	outcomes, ok := p.RunAll(ctx, c.Handles)

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
		}
	}
	logger.Info("run complete",
		"handles", len(outcomes),
		"failed", failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if err := m.Finish(c.MetricsTextfile, time.Now()); err != nil {
		logger.Warn("metrics not written", "err", err)
	}

	if !ok {
		return errRunFailed
	}
	return nil
}

func newFetcher(c *config.Config, m *metrics.Metrics, logger *slog.Logger) (*scraper.Fetcher, error) {
	profile, err := fingerprint.ParseProfile(c.Fingerprint)
	if err != nil {
		return nil, err
	}

	var proxies *proxy.Pool
	if c.ProxyFile != "" {
		proxies = proxy.NewPool(proxy.Config{})
		if err := proxies.LoadFile(c.ProxyFile); err != nil {
			return nil, err
		}
		logger.Info("proxy rotation enabled", "proxies", proxies.Len())
	}

	f, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:       scraper.DefaultTimeout,
		Profiles:      useragent.NewPool(nil),
		Fingerprint:   profile,
		ProxyPool:     proxies,
		RespectRobots: c.RespectRobots,
		Metrics:       m,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	return f, nil
}
