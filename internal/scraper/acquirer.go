package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FranksOps/followtrack/internal/metrics"
	"github.com/FranksOps/followtrack/pkg/ratelimit"
)

// Result is a successfully acquired follower count and the source that produced it.
type Result struct {
	Count  int64
	Source string
}

// AcquirerConfig configures the source chain.
type AcquirerConfig struct {
	// Sources are tried in order.
	Sources []Source
	// Limiter paces consecutive source attempts. Nil means no pacing.
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
}

// Acquirer tries sources in priority order until one yields a plausible count.
type Acquirer struct {
	cfg    AcquirerConfig
	logger *slog.Logger
}

func NewAcquirer(cfg AcquirerConfig, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{cfg: cfg, logger: logger}
}

// Acquire returns the first successful source result. It reports false when
// every source failed or ctx was cancelled; that is a normal outcome, not an error.
func (a *Acquirer) Acquire(ctx context.Context, handle string) (Result, bool) {
	for _, src := range a.cfg.Sources {
		if err := a.cfg.Limiter.Wait(ctx); err != nil {
			a.logger.Warn("acquisition aborted", "handle", handle, "err", err)
			return Result{}, false
		}

		start := time.Now()
		n, err := src.FetchCount(ctx, handle)
		elapsed := time.Since(start)

		if err != nil {
			a.cfg.Metrics.RecordAttempt(src.Name(), outcome(err), elapsed)
			a.logger.Warn("source failed",
				"source", src.Name(),
				"handle", handle,
				"duration", elapsed,
				"err", err,
			)
			if ctx.Err() != nil {
				return Result{}, false
			}
			continue
		}

		a.cfg.Metrics.RecordAttempt(src.Name(), metrics.OutcomeSuccess, elapsed)
		a.logger.Info("follower count acquired",
			"source", src.Name(),
			"handle", handle,
			"followers", n,
			"duration", elapsed,
		)
		return Result{Count: n, Source: src.Name()}, true
	}

	a.logger.Warn("all sources failed", "handle", handle, "sources", len(a.cfg.Sources))
	return Result{}, false
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrUnexpectedStatus):
		return metrics.OutcomeStatus
	case errors.Is(err, ErrNoCandidate):
		return metrics.OutcomeNoCandidate
	default:
		return metrics.OutcomeError
	}
}

// DefaultSources builds the standard chain: the Nitter mirrors in order,
// then SocialBlade. An empty socialBladeURL leaves SocialBlade out.
func DefaultSources(f *Fetcher, nitterInstances []string, socialBladeURL string) []Source {
	sources := make([]Source, 0, len(nitterInstances)+1)
	for _, base := range nitterInstances {
		sources = append(sources, NewNitterSource(base, f))
	}
	if socialBladeURL != "" {
		sources = append(sources, NewSocialBladeSource(socialBladeURL, f))
	}
	return sources
}
