// Package metrics records what happened during a tracking run: which sources
// were tried and how they fared, the resulting follower figures, and the
// publish outcome. A run is a short-lived process, so the registry is written
// to a node_exporter textfile instead of being served.
//
// Metrics exposed:
//   - followtrack_source_attempts_total: source attempts by source and outcome
//   - followtrack_source_duration_seconds: source fetch+extract latency
//   - followtrack_proxy_failures_total: request failures attributed to a proxy
//   - followtrack_followers: last acquired follower count per handle
//   - followtrack_followers_change: change over the comparison window per handle
//   - followtrack_publish_total: publish attempts by publisher and outcome
//   - followtrack_last_run_timestamp_seconds: completion time of the run
//
// All methods are no-ops on a nil *Metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeStatus      = "bad_status"
	OutcomeNoCandidate = "no_candidate"
	OutcomeError       = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	SourceAttempts *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec
	ProxyFailures  *prometheus.CounterVec
	Followers      *prometheus.GaugeVec
	FollowerChange *prometheus.GaugeVec
	Publishes      *prometheus.CounterVec
	LastRun        prometheus.Gauge
}

// New creates the run's metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SourceAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "followtrack_source_attempts_total",
			Help: "Follower count source attempts by source and outcome",
		}, []string{"source", "outcome"}),

		SourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "followtrack_source_duration_seconds",
			Help:    "Duration of a source fetch and extraction in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
		}, []string{"source"}),

		ProxyFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "followtrack_proxy_failures_total",
			Help: "Request failures attributed to a proxy",
		}, []string{"proxy_url"}),

		Followers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "followtrack_followers",
			Help: "Last acquired follower count",
		}, []string{"handle"}),

		FollowerChange: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "followtrack_followers_change",
			Help: "Follower change against the sample nearest 24 hours ago",
		}, []string{"handle"}),

		Publishes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "followtrack_publish_total",
			Help: "Publish attempts by publisher and outcome",
		}, []string{"publisher", "outcome"}),

		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "followtrack_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordAttempt(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SourceAttempts.WithLabelValues(source, outcome).Inc()
	m.SourceDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) RecordProxyFailure(proxyURL string) {
	if m == nil {
		return
	}
	m.ProxyFailures.WithLabelValues(proxyURL).Inc()
}

// RecordFollowers sets the follower gauges. A nil change leaves the change
// gauge untouched (first observation of a handle).
func (m *Metrics) RecordFollowers(handle string, followers int64, change *int64) {
	if m == nil {
		return
	}
	m.Followers.WithLabelValues(handle).Set(float64(followers))
	if change != nil {
		m.FollowerChange.WithLabelValues(handle).Set(float64(*change))
	}
}

func (m *Metrics) RecordPublish(publisher string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.Publishes.WithLabelValues(publisher, outcome).Inc()
}

// Finish stamps the run completion time and, when path is non-empty, writes
// the registry atomically to a node_exporter textfile.
func (m *Metrics) Finish(path string, now time.Time) error {
	if m == nil {
		return nil
	}
	m.LastRun.Set(float64(now.Unix()))
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
