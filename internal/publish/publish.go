// Package publish delivers rendered posts to an outbound channel: the X
// posting API, a webhook relay, or a writer for dry runs.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

var (
	// ErrMissingCredentials is returned when the selected channel lacks a token or URL.
	ErrMissingCredentials = errors.New("publish: missing credentials")
	// ErrRejected is returned when the channel answered with a non-success status.
	ErrRejected = errors.New("publish: rejected")
)

// Message is a rendered post plus the figures it was rendered from.
type Message struct {
	Handle string
	Text   string
	Count  int64
	// Delta is nil for a first observation or a failure notice.
	Delta *int64
}

// Receipt identifies what the channel created, when it says so.
type Receipt struct {
	ID  string
	URL string
}

type Publisher interface {
	Name() string
	Publish(ctx context.Context, m Message) (Receipt, error)
}

const (
	KindX       = "x"
	KindWebhook = "webhook"
	KindStdout  = "stdout"
)

const DefaultXAPIURL = "https://api.x.com"

// Config selects and configures a Publisher.
type Config struct {
	Kind         string
	XBearerToken string
	XAPIURL      string
	WebhookURL   string
	Timeout      time.Duration
	// Out receives stdout publisher output; nil means os.Stdout.
	Out io.Writer
}

// New builds the Publisher named by cfg.Kind.
func New(cfg Config) (Publisher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	switch strings.ToLower(cfg.Kind) {
	case KindX, "":
		if cfg.XBearerToken == "" {
			return nil, fmt.Errorf("%w: X_BEARER_TOKEN is not set", ErrMissingCredentials)
		}
		if cfg.XAPIURL == "" {
			cfg.XAPIURL = DefaultXAPIURL
		}
		return NewX(cfg.XAPIURL, cfg.XBearerToken, cfg.Timeout), nil
	case KindWebhook:
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("%w: WEBHOOK_URL is not set", ErrMissingCredentials)
		}
		return NewWebhook(cfg.WebhookURL, cfg.Timeout), nil
	case KindStdout:
		out := cfg.Out
		if out == nil {
			out = os.Stdout
		}
		return NewStdout(out), nil
	default:
		return nil, fmt.Errorf("publish: unknown publisher %q", cfg.Kind)
	}
}

// snippet shortens a response body for error messages.
func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// Unavailable stands in for a publisher that could not be built. Every
// Publish returns Err, so a run still acquires and saves history.
type Unavailable struct {
	Kind string
	Err  error
}

func (u Unavailable) Name() string {
	return u.Kind
}

func (u Unavailable) Publish(ctx context.Context, m Message) (Receipt, error) {
	return Receipt{}, u.Err
}
