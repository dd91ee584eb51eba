package publish

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhook relays posts as JSON to an automation endpoint that holds the
// channel credentials itself.
type Webhook struct {
	client *resty.Client
	url    string
}

type webhookPayload struct {
	Message        string `json:"message"`
	Handle         string `json:"handle"`
	FollowersCount int64  `json:"followers_count"`
	Change         *int64 `json:"change"`
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	client := resty.New()
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(timeout)
	return &Webhook{client: client, url: url}
}

func (w *Webhook) Name() string {
	return KindWebhook
}

// Publish succeeds only on HTTP 200.
func (w *Webhook) Publish(ctx context.Context, m Message) (Receipt, error) {
	res, err := w.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{
			Message:        m.Text,
			Handle:         m.Handle,
			FollowersCount: m.Count,
			Change:         m.Delta,
		}).
		Post(w.url)
	if err != nil {
		return Receipt{}, fmt.Errorf("post to webhook: %w", err)
	}

	if res.StatusCode() != http.StatusOK {
		return Receipt{}, fmt.Errorf("%w: webhook returned %d: %s", ErrRejected, res.StatusCode(), snippet(res.Body()))
	}
	return Receipt{}, nil
}
