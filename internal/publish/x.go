package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// X posts through the X API v2 create-post endpoint with a user-context
// bearer token obtained elsewhere.
type X struct {
	client *resty.Client
}

type createPostRequest struct {
	Text string `json:"text"`
}

type createPostResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func NewX(baseURL, bearerToken string, timeout time.Duration) *X {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetAuthToken(bearerToken)
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(timeout)
	return &X{client: client}
}

func (x *X) Name() string {
	return KindX
}

func (x *X) Publish(ctx context.Context, m Message) (Receipt, error) {
	res, err := x.client.R().
		SetContext(ctx).
		SetBody(createPostRequest{Text: m.Text}).
		Post("/2/tweets")
	if err != nil {
		return Receipt{}, fmt.Errorf("post to x: %w", err)
	}

	if res.StatusCode() != http.StatusCreated && res.StatusCode() != http.StatusOK {
		return Receipt{}, fmt.Errorf("%w: x returned %d: %s", ErrRejected, res.StatusCode(), snippet(res.Body()))
	}

	var created createPostResponse
	if err := json.Unmarshal(res.Body(), &created); err != nil {
		return Receipt{}, fmt.Errorf("decode x response: %w", err)
	}

	r := Receipt{ID: created.Data.ID}
	if r.ID != "" {
		r.URL = "https://x.com/i/status/" + r.ID
	}
	return r, nil
}
