package apify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Actor IDs of the scraping actors this service drives.
const (
	ActorInstagramPosts    = "apify~instagram-post-scraper"
	ActorInstagramComments = "apify~instagram-comment-scraper"
	ActorFacebookComments  = "apify~facebook-comments-scraper"
)

type Options struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client drives Apify actors synchronously and returns the raw dataset
// items they produce. Items are heterogeneous across actors; decoding into
// a tagged variant happens at the caller's boundary.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

func NewClient(opts Options, logger zerolog.Logger) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, fmt.Errorf("apify token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.apify.com/v2"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetQueryParam("token", token).
		SetHeader("Content-Type", "application/json")

	return &Client{http: http, logger: logger}, nil
}

// RunActorSync starts an actor run with the given input, waits for it to
// finish and returns the default dataset's items. A failure here is
// systemic for the pipeline run: no partial progress is possible without
// source data.
func (c *Client) RunActorSync(ctx context.Context, actorID string, input any) ([]json.RawMessage, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("apify client is not initialized")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}

	var items []json.RawMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(input).
		SetResult(&items).
		Post(fmt.Sprintf("/acts/%s/run-sync-get-dataset-items", actorID))
	if err != nil {
		return nil, fmt.Errorf("run actor %s: %w", actorID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("run actor %s: unexpected status %s: %s", actorID, resp.Status(), truncate(resp.String(), 300))
	}

	c.logger.Debug().Str("actor", actorID).Int("items", len(items)).Msg("actor run finished")
	return items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
