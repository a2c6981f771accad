package tweeter

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/newscloud/classifieds-service/internal/config"
)

const defaultAPIBaseURL = "https://api.twitter.com"

// TwitterAPI talks to the Twitter REST API. It implements both
// StatusPoster and TimelineSource.
type TwitterAPI struct {
	client *resty.Client
}

func NewTwitterAPI(cfg *config.TwitterConfig) *TwitterAPI {
	client := resty.New().
		SetBaseURL(defaultAPIBaseURL).
		SetAuthToken(cfg.AccessToken)
	return &TwitterAPI{client: client}
}

// SetBaseURL overrides the API host, used by tests.
func (api *TwitterAPI) SetBaseURL(url string) {
	api.client.SetBaseURL(url)
}

func (api *TwitterAPI) PostStatus(ctx context.Context, status string) error {
	resp, err := api.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": status}).
		Post("/2/tweets")
	if err != nil {
		return fmt.Errorf("failed to post status: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to post status: API returned %s", resp.Status())
	}
	return nil
}

func (api *TwitterAPI) ListTimeline(ctx context.Context, user, list, sinceID string) ([]RawTweet, error) {
	var tweets []RawTweet
	req := api.client.R().
		SetContext(ctx).
		SetQueryParam("owner_screen_name", user).
		SetQueryParam("slug", list).
		SetQueryParam("include_entities", "true").
		SetResult(&tweets)
	if sinceID != "" {
		req.SetQueryParam("since_id", sinceID)
	}

	resp, err := req.Get("/1.1/lists/statuses.json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch list timeline: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch list timeline: API returned %s", resp.Status())
	}
	return tweets, nil
}
