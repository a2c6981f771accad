package tweeter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Tweet is one ingested timeline entry with its expanded URLs.
type Tweet struct {
	TwitterID string
	Text      string
	Raw       json.RawMessage
	URLs      []string
	CreatedAt time.Time
}

// TimelineSource fetches the raw entries of a list timeline.
type TimelineSource interface {
	ListTimeline(ctx context.Context, user, list, sinceID string) ([]RawTweet, error)
}

// RawTweet is a timeline entry as the upstream API returns it.
type RawTweet struct {
	IDStr    string `json:"id_str"`
	Text     string `json:"text"`
	Entities struct {
		URLs []struct {
			URL string `json:"url"`
		} `json:"urls"`
	} `json:"entities"`
}

// TweetRepository persists ingested tweets.
type TweetRepository interface {
	Save(ctx context.Context, tweet *Tweet) error
	LastTwitterID(ctx context.Context) (string, error)
}

// ListIngestor pulls a list timeline, expands every shortened URL and
// stores the result.
type ListIngestor struct {
	source   TimelineSource
	repo     TweetRepository
	resolver *URLResolver
	logger   *zap.Logger
}

func NewListIngestor(source TimelineSource, repo TweetRepository, resolver *URLResolver, logger *zap.Logger) *ListIngestor {
	return &ListIngestor{
		source:   source,
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// FetchListURLs returns the expanded URLs mentioned in a list timeline
// without persisting anything.
func (li *ListIngestor) FetchListURLs(ctx context.Context, user, list string) ([]string, error) {
	raw, err := li.source.ListTimeline(ctx, user, list, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch list timeline %s/%s: %w", user, list, err)
	}

	var urls []string
	for _, t := range raw {
		urls = append(urls, ExtractURLs(t.Text)...)
	}
	return li.resolver.ResolveURLs(ctx, urls), nil
}

// SaveList ingests the timeline entries newer than the last stored one.
func (li *ListIngestor) SaveList(ctx context.Context, user, list string) (int, error) {
	sinceID, err := li.repo.LastTwitterID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read last ingested tweet id: %w", err)
	}

	raw, err := li.source.ListTimeline(ctx, user, list, sinceID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch list timeline %s/%s: %w", user, list, err)
	}

	saved := 0
	for _, rt := range raw {
		rawJSON, err := json.Marshal(rt)
		if err != nil {
			li.logger.Error("Failed to marshal raw tweet", zap.String("twitter_id", rt.IDStr), zap.Error(err))
			continue
		}

		entityURLs := make([]string, 0, len(rt.Entities.URLs))
		for _, u := range rt.Entities.URLs {
			entityURLs = append(entityURLs, u.URL)
		}

		tweet := &Tweet{
			TwitterID: rt.IDStr,
			Text:      rt.Text,
			Raw:       rawJSON,
			URLs:      li.resolver.ResolveURLs(ctx, entityURLs),
			CreatedAt: time.Now(),
		}
		if err := li.repo.Save(ctx, tweet); err != nil {
			li.logger.Error("Failed to save tweet", zap.String("twitter_id", rt.IDStr), zap.Error(err))
			continue
		}
		saved++
	}
	return saved, nil
}
