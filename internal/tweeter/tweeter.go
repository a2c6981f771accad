package tweeter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/newscloud/classifieds-service/internal/config"
)

var (
	// ErrTweeterDisabled means neither popular-item nor moderator-item
	// tweeting is switched on.
	ErrTweeterDisabled = errors.New("tweeter is disabled: enable tweet_popular_items or tweet_moderator_items")
	// ErrTweeterNotConfigured means the OAuth credentials are missing or
	// still set to the shipped placeholder values.
	ErrTweeterNotConfigured = errors.New("tweeter is not configured: set real oauth credentials")
)

// Placeholder credentials shipped with the default install. Finding them
// in the config means the operator never ran the connect setup.
const (
	placeholderKey    = "U6qjcn193333331AuA"
	placeholderSecret = "Heu0GGaRuzn762323gg0qFGWCp923viG8Haw"
)

// StatusPoster posts a status update to the timeline.
type StatusPoster interface {
	PostStatus(ctx context.Context, status string) error
}

// Shortener shortens a URL before it goes into a status. The default is
// a passthrough that returns the URL unchanged.
type Shortener interface {
	Shorten(ctx context.Context, url string) (string, error)
}

type passthroughShortener struct{}

func (passthroughShortener) Shorten(_ context.Context, url string) (string, error) {
	return url, nil
}

// Item is anything that can be announced on the timeline.
type Item interface {
	ItemTitle() string
	ItemURL() string
}

// HotItemSource yields the currently popular items of one content kind.
type HotItemSource interface {
	HotItems(ctx context.Context) ([]Item, error)
}

type Options struct {
	// TweetPopularItems enables announcing hot items.
	TweetPopularItems bool
	// TweetModeratorItems enables announcing every moderator item.
	TweetModeratorItems bool
}

type Tweeter struct {
	poster    StatusPoster
	shortener Shortener
	opts      Options
	logger    *zap.Logger
}

func NewTweeter(cfg *config.TwitterConfig, poster StatusPoster, shortener Shortener, opts Options, logger *zap.Logger) (*Tweeter, error) {
	if err := checkCredentials(cfg); err != nil {
		return nil, err
	}
	if shortener == nil {
		shortener = passthroughShortener{}
	}
	return &Tweeter{
		poster:    poster,
		shortener: shortener,
		opts:      opts,
		logger:    logger,
	}, nil
}

func checkCredentials(cfg *config.TwitterConfig) error {
	creds := []string{cfg.ConsumerKey, cfg.ConsumerSecret, cfg.AccessToken, cfg.AccessSecret}
	for _, c := range creds {
		if c == "" || c == placeholderKey || c == placeholderSecret {
			return ErrTweeterNotConfigured
		}
	}
	return nil
}

// TweetItem announces a single item. Posting failures are logged and
// swallowed so one bad item never aborts a batch.
func (t *Tweeter) TweetItem(ctx context.Context, item Item) error {
	if !t.opts.TweetPopularItems && !t.opts.TweetModeratorItems {
		return ErrTweeterDisabled
	}

	link, err := t.shortener.Shorten(ctx, item.ItemURL())
	if err != nil {
		t.logger.Warn("URL shortening failed, using full URL",
			zap.String("url", item.ItemURL()),
			zap.Error(err),
		)
		link = item.ItemURL()
	}

	status := fmt.Sprintf("%s %s", item.ItemTitle(), link)
	if err := t.poster.PostStatus(ctx, status); err != nil {
		t.logger.Error("Failed to tweet item",
			zap.String("status", status),
			zap.Error(err),
		)
		return nil
	}
	return nil
}

func (t *Tweeter) TweetItems(ctx context.Context, items []Item) error {
	for _, item := range items {
		if err := t.TweetItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// TweetHotItems announces the hot items of every registered source.
func (t *Tweeter) TweetHotItems(ctx context.Context, sources ...HotItemSource) error {
	if !t.opts.TweetPopularItems {
		return ErrTweeterDisabled
	}

	for _, source := range sources {
		items, err := source.HotItems(ctx)
		if err != nil {
			t.logger.Error("Failed to fetch hot items", zap.Error(err))
			continue
		}
		if len(items) == 0 {
			continue
		}
		if err := t.TweetItems(ctx, items); err != nil {
			return err
		}
	}
	return nil
}
