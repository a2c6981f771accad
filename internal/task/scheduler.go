package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/newscloud/classifieds-service/internal/config"
	"github.com/newscloud/classifieds-service/internal/tweeter"
)

// Sweeper runs one pass over the overdue listings.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// HotItemTweeter announces the currently popular items.
type HotItemTweeter interface {
	TweetHotItems(ctx context.Context, sources ...tweeter.HotItemSource) error
}

// TimelineIngestor pulls new list-timeline entries into storage.
type TimelineIngestor interface {
	SaveList(ctx context.Context, user, list string) (int, error)
}

// IngestTarget names the list timeline the ingest job pulls from. An
// empty List disables the job.
type IngestTarget struct {
	User string
	List string
}

const jobTimeout = 5 * time.Minute

// Scheduler owns the background cron jobs: the expiration sweep and the
// periodic hot-item announcements.
type Scheduler struct {
	cron         *cron.Cron
	cfg          *config.SweepConfig
	sweeper      Sweeper
	tweeter      HotItemTweeter
	hotSources   []tweeter.HotItemSource
	ingestor     TimelineIngestor
	ingestTarget IngestTarget
	logger       *zap.Logger
}

func NewScheduler(
	cfg *config.SweepConfig,
	sweeper Sweeper,
	hotTweeter HotItemTweeter,
	hotSources []tweeter.HotItemSource,
	ingestor TimelineIngestor,
	ingestTarget IngestTarget,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		cfg:          cfg,
		sweeper:      sweeper,
		tweeter:      hotTweeter,
		hotSources:   hotSources,
		ingestor:     ingestor,
		ingestTarget: ingestTarget,
		logger:       logger,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ExpireSchedule, s.runSweep); err != nil {
		return fmt.Errorf("failed to schedule expiration sweep (%q): %w", s.cfg.ExpireSchedule, err)
	}

	if s.tweeter != nil {
		if _, err := s.cron.AddFunc(s.cfg.TweetSchedule, s.runHotItemTweets); err != nil {
			return fmt.Errorf("failed to schedule hot item tweets (%q): %w", s.cfg.TweetSchedule, err)
		}
	}

	if s.ingestor != nil && s.ingestTarget.List != "" {
		if _, err := s.cron.AddFunc(s.cfg.IngestSchedule, s.runIngest); err != nil {
			return fmt.Errorf("failed to schedule timeline ingest (%q): %w", s.cfg.IngestSchedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.String("expire_schedule", s.cfg.ExpireSchedule),
		zap.String("tweet_schedule", s.cfg.TweetSchedule),
		zap.String("ingest_schedule", s.cfg.IngestSchedule),
	)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	count, err := s.sweeper.SweepExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("Expiration sweep finished with failures",
			zap.Int("expired", count), zap.Error(err))
		return
	}
	s.logger.Info("Expiration sweep finished", zap.Int("expired", count))
}

func (s *Scheduler) runIngest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	saved, err := s.ingestor.SaveList(ctx, s.ingestTarget.User, s.ingestTarget.List)
	if err != nil {
		s.logger.Error("Timeline ingest failed",
			zap.String("user", s.ingestTarget.User),
			zap.String("list", s.ingestTarget.List),
			zap.Error(err))
		return
	}
	s.logger.Info("Timeline ingest finished", zap.Int("saved", saved))
}

func (s *Scheduler) runHotItemTweets() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	err := s.tweeter.TweetHotItems(ctx, s.hotSources...)
	if errors.Is(err, tweeter.ErrTweeterDisabled) {
		s.logger.Debug("Hot item tweeting disabled, skipping")
		return
	}
	if err != nil {
		s.logger.Error("Hot item tweeting failed", zap.Error(err))
	}
}
