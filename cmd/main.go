package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	redisAdapter "github.com/newscloud/classifieds-service/internal/adapter/cache/redis"
	"github.com/newscloud/classifieds-service/internal/adapter/email"
	mongoAdapter "github.com/newscloud/classifieds-service/internal/adapter/mongo"
	natsAdapter "github.com/newscloud/classifieds-service/internal/adapter/nats"
	s3Adapter "github.com/newscloud/classifieds-service/internal/adapter/storage/s3"
	"github.com/newscloud/classifieds-service/internal/config"
	contentdomain "github.com/newscloud/classifieds-service/internal/content/domain"
	contentusecase "github.com/newscloud/classifieds-service/internal/content/usecase"
	listingusecase "github.com/newscloud/classifieds-service/internal/listing/usecase"
	"github.com/newscloud/classifieds-service/internal/platform/tracer"
	"github.com/newscloud/classifieds-service/internal/task"
	"github.com/newscloud/classifieds-service/internal/tweeter"
)

func main() {
	configPath := "config.yaml"
	if cp := os.Getenv("CONFIG_PATH"); cp != "" {
		configPath = cp
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapConfig := zap.NewProductionConfig()
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully!",
		zap.String("mongo_uri", cfg.Mongo.URI),
		zap.String("mongo_database", cfg.Mongo.Database),
	)

	if cfg.Tracing.Enabled {
		tp, err := tracer.InitTracer(&cfg.Tracing)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("Failed to shut down tracer", zap.Error(err))
			}
		}()
	}

	mongoClient, err := mongoAdapter.NewConnection(&cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.TODO()); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		} else {
			logger.Info("MongoDB connection closed.")
		}
	}()

	redisClient, err := redisAdapter.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	cacheRepo := redisAdapter.NewCacheRepository(redisClient, logger)

	publisher, err := natsAdapter.NewNATSPublisher(&cfg.NATS, logger)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()

	mailer, err := email.NewMailer(&cfg.SMTP, logger)
	if err != nil {
		logger.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	photoStorage, err := s3Adapter.NewS3Storage(&cfg.S3, logger)
	if err != nil {
		logger.Fatal("Failed to initialize photo storage", zap.Error(err))
	}

	listingRepo := mongoAdapter.NewListingMongoRepository(mongoClient, cfg.Mongo.Database)
	loanRepo := mongoAdapter.NewLoanMongoRepository(mongoClient, cfg.Mongo.Database)
	tagRegistry := mongoAdapter.NewTagMongoRegistry(mongoClient, cfg.Mongo.Database)
	friendshipRepo := mongoAdapter.NewFriendshipMongoRepository(mongoClient, cfg.Mongo.Database)
	userRepo := mongoAdapter.NewUserMongoRepository(mongoClient, cfg.Mongo.Database)
	contentRepo := mongoAdapter.NewContentMongoRepository(mongoClient, cfg.Mongo.Database)
	voteRepo := mongoAdapter.NewVoteMongoRepository(mongoClient, cfg.Mongo.Database)
	logger.Info("Repositories initialized")

	listingUC := listingusecase.NewListingUsecase(listingRepo, loanRepo, tagRegistry, friendshipRepo, publisher, cacheRepo, logger, nil)
	photoUC := listingusecase.NewPhotoUsecase(photoStorage, listingRepo, logger, nil)
	contentUC := contentusecase.NewContentUsecase(contentRepo, voteRepo, publisher, cacheRepo, logger, nil)
	sweeper := listingusecase.NewExpirationSweeper(listingRepo, listingUC, mailer, userRepo, logger)
	_ = photoUC
	logger.Info("Use cases initialized")

	var hotTweeter task.HotItemTweeter
	var hotSources []tweeter.HotItemSource
	var ingestor task.TimelineIngestor
	twitterAPI := tweeter.NewTwitterAPI(&cfg.Twitter)
	tw, err := tweeter.NewTweeter(&cfg.Twitter, twitterAPI, nil, tweeter.Options{
		TweetPopularItems:   cfg.Twitter.TweetPopularItems,
		TweetModeratorItems: cfg.Twitter.TweetModeratorItems,
	}, logger)
	switch {
	case errors.Is(err, tweeter.ErrTweeterNotConfigured):
		logger.Warn("Twitter credentials not configured, hot item tweeting and ingestion disabled")
	case err != nil:
		logger.Fatal("Failed to initialize tweeter", zap.Error(err))
	default:
		hotTweeter = tw
		hotSources = []tweeter.HotItemSource{
			&topArticlesSource{uc: contentUC, baseURL: cfg.Site.BaseURL},
		}
		tweetRepo := mongoAdapter.NewTweetMongoRepository(mongoClient, cfg.Mongo.Database)
		ingestor = tweeter.NewListIngestor(twitterAPI, tweetRepo, tweeter.NewURLResolver(), logger)
	}

	ingestTarget := task.IngestTarget{User: cfg.Twitter.ScreenName, List: cfg.Twitter.IngestList}
	scheduler := task.NewScheduler(&cfg.Sweep, sweeper, hotTweeter, hotSources, ingestor, ingestTarget, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	logger.Info("Classifieds service setup complete.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received, stopping...")
}

// topArticlesSource feeds the most voted articles to the tweeter.
type topArticlesSource struct {
	uc      *contentusecase.ContentUsecase
	baseURL string
}

func (s *topArticlesSource) HotItems(ctx context.Context) ([]tweeter.Item, error) {
	articles, err := s.uc.TopArticles(ctx, contentusecase.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	items := make([]tweeter.Item, 0, len(articles))
	for _, a := range articles {
		items = append(items, contentItem{content: a, baseURL: s.baseURL})
	}
	return items, nil
}

type contentItem struct {
	content *contentdomain.Content
	baseURL string
}

func (i contentItem) ItemTitle() string { return i.content.Title }
func (i contentItem) ItemURL() string   { return i.baseURL + "/contents/" + i.content.ID }
