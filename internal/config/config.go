package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	NATS    NATSConfig    `mapstructure:"nats"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	S3      S3Config      `mapstructure:"s3"`
	Twitter TwitterConfig `mapstructure:"twitter"`
	Sweep   SweepConfig   `mapstructure:"sweep"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Site    SiteConfig    `mapstructure:"site"`
}

type SiteConfig struct {
	// BaseURL is the public site root used when links are built for
	// outbound tweets and share markup.
	BaseURL string `mapstructure:"base_url"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type TwitterConfig struct {
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	AccessToken    string `mapstructure:"access_token"`
	AccessSecret   string `mapstructure:"access_secret"`
	ScreenName     string `mapstructure:"screen_name"`
	// IngestList is the slug of the list timeline to ingest. Empty
	// disables ingestion.
	IngestList string `mapstructure:"ingest_list"`
	// TweetPopularItems enables the periodic hot-item announcements.
	TweetPopularItems bool `mapstructure:"tweet_popular_items"`
	// TweetModeratorItems enables announcing moderator items.
	TweetModeratorItems bool `mapstructure:"tweet_moderator_items"`
}

type SweepConfig struct {
	// Cron expressions for the background jobs.
	ExpireSchedule string `mapstructure:"expire_schedule"`
	TweetSchedule  string `mapstructure:"tweet_schedule"`
	IngestSchedule string `mapstructure:"ingest_schedule"`
}

type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "classifieds_service_db")
	viper.SetDefault("mongo.connect_timeout", "10s")
	viper.SetDefault("mongo.min_pool_size", 0)
	viper.SetDefault("mongo.max_pool_size", 100)

	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.connect_timeout", "5s")

	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from", "noreply@classifieds.local")

	viper.SetDefault("s3.endpoint", "localhost:9000")
	viper.SetDefault("s3.access_key", "minioadmin")
	viper.SetDefault("s3.secret_key", "minioadmin")
	viper.SetDefault("s3.bucket", "listing-photos")
	viper.SetDefault("s3.use_ssl", false)

	viper.SetDefault("sweep.expire_schedule", "@hourly")
	viper.SetDefault("sweep.tweet_schedule", "*/30 * * * *")
	viper.SetDefault("sweep.ingest_schedule", "*/15 * * * *")

	viper.SetDefault("twitter.tweet_popular_items", false)
	viper.SetDefault("twitter.tweet_moderator_items", false)

	viper.SetDefault("site.base_url", "http://localhost:8080")

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.otlp_endpoint", "localhost:4317")
	viper.SetDefault("tracing.service_name", "classifieds-service")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		if fi, _ := os.Stat(path); !fi.IsDir() {
			viper.SetConfigFile(path)
		} else {
			viper.AddConfigPath(path)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CLASSIFIEDS") // e.g. CLASSIFIEDS_MONGO_URI

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found; using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
