package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName      string `mapstructure:"app_name"`
	Env          string `mapstructure:"app_env"`
	LogLevel     string `mapstructure:"log_level"`
	CatalogsFile string `mapstructure:"catalogs_file"`
	DatabaseURL  string `mapstructure:"database_url"`

	Notifier     string `mapstructure:"notifier"`
	SlackToken   string `mapstructure:"slack_token"`
	SlackChannel string `mapstructure:"slack_channel"`
	SlackAPIURL  string `mapstructure:"slack_api_url"`
	WebhookURL   string `mapstructure:"webhook_url"`

	AWSRegion          string `mapstructure:"aws_region"`
	AWSAccessKeyID     string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string `mapstructure:"aws_secret_access_key"`
	SNSTopicARN        string `mapstructure:"sns_topic_arn"`
	SQSQueueURL        string `mapstructure:"sqs_queue_url"`

	PubSubProject         string `mapstructure:"pubsub_project"`
	PubSubTopic           string `mapstructure:"pubsub_topic"`
	PubSubCredentialsFile string `mapstructure:"pubsub_credentials_file"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisChannel  string `mapstructure:"redis_channel"`

	SMTPHost  string `mapstructure:"smtp_host"`
	SMTPPort  int    `mapstructure:"smtp_port"`
	SMTPUser  string `mapstructure:"smtp_user"`
	SMTPPass  string `mapstructure:"smtp_pass"`
	EmailFrom string `mapstructure:"email_from"`
	EmailTo   string `mapstructure:"email_to"`

	CrawlSchedule string `mapstructure:"crawl_schedule"`
	HTTPAddr      string `mapstructure:"http_addr"`
	TriggerQueue  int    `mapstructure:"trigger_queue"`
	MaxPages      int    `mapstructure:"max_pages"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "catalog-crawler")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("catalogs_file", "./configs/catalogs.yaml")
	v.SetDefault("database_url", "")

	v.SetDefault("notifier", "slack")
	v.SetDefault("slack_token", "")
	v.SetDefault("slack_channel", "")
	v.SetDefault("slack_api_url", "https://slack.com/api")
	v.SetDefault("webhook_url", "")

	v.SetDefault("aws_region", "")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")
	v.SetDefault("sns_topic_arn", "")
	v.SetDefault("sqs_queue_url", "")

	v.SetDefault("pubsub_project", "")
	v.SetDefault("pubsub_topic", "")
	v.SetDefault("pubsub_credentials_file", "")

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_channel", "catalog-crawler")

	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_pass", "")
	v.SetDefault("email_from", "")
	v.SetDefault("email_to", "")

	v.SetDefault("crawl_schedule", "@every 15m")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("trigger_queue", 1)
	v.SetDefault("max_pages", 0)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if !strings.Contains(c.DatabaseURL, ":") {
		return fmt.Errorf("invalid database_url (expected <vendor>:<location>)")
	}

	c.Notifier = strings.ToLower(strings.TrimSpace(c.Notifier))
	if c.Notifier == "" {
		return fmt.Errorf("notifier is required")
	}

	if c.TriggerQueue <= 0 {
		return fmt.Errorf("invalid trigger_queue (must be positive)")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("invalid max_pages (must be zero or positive)")
	}

	c.CrawlSchedule = strings.TrimSpace(c.CrawlSchedule)
	if c.CrawlSchedule != "" {
		if _, err := cron.ParseStandard(c.CrawlSchedule); err != nil {
			return fmt.Errorf("invalid crawl_schedule %q: %w", c.CrawlSchedule, err)
		}
	}
	return nil
}
