package notifiers

import "time"

// Settings carries the transport configuration for every kind. Only the fields of the
// kind being built are consulted.
type Settings struct {
	SlackToken   string
	SlackChannel string
	SlackAPIURL  string

	WebhookURL string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SNSTopicARN        string
	SQSQueueURL        string

	PubSubProject         string
	PubSubTopic           string
	PubSubCredentialsFile string

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
	EmailTo   string

	// Timeout bounds HTTP transports. Zero means defaultTimeout.
	Timeout time.Duration
}

const defaultTimeout = 10 * time.Second

func (s Settings) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}
