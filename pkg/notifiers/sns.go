package notifiers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsClient is the subset of the SNS client used here.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsSender struct {
	topicARN string
	client   snsClient
	log      Logger
}

func newSNSSender(ctx context.Context, s Settings, log Logger) (Sender, error) {
	topic := strings.TrimSpace(s.SNSTopicARN)
	if topic == "" {
		return nil, &ConfigError{Kind: KindSNS, Reason: "sns_topic_arn is required"}
	}

	awsCfg, err := loadAWSConfig(ctx, s)
	if err != nil {
		return nil, &ConfigError{Kind: KindSNS, Reason: "aws config", Err: err}
	}

	return &snsSender{
		topicARN: topic,
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *snsSender) Kind() string { return KindSNS }

// Send publishes the message text; the level travels as a message attribute so
// subscribers can filter on it.
func (s *snsSender) Send(ctx context.Context, msg Message) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(msg.Text),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"level": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(msg.Level)),
			},
		},
	}

	out, err := s.client.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("publish to sns: %w", err)
	}
	s.log.DebugObj("sns notification published", "notifier_sns_delivery", map[string]any{
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
