package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// sqsClient defines the minimal subset of the SQS client used by sqsSender.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsSender struct {
	queueURL string
	client   sqsClient
	log      Logger
}

func newSQSSender(ctx context.Context, s Settings, log Logger) (Sender, error) {
	queue := strings.TrimSpace(s.SQSQueueURL)
	if queue == "" {
		return nil, &ConfigError{Kind: KindSQS, Reason: "sqs_queue_url is required"}
	}

	awsCfg, err := loadAWSConfig(ctx, s)
	if err != nil {
		return nil, &ConfigError{Kind: KindSQS, Reason: "aws config", Err: err}
	}

	return &sqsSender{
		queueURL: queue,
		client:   sqs.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *sqsSender) Kind() string { return KindSQS }

// Send enqueues the JSON-encoded message.
func (s *sqsSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"level": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(msg.Level)),
			},
		},
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs notification delivered", "notifier_sqs_delivery", map[string]any{
		"queue_url": s.queueURL,
	})
	return nil
}
