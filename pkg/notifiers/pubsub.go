package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubsubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// newPubSubSender requires the topic to exist already. PUBSUB_EMULATOR_HOST is honored
// by the client library.
func newPubSubSender(ctx context.Context, s Settings, _ Logger) (Sender, error) {
	project := strings.TrimSpace(s.PubSubProject)
	topicName := strings.TrimSpace(s.PubSubTopic)
	if project == "" {
		return nil, &ConfigError{Kind: KindPubSub, Reason: "pubsub_project is required"}
	}
	if topicName == "" {
		return nil, &ConfigError{Kind: KindPubSub, Reason: "pubsub_topic is required"}
	}

	var opts []option.ClientOption
	if file := strings.TrimSpace(s.PubSubCredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}

	client, err := pubsub.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, &ConfigError{Kind: KindPubSub, Reason: "create client", Err: err}
	}

	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, &ConfigError{Kind: KindPubSub, Reason: "check topic", Err: err}
	}
	if !exists {
		client.Close()
		return nil, &ConfigError{Kind: KindPubSub, Reason: fmt.Sprintf("topic %q does not exist", topicName)}
	}

	return &pubsubSender{client: client, topic: topic}, nil
}

func (p *pubsubSender) Kind() string { return KindPubSub }

// Send publishes and waits for the server ack.
func (p *pubsubSender) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"level": string(msg.Level)},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	return nil
}

func (p *pubsubSender) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
