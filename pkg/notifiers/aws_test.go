package notifiers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-456")}, nil
}

func TestSNSSenderSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	sender := &snsSender{topicARN: "arn:aws:sns:::deals", client: client, log: noopLogger{}}

	err := sender.Send(context.Background(), Message{Level: LevelWarning, Text: WarningText("check me")})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::deals" {
		t.Fatalf("TopicArn = %s", got)
	}
	if got := aws.ToString(client.input.Message); got != WarningText("check me") {
		t.Fatalf("Message = %q", got)
	}
	attr, ok := client.input.MessageAttributes["level"]
	if !ok || aws.ToString(attr.StringValue) != "warning" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("level attribute missing or wrong: %#v", attr)
	}
}

func TestSNSSenderSendError(t *testing.T) {
	sender := &snsSender{topicARN: "arn", client: &fakeSNSClient{err: errors.New("boom")}, log: noopLogger{}}
	if err := sender.Send(context.Background(), Message{Text: "x"}); err == nil {
		t.Fatalf("expected error from Send")
	}
}

func TestSQSSenderSendsJSONBody(t *testing.T) {
	client := &fakeSQSClient{}
	sender := &sqsSender{queueURL: "https://sqs.example/queue", client: client, log: noopLogger{}}

	if err := sender.Send(context.Background(), Message{Level: LevelAlert, Text: AlertText("db down")}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://sqs.example/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}

	var body Message
	if err := json.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Level != LevelAlert || body.Text != AlertText("db down") {
		t.Fatalf("unexpected body %+v", body)
	}
	if attr := client.input.MessageAttributes["level"]; aws.ToString(attr.StringValue) != "alert" {
		t.Fatalf("level attribute = %#v", attr)
	}
}

func TestSQSSenderRequiresQueueURL(t *testing.T) {
	_, err := newSQSSender(context.Background(), Settings{}, nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != KindSQS {
		t.Fatalf("expected sqs ConfigError, got %v", err)
	}
}

func TestSNSSenderBuildsWithStaticCredentials(t *testing.T) {
	raw, err := newSNSSender(context.Background(), Settings{
		SNSTopicARN:        "arn:aws:sns:eu-west-1:000000000000:deals",
		AWSRegion:          "eu-west-1",
		AWSAccessKeyID:     "AKIDEXAMPLE",
		AWSSecretAccessKey: "secret",
	}, nil)
	if err != nil {
		t.Fatalf("newSNSSender: %v", err)
	}
	if raw.Kind() != KindSNS {
		t.Fatalf("unexpected kind %q", raw.Kind())
	}
}
