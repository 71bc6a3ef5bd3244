package notifiers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/catalog-crawler/pkg/httpclient"
)

const (
	defaultSlackAPIURL = "https://slack.com/api"
	slackListPageSize  = 200
)

type slackChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// slackResponse covers the fields read from conversations.* and chat.postMessage.
type slackResponse struct {
	OK       bool           `json:"ok"`
	Error    string         `json:"error"`
	Channel  slackChannel   `json:"channel"`
	Channels []slackChannel `json:"channels"`
	Metadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// slackSender posts to one channel through the Slack Web API.
type slackSender struct {
	client    *resty.Client
	channel   string
	channelID string
	log       Logger
}

// newSlackSender ensures the channel exists and the bot is a member. Failing to resolve
// the channel id is a construction error; a failed join is only logged.
func newSlackSender(ctx context.Context, s Settings, log Logger) (Sender, error) {
	token := strings.TrimSpace(s.SlackToken)
	channel := strings.TrimPrefix(strings.TrimSpace(s.SlackChannel), "#")
	if token == "" {
		return nil, &ConfigError{Kind: KindSlack, Reason: "slack_token is required"}
	}
	if channel == "" {
		return nil, &ConfigError{Kind: KindSlack, Reason: "slack_channel is required"}
	}

	apiURL := strings.TrimRight(strings.TrimSpace(s.SlackAPIURL), "/")
	if apiURL == "" {
		apiURL = defaultSlackAPIURL
	}

	client := httpclient.NewRestyHTTPClient(httpclient.Options{Timeout: s.timeout(), BaseURL: apiURL}).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json; charset=utf-8")

	sender := &slackSender{client: client, channel: channel, log: ensureLogger(log)}

	id, err := sender.create(ctx)
	if err != nil {
		sender.log.WarnObj("slack channel create failed, looking it up", "slack_channel", map[string]any{
			"channel": channel,
			"error":   err.Error(),
		})
	}
	if id == "" {
		id, err = sender.lookup(ctx)
		if err != nil {
			return nil, &ConfigError{Kind: KindSlack, Reason: fmt.Sprintf("resolve channel %q", channel), Err: err}
		}
	}
	sender.channelID = id

	if err := sender.join(ctx); err != nil {
		sender.log.WarnObj("slack channel join failed", "slack_channel", map[string]any{
			"channel":    channel,
			"channel_id": id,
			"error":      err.Error(),
		})
	}
	return sender, nil
}

func (s *slackSender) Kind() string { return KindSlack }

func (s *slackSender) Send(ctx context.Context, msg Message) error {
	_, err := s.call(ctx, "chat.postMessage", map[string]any{
		"channel": s.channelID,
		"text":    msg.Text,
	})
	return err
}

// create returns the new channel's id. name_taken yields an empty id and no error.
func (s *slackSender) create(ctx context.Context) (string, error) {
	out, err := s.call(ctx, "conversations.create", map[string]any{"name": s.channel})
	if err != nil {
		var apiErr *slackAPIError
		if errors.As(err, &apiErr) && apiErr.Code == "name_taken" {
			return "", nil
		}
		return "", err
	}
	return out.Channel.ID, nil
}

func (s *slackSender) lookup(ctx context.Context) (string, error) {
	cursor := ""
	for {
		var out slackResponse
		req := s.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"exclude_archived": "true",
				"types":            "public_channel,private_channel",
				"limit":            fmt.Sprint(slackListPageSize),
			}).
			SetResult(&out)
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}

		resp, err := req.Get("/conversations.list")
		if err != nil {
			return "", fmt.Errorf("conversations.list: %w", err)
		}
		if resp.IsError() {
			return "", fmt.Errorf("conversations.list: http status %d", resp.StatusCode())
		}
		if !out.OK {
			return "", &slackAPIError{Method: "conversations.list", Code: out.Error}
		}

		for _, ch := range out.Channels {
			if ch.Name == s.channel {
				return ch.ID, nil
			}
		}
		if cursor = out.Metadata.NextCursor; cursor == "" {
			return "", fmt.Errorf("channel %q not found", s.channel)
		}
	}
}

func (s *slackSender) join(ctx context.Context) error {
	_, err := s.call(ctx, "conversations.join", map[string]any{"channel": s.channelID})
	return err
}

func (s *slackSender) call(ctx context.Context, method string, body map[string]any) (slackResponse, error) {
	var out slackResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/" + method)
	if err != nil {
		return out, fmt.Errorf("%s: %w", method, err)
	}
	if resp.IsError() {
		return out, fmt.Errorf("%s: http status %d", method, resp.StatusCode())
	}
	if !out.OK {
		return out, &slackAPIError{Method: method, Code: out.Error}
	}
	return out, nil
}

// slackAPIError is an ok=false reply.
type slackAPIError struct {
	Method string
	Code   string
}

func (e *slackAPIError) Error() string {
	return fmt.Sprintf("%s: slack error %q", e.Method, e.Code)
}
