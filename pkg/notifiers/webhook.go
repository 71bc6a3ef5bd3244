package notifiers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/catalog-crawler/pkg/httpclient"
)

// webhookSender POSTs every message as JSON. The body carries a "text" field so Slack
// and Mattermost incoming webhooks accept it unchanged.
type webhookSender struct {
	url    string
	client *resty.Client
}

func newWebhookSender(_ context.Context, s Settings, _ Logger) (Sender, error) {
	url := strings.TrimSpace(s.WebhookURL)
	if url == "" {
		return nil, &ConfigError{Kind: KindWebhook, Reason: "webhook_url is required"}
	}
	return &webhookSender{
		url:    url,
		client: httpclient.NewRestyHTTPClient(httpclient.Options{Timeout: s.timeout()}),
	}, nil
}

func (w *webhookSender) Kind() string { return KindWebhook }

func (w *webhookSender) Send(ctx context.Context, msg Message) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), readBodySnippet(resp.Body()))
	}
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
