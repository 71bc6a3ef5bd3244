package notifiers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/catalog-crawler/pkg/httpclient"
)

type slackAPIStub struct {
	t          *testing.T
	createResp map[string]any
	pages      []map[string]any
	joinResp   map[string]any

	mu      sync.Mutex
	calls   []string
	posted  []map[string]any
	cursors []string
}

func (s *slackAPIStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if got := r.Header.Get("Authorization"); got != "Bearer xoxb-test" {
		s.t.Errorf("unexpected Authorization header %q", got)
	}

	s.mu.Lock()
	s.calls = append(s.calls, r.URL.Path)
	s.mu.Unlock()

	var reply map[string]any
	switch r.URL.Path {
	case "/conversations.create":
		reply = s.createResp
	case "/conversations.list":
		cursor := r.URL.Query().Get("cursor")
		s.mu.Lock()
		s.cursors = append(s.cursors, cursor)
		s.mu.Unlock()
		idx := 0
		if cursor != "" {
			idx = 1
		}
		reply = s.pages[idx]
	case "/conversations.join":
		reply = s.joinResp
	case "/chat.postMessage":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.posted = append(s.posted, body)
		s.mu.Unlock()
		reply = map[string]any{"ok": true}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func slackSettings(url string) Settings {
	return Settings{SlackToken: "xoxb-test", SlackChannel: "#deals", SlackAPIURL: url}
}

func TestSlackSenderUsesCreatedChannel(t *testing.T) {
	stub := &slackAPIStub{
		t:          t,
		createResp: map[string]any{"ok": true, "channel": map[string]any{"id": "C123", "name": "deals"}},
		joinResp:   map[string]any{"ok": true},
	}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	sender, err := newSlackSender(context.Background(), slackSettings(srv.URL), nil)
	if err != nil {
		t.Fatalf("newSlackSender: %v", err)
	}
	if err := sender.Send(context.Background(), Message{Level: LevelInfo, Text: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(stub.posted) != 1 {
		t.Fatalf("expected one post, got %d", len(stub.posted))
	}
	if stub.posted[0]["channel"] != "C123" || stub.posted[0]["text"] != "hello" {
		t.Fatalf("unexpected post body %#v", stub.posted[0])
	}
	for _, call := range stub.calls {
		if call == "/conversations.list" {
			t.Fatalf("did not expect a channel lookup when create succeeds")
		}
	}
}

func TestSlackSenderLooksUpExistingChannelAcrossPages(t *testing.T) {
	stub := &slackAPIStub{
		t:          t,
		createResp: map[string]any{"ok": false, "error": "name_taken"},
		pages: []map[string]any{
			{
				"ok":                true,
				"channels":          []map[string]any{{"id": "C001", "name": "general"}},
				"response_metadata": map[string]any{"next_cursor": "page-2"},
			},
			{
				"ok":                true,
				"channels":          []map[string]any{{"id": "C777", "name": "deals"}},
				"response_metadata": map[string]any{"next_cursor": ""},
			},
		},
		joinResp: map[string]any{"ok": false, "error": "method_not_supported_for_channel_type"},
	}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	log := &recordingLogger{}
	raw, err := newSlackSender(context.Background(), slackSettings(srv.URL), log)
	if err != nil {
		t.Fatalf("newSlackSender: %v", err)
	}
	sender := raw.(*slackSender)
	if sender.channelID != "C777" {
		t.Fatalf("expected channel id from second page, got %q", sender.channelID)
	}
	if len(stub.cursors) != 2 || stub.cursors[1] != "page-2" {
		t.Fatalf("expected cursor paging, got %v", stub.cursors)
	}
	if log.count("warn") != 1 {
		t.Fatalf("expected the failed join to be logged once, got %d warnings", log.count("warn"))
	}
}

func TestSlackSenderFailsWhenChannelCannotBeResolved(t *testing.T) {
	stub := &slackAPIStub{
		t:          t,
		createResp: map[string]any{"ok": false, "error": "name_taken"},
		pages: []map[string]any{
			{"ok": true, "channels": []map[string]any{{"id": "C001", "name": "general"}}},
		},
	}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	_, err := newSlackSender(context.Background(), slackSettings(srv.URL), nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != KindSlack {
		t.Fatalf("expected slack ConfigError, got %v", err)
	}
}

func TestSlackSenderRequiresToken(t *testing.T) {
	_, err := newSlackSender(context.Background(), Settings{SlackChannel: "deals"}, nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestSlackSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	sender := &slackSender{
		client:    newTestSlackClient(srv.URL),
		channel:   "deals",
		channelID: "C1",
		log:       noopLogger{},
	}
	err := sender.Send(context.Background(), Message{Text: "x"})
	var apiErr *slackAPIError
	if !errors.As(err, &apiErr) || apiErr.Code != "channel_not_found" {
		t.Fatalf("expected slack api error, got %v", err)
	}
}

func newTestSlackClient(url string) *resty.Client {
	return httpclient.NewRestyHTTPClient(httpclient.Options{BaseURL: url}).
		SetHeader("Content-Type", "application/json")
}
