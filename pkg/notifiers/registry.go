package notifiers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Supported notifier kinds.
const (
	KindSlack   = "slack"
	KindLog     = "log"
	KindWebhook = "webhook"
	KindSNS     = "sns"
	KindSQS     = "sqs"
	KindPubSub  = "pubsub"
	KindRedis   = "redis"
	KindEmail   = "email"
)

// Builder creates the Sender for a kind from the shared settings.
type Builder func(ctx context.Context, s Settings, log Logger) (Sender, error)

// Registry maps notifier kinds to builders and caches one sender per kind for the life
// of the process. A kind may be a comma-separated list, which fans out to the cached
// sender of every member.
type Registry struct {
	settings Settings
	log      Logger

	mu        sync.RWMutex
	builders  map[string]Builder
	senders   map[string]Sender
	instances map[string]*channelNotifier
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(settings Settings, log Logger, builders map[string]Builder) *Registry {
	r := &Registry{
		settings:  settings,
		log:       ensureLogger(log),
		builders:  make(map[string]Builder),
		senders:   make(map[string]Sender),
		instances: make(map[string]*channelNotifier),
	}
	for kind, b := range builders {
		r.Register(kind, b)
	}
	return r
}

// DefaultRegistry wires up every known transport.
func DefaultRegistry(settings Settings, log Logger) *Registry {
	return NewRegistry(settings, log, map[string]Builder{
		KindSlack:   newSlackSender,
		KindLog:     newLogSender,
		KindWebhook: newWebhookSender,
		KindSNS:     newSNSSender,
		KindSQS:     newSQSSender,
		KindPubSub:  newPubSubSender,
		KindRedis:   newRedisSender,
		KindEmail:   newEmailSender,
	})
}

// Register associates a builder with a notifier kind.
func (r *Registry) Register(kind string, builder Builder) {
	if kind = normalizeKind(kind); kind == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[kind] = builder
	r.mu.Unlock()
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.kindsLocked()
}

// Get returns the notifier for kind, constructing it on first use. Each member kind is
// built at most once, however many lists name it, and concurrent first calls construct
// exactly one instance. An unknown or misconfigured kind returns *ConfigError.
func (r *Registry) Get(ctx context.Context, kind string) (Notifier, error) {
	key, members := parseKinds(kind)
	if len(members) == 0 {
		return nil, &ConfigError{Kind: kind, Reason: "no notifier kind configured"}
	}

	r.mu.RLock()
	inst, ok := r.instances[key]
	r.mu.RUnlock()
	if ok {
		return inst, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[key]; ok {
		return inst, nil
	}

	sender, err := r.composeLocked(ctx, members)
	if err != nil {
		return nil, err
	}
	inst = newChannelNotifier(sender, r.log)
	r.instances[key] = inst

	r.log.InfoObj("notifier ready", "notifier", map[string]any{"kind": key, "senders": len(members)})
	return inst, nil
}

// composeLocked resolves every member to its cached sender, building the missing ones.
// Unknown members are rejected before anything is built.
func (r *Registry) composeLocked(ctx context.Context, members []string) (Sender, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, kind := range members {
		if r.builders[kind] == nil {
			return nil, &ConfigError{Kind: kind, Reason: fmt.Sprintf("unsupported kind (supported: %s)", strings.Join(r.kindsLocked(), ","))}
		}
	}

	senders := make([]Sender, 0, len(members))
	for _, kind := range members {
		sender, err := r.senderLocked(ctx, kind)
		if err != nil {
			return nil, err
		}
		senders = append(senders, sender)
	}

	if len(senders) == 1 {
		return senders[0], nil
	}
	return NewFanout(senders), nil
}

func (r *Registry) senderLocked(ctx context.Context, kind string) (Sender, error) {
	if sender, ok := r.senders[kind]; ok {
		return sender, nil
	}
	sender, err := r.builders[kind](ctx, r.settings, r.log)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &ConfigError{Kind: kind, Reason: "construction failed", Err: err}
	}
	r.senders[kind] = sender
	return sender, nil
}

func (r *Registry) kindsLocked() []string {
	out := make([]string, 0, len(r.builders))
	for kind := range r.builders {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// Close releases every constructed sender once and forgets all notifiers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for kind, sender := range r.senders {
		if c, ok := sender.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close notifier %q: %w", kind, err))
			}
		}
		delete(r.senders, kind)
	}
	clear(r.instances)
	return errors.Join(errs...)
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

// parseKinds splits a comma-separated kind list, dropping blanks and repeats. The cache
// key keeps the caller's order.
func parseKinds(raw string) (string, []string) {
	seen := make(map[string]struct{})
	var members []string
	for _, part := range strings.Split(raw, ",") {
		kind := normalizeKind(part)
		if kind == "" {
			continue
		}
		if _, dup := seen[kind]; dup {
			continue
		}
		seen[kind] = struct{}{}
		members = append(members, kind)
	}
	return strings.Join(members, ","), members
}
