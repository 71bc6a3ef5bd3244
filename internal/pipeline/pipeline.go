// Package pipeline runs extracted products through an ordered chain of stages. Every stage
// returns a Decision; the first drop ends processing of that product and later stages never
// see it.
package pipeline

import (
	"context"
	"fmt"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
	"github.com/samvad-hq/catalog-crawler/internal/logger"
)

// Stage is one link in the pipeline.
type Stage interface {
	Name() string
	Process(ctx context.Context, p domain.Product) Decision
}

// Recorder observes every final decision, typically to export metrics.
type Recorder interface {
	ObserveDecision(stage, outcome, reason string)
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-product outcomes.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) { p.log = logger.Ensure(log) }
}

// WithRecorder sets the decision recorder.
func WithRecorder(rec Recorder) Option {
	return func(p *Pipeline) { p.rec = rec }
}

// Pipeline runs stages in the order they were given.
type Pipeline struct {
	stages   []Stage
	notifier Notifier
	log      logger.Logger
	rec      Recorder
}

// New builds a pipeline running stages in order. notifier receives warnings and alerts
// for dropped products.
func New(notifier Notifier, stages []Stage, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages:   append([]Stage(nil), stages...),
		notifier: notifier,
		log:      logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Default builds the canonical chain: validation, deduplication, persistence, notification.
// The deduplication filter is fresh, so a Default pipeline must not outlive one crawl run.
func Default(store Store, notifier Notifier, opts ...Option) *Pipeline {
	return New(notifier, []Stage{
		Validator{},
		NewDeduplicationFilter(),
		NewPersister(store),
		NewAnnouncer(notifier),
	}, opts...)
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	return names
}

// Process runs product through every stage until one drops it.
func (p *Pipeline) Process(ctx context.Context, product domain.Product) Decision {
	current := product
	last := ""
	for _, stage := range p.stages {
		last = stage.Name()
		d := stage.Process(ctx, current)
		if d.Dropped() {
			d = d.at(last)
			p.reportDrop(ctx, current, d)
			return d
		}
		current = d.Product()
	}

	d := Continue(current).at(last)
	p.log.DebugObj("product processed", "pipeline_result", map[string]any{
		"product": current,
	})
	p.record(d)
	return d
}

func (p *Pipeline) reportDrop(ctx context.Context, product domain.Product, d Decision) {
	p.record(d)

	fields := map[string]any{
		"stage":   d.Stage(),
		"reason":  d.Reason(),
		"product": product,
	}
	switch d.Severity() {
	case SeverityInfo:
		p.log.InfoObj("product dropped", "pipeline_drop", fields)
	case SeverityWarning:
		p.log.WarnObj("product dropped", "pipeline_drop", fields)
		if p.notifier != nil {
			p.notifier.Warn(ctx, fmt.Sprintf("Dropped product at %s (%s): %s", d.Stage(), d.Reason(), product))
		}
	case SeverityAlert:
		if d.Err() != nil {
			fields["error"] = d.Err().Error()
		}
		p.log.ErrorObj("product dropped", "pipeline_drop", fields)
		if p.notifier != nil {
			p.notifier.Alert(ctx, fmt.Sprintf("%s for product %s: %v", d.Reason(), product, d.Err()))
		}
	}
}

func (p *Pipeline) record(d Decision) {
	if p.rec == nil {
		return
	}
	outcome := "continued"
	if d.Dropped() {
		outcome = "dropped"
	}
	p.rec.ObserveDecision(d.Stage(), outcome, d.Reason())
}
