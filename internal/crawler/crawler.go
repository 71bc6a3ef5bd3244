package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
	"github.com/samvad-hq/catalog-crawler/internal/logger"
	"github.com/samvad-hq/catalog-crawler/internal/metrics"
	"github.com/samvad-hq/catalog-crawler/internal/pagination"
	"github.com/samvad-hq/catalog-crawler/internal/pipeline"
)

// Options configures a Crawler.
type Options struct {
	// NotifierKind is resolved through the NotifierSource at the start of every run.
	NotifierKind string
	// MaxPages stops a run after that many pages; zero means unlimited.
	MaxPages int
	Logger   logger.Logger
	Metrics  *metrics.Metrics
}

// Job describes one catalog crawl.
type Job struct {
	CatalogID string
	StartRef  string
	PageParam string
	Extractor PageExtractor
}

// Report summarizes a run. It is returned even when the run ends with an error.
type Report struct {
	CatalogID string
	Pages     int
	Records   int
	Announced int
	Dropped   map[string]int
	// Truncated is set when MaxPages stopped the run.
	Truncated bool
}

// Crawler walks a catalog page by page and feeds every record through a fresh pipeline.
type Crawler struct {
	store     pipeline.Store
	notifiers NotifierSource
	opts      Options
	log       logger.Logger
}

// New wires a crawler with its store and notifier source.
func New(store pipeline.Store, source NotifierSource, opts Options) *Crawler {
	return &Crawler{
		store:     store,
		notifiers: source,
		opts:      opts,
		log:       logger.Ensure(opts.Logger),
	}
}

type state int

const (
	stateFetching state = iota
	stateExtracting
	stateDeciding
	stateDone
)

// Run crawls job until the extractor reports no more pages. Product outcomes never affect
// pagination; an extractor failure ends the run with a *domain.FetchError.
func (c *Crawler) Run(ctx context.Context, job Job) (report Report, err error) {
	report = Report{CatalogID: job.CatalogID, Dropped: map[string]int{}}
	if c == nil || c.store == nil || c.notifiers == nil {
		return report, errors.New("crawler is not initialized")
	}
	if job.Extractor == nil {
		return report, fmt.Errorf("catalog %q has no extractor", job.CatalogID)
	}

	notifier, err := c.notifiers.Get(ctx, c.opts.NotifierKind)
	if err != nil {
		return report, fmt.Errorf("resolve notifier: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithLogger(c.log)}
	if c.opts.Metrics != nil {
		opts = append(opts, pipeline.WithRecorder(c.opts.Metrics))
	}
	pl := pipeline.Default(c.store, notifier, opts...)

	started := time.Now()
	defer func() {
		c.opts.Metrics.CrawlFinished(job.CatalogID, time.Since(started), err)
	}()

	c.log.InfoObj("crawl started", "crawl", map[string]any{
		"catalog_id": job.CatalogID,
		"start_ref":  job.StartRef,
		"stages":     pl.Stages(),
	})

	var (
		ref  = job.StartRef
		page domain.Page
		st   = stateFetching
	)
	for st != stateDone {
		switch st {
		case stateFetching:
			if err := ctx.Err(); err != nil {
				return report, fmt.Errorf("crawl %s interrupted: %w", job.CatalogID, err)
			}
			page, err = job.Extractor.FetchPage(ctx, ref)
			c.opts.Metrics.PageFetched(job.CatalogID, err)
			if err != nil {
				var fetchErr *domain.FetchError
				if !errors.As(err, &fetchErr) {
					err = &domain.FetchError{Ref: ref, Err: err}
				}
				return report, err
			}
			report.Pages++
			st = stateExtracting

		case stateExtracting:
			for _, w := range page.Warnings {
				notifier.Warn(ctx, w)
			}
			if len(page.Records) == 0 {
				c.log.WarnObj("page has no products", "crawl_page", map[string]any{
					"catalog_id": job.CatalogID,
					"ref":        ref,
				})
				notifier.Warn(ctx, fmt.Sprintf("Found no products! url='%s'", ref))
			}
			report.Records += len(page.Records)
			c.opts.Metrics.RecordsExtracted(job.CatalogID, len(page.Records))

			for _, rec := range page.Records {
				d := pl.Process(ctx, domain.ProductFromRecord(rec))
				if d.Dropped() {
					report.Dropped[d.Reason()]++
				} else {
					report.Announced++
				}
			}
			st = stateDeciding

		case stateDeciding:
			if !page.HasMorePages {
				st = stateDone
				continue
			}
			if c.opts.MaxPages > 0 && report.Pages >= c.opts.MaxPages {
				report.Truncated = true
				c.log.WarnObj("page limit reached", "crawl_page", map[string]any{
					"catalog_id": job.CatalogID,
					"max_pages":  c.opts.MaxPages,
					"ref":        ref,
				})
				notifier.Warn(ctx, fmt.Sprintf("Stopped after %d pages, more were reported. url='%s'", report.Pages, ref))
				st = stateDone
				continue
			}

			next, err := nextRef(ref, job.PageParam, page.NextRef)
			if err != nil {
				return report, fmt.Errorf("crawl %s: %w", job.CatalogID, err)
			}
			ref = next
			st = stateFetching
		}
	}

	c.log.InfoObj("crawl completed", "crawl_result", report)
	return report, nil
}

// nextRef prefers an extractor-provided reference and otherwise increments the page
// parameter. A reference that repeats the current page is an error.
func nextRef(current, param, provided string) (string, error) {
	next := provided
	if next == "" {
		var err error
		if next, err = pagination.NextPageRef(current, param); err != nil {
			return "", fmt.Errorf("derive next page: %w", err)
		}
	}
	if next == current {
		return "", fmt.Errorf("next page reference %q repeats the current page", next)
	}
	return next, nil
}
