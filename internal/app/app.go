package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samvad-hq/catalog-crawler/internal/config"
	"github.com/samvad-hq/catalog-crawler/internal/crawler"
	"github.com/samvad-hq/catalog-crawler/internal/logger"
	"github.com/samvad-hq/catalog-crawler/internal/metrics"
	"github.com/samvad-hq/catalog-crawler/internal/storage"
	"github.com/samvad-hq/catalog-crawler/pkg/catalogs"
	"github.com/samvad-hq/catalog-crawler/pkg/notifiers"
)

// ErrRunInProgress is returned by RunOnce while another run is active.
var ErrRunInProgress = errors.New("a crawl run is already in progress")

// App is the catalog crawler runtime. It owns the store and the notifier registry and
// runs one crawl per enabled catalog.
type App struct {
	cfg        *config.Config
	catalogs   []catalogs.Catalog
	extractors *catalogs.Extractors
	store      storage.Store
	notifiers  *notifiers.Registry
	crawler    *crawler.Crawler
	metrics    *metrics.Metrics
	log        logger.Logger

	runMu sync.Mutex
}

// Components are the collaborators an App is assembled from.
type Components struct {
	Catalogs   []catalogs.Catalog
	Extractors *catalogs.Extractors
	Store      storage.Store
	Notifiers  *notifiers.Registry
	Metrics    *metrics.Metrics
}

// NewApp builds the runtime from config. A store that cannot be opened or a notifier kind
// that cannot be constructed is fatal.
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	catalogReg, err := catalogs.LoadRegistry(cfg.CatalogsFile)
	if err != nil {
		return nil, fmt.Errorf("load catalogs registry: %w", err)
	}
	enabled := catalogReg.Enabled()
	ids := make([]string, 0, len(enabled))
	for _, c := range enabled {
		ids = append(ids, c.ID)
	}
	log.InfoObj("catalogs registry loaded", "catalogs_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"vendor": storage.Vendor(cfg.DatabaseURL),
	})

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	a, err := New(ctx, cfg, Components{
		Catalogs:   enabled,
		Extractors: catalogs.DefaultExtractors(nil),
		Store:      store,
		Notifiers:  notifiers.DefaultRegistry(NotifierSettings(cfg), log),
		Metrics:    m,
	}, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

// New assembles an App from ready components and resolves the configured notifier once
// so misconfiguration surfaces before the first crawl.
func New(ctx context.Context, cfg *config.Config, c Components, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if c.Store == nil || c.Notifiers == nil || c.Extractors == nil {
		return nil, fmt.Errorf("app components are incomplete")
	}
	log = logger.Ensure(log)

	if _, err := c.Notifiers.Get(ctx, cfg.Notifier); err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}

	return &App{
		cfg:        cfg,
		catalogs:   c.Catalogs,
		extractors: c.Extractors,
		store:      c.Store,
		notifiers:  c.Notifiers,
		metrics:    c.Metrics,
		log:        log,
		crawler: crawler.New(c.Store, c.Notifiers, crawler.Options{
			NotifierKind: cfg.Notifier,
			MaxPages:     cfg.MaxPages,
			Logger:       log,
			Metrics:      c.Metrics,
		}),
	}, nil
}

// NotifierSettings maps config keys onto notifier settings.
func NotifierSettings(cfg *config.Config) notifiers.Settings {
	return notifiers.Settings{
		SlackToken:            cfg.SlackToken,
		SlackChannel:          cfg.SlackChannel,
		SlackAPIURL:           cfg.SlackAPIURL,
		WebhookURL:            cfg.WebhookURL,
		AWSRegion:             cfg.AWSRegion,
		AWSAccessKeyID:        cfg.AWSAccessKeyID,
		AWSSecretAccessKey:    cfg.AWSSecretAccessKey,
		SNSTopicARN:           cfg.SNSTopicARN,
		SQSQueueURL:           cfg.SQSQueueURL,
		PubSubProject:         cfg.PubSubProject,
		PubSubTopic:           cfg.PubSubTopic,
		PubSubCredentialsFile: cfg.PubSubCredentialsFile,
		RedisAddr:             cfg.RedisAddr,
		RedisPassword:         cfg.RedisPassword,
		RedisChannel:          cfg.RedisChannel,
		SMTPHost:              cfg.SMTPHost,
		SMTPPort:              cfg.SMTPPort,
		SMTPUser:              cfg.SMTPUser,
		SMTPPass:              cfg.SMTPPass,
		EmailFrom:             cfg.EmailFrom,
		EmailTo:               cfg.EmailTo,
	}
}

// RunOnce crawls every catalog sequentially. Catalog failures do not stop later catalogs;
// they are joined into the returned error and each is sent as an alert.
func (a *App) RunOnce(ctx context.Context) ([]crawler.Report, error) {
	if a == nil || a.crawler == nil {
		return nil, fmt.Errorf("app is not initialized")
	}
	if !a.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer a.runMu.Unlock()

	if len(a.catalogs) == 0 {
		a.log.WarnObj("no catalogs configured; nothing to crawl", "catalogs_file", a.cfg.CatalogsFile)
		return nil, nil
	}

	start := time.Now()
	a.log.InfoObj("crawl pass started", "crawl_meta", map[string]any{
		"catalogs_count": len(a.catalogs),
		"started_at":     start.UTC(),
	})

	reports := make([]crawler.Report, 0, len(a.catalogs))
	var errs []error
	for _, cat := range a.catalogs {
		report, err := a.runCatalog(ctx, cat)
		reports = append(reports, report)
		if err != nil {
			err = fmt.Errorf("catalog %s: %w", cat.ID, err)
			errs = append(errs, err)
			a.log.ErrorObj("catalog crawl failed", "catalog_error", map[string]any{
				"catalog_id": cat.ID,
				"error":      err.Error(),
			})
			a.alert(ctx, err)
		}
		if ctx.Err() != nil {
			break
		}
	}

	a.log.InfoObj("crawl pass completed", "crawl_meta", map[string]any{
		"catalogs_count": len(a.catalogs),
		"failed":         len(errs),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	})
	return reports, errors.Join(errs...)
}

func (a *App) runCatalog(ctx context.Context, cat catalogs.Catalog) (crawler.Report, error) {
	ex, err := a.extractors.ExtractorFor(cat)
	if err != nil {
		return crawler.Report{CatalogID: cat.ID}, fmt.Errorf("resolve extractor: %w", err)
	}
	return a.crawler.Run(ctx, crawler.Job{
		CatalogID: cat.ID,
		StartRef:  cat.StartURL,
		PageParam: cat.PageParam,
		Extractor: ex,
	})
}

// alert reports a fatal run error to the operator. Cancellation is not an incident.
func (a *App) alert(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	n, nerr := a.notifiers.Get(ctx, a.cfg.Notifier)
	if nerr != nil {
		return
	}
	n.Alert(context.WithoutCancel(ctx), err.Error())
}

// Close releases the store and every constructed notifier.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.notifiers != nil {
		if err := a.notifiers.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
