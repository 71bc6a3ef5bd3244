package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/catalog-crawler/internal/app"
	"github.com/samvad-hq/catalog-crawler/internal/config"
	"github.com/samvad-hq/catalog-crawler/internal/logger"
	"github.com/samvad-hq/catalog-crawler/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "catalog-crawler failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog-crawler",
		Short:         "Crawl paginated product catalogs and announce new products",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "crawl",
			Short: "Crawl every configured catalog once and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), crawlOnce)
			},
		},
		&cobra.Command{
			Use:   "schedule",
			Short: "Crawl on the configured cron schedule until interrupted",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), schedule)
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP trigger and run the schedule until interrupted",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), serve)
			},
		},
	)
	return root
}

type runtime struct {
	cfg *config.Config
	app *app.App
	reg *prometheus.Registry
	log logger.Logger
}

func run(parent context.Context, fn func(context.Context, runtime) error) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("catalog crawler starting", "config", map[string]any{
		"app_env":        cfg.Env,
		"catalogs_file":  cfg.CatalogsFile,
		"notifier":       cfg.Notifier,
		"crawl_schedule": cfg.CrawlSchedule,
		"http_addr":      cfg.HTTPAddr,
		"max_pages":      cfg.MaxPages,
	})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.NewApp(ctx, cfg, log, reg)
	if err != nil {
		logger.ErrorObj("failed to initialize catalog crawler", "error", err.Error())
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.WarnObj("shutdown cleanup failed", "error", cerr.Error())
		}
	}()

	return fn(ctx, runtime{cfg: cfg, app: a, reg: reg, log: log})
}

func crawlOnce(ctx context.Context, rt runtime) error {
	reports, err := rt.app.RunOnce(ctx)
	for _, r := range reports {
		rt.log.InfoObj("catalog report", "report", r)
	}
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	return nil
}

func schedule(ctx context.Context, rt runtime) error {
	if rt.cfg.CrawlSchedule == "" {
		return errors.New("crawl_schedule is empty; use the crawl command for a single pass")
	}
	return rt.app.Schedule(ctx)
}

func serve(ctx context.Context, rt runtime) error {
	srv := server.New(rt.app, server.Options{
		Addr:      rt.cfg.HTTPAddr,
		QueueSize: rt.cfg.TriggerQueue,
		Gatherer:  rt.reg,
		Logger:    rt.log,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	schedErr := make(chan error, 1)
	go func() {
		schedErr <- rt.app.Schedule(ctx)
	}()

	err := srv.Run(ctx)
	cancel()
	if serr := <-schedErr; serr != nil && err == nil {
		err = serr
	}
	return err
}
