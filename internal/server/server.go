// Package server exposes the HTTP trigger for crawl runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samvad-hq/catalog-crawler/internal/crawler"
	"github.com/samvad-hq/catalog-crawler/internal/logger"
)

const (
	msgScrapeQueued = "Going to scrape!"
	msgQueueFull    = "A crawl is already queued. Try again later."
	msgNotFound     = "The requested path was not found."

	shutdownTimeout = 10 * time.Second
)

// Runner performs one crawl pass.
type Runner interface {
	RunOnce(ctx context.Context) ([]crawler.Report, error)
}

// Options configures a Server.
type Options struct {
	Addr string
	// QueueSize bounds pending trigger requests. Values below 1 mean 1.
	QueueSize int
	Gatherer  prometheus.Gatherer
	Logger    logger.Logger
}

// Server accepts crawl triggers and feeds them to a single background worker, so at most
// one crawl triggered over HTTP runs at a time.
type Server struct {
	runner Runner
	addr   string
	log    logger.Logger
	queue  chan struct{}
	router *gin.Engine
}

// New builds the server and its routes.
func New(runner Runner, opts Options) *Server {
	size := opts.QueueSize
	if size < 1 {
		size = 1
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		runner: runner,
		addr:   opts.Addr,
		log:    logger.Ensure(opts.Logger),
		queue:  make(chan struct{}, size),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/scrape", s.handleScrape)
	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, msgNotFound)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleScrape(c *gin.Context) {
	select {
	case s.queue <- struct{}{}:
		s.log.InfoObj("crawl triggered", "trigger", map[string]any{
			"remote_addr": c.ClientIP(),
			"pending":     len(s.queue),
		})
		c.String(http.StatusOK, msgScrapeQueued)
	default:
		c.String(http.StatusServiceUnavailable, msgQueueFull)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "pending": len(s.queue)})
}

// Run serves HTTP and the crawl worker until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.work(ctx)
	}()

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoObj("http server listening", "http_addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	<-workerDone
	return runErr
}

// work drains the trigger queue one crawl at a time.
func (s *Server) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.queue:
			if _, err := s.runner.RunOnce(ctx); err != nil {
				s.log.ErrorObj("triggered crawl failed", "error", err.Error())
			}
		}
	}
}
