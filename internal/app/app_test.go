package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/catalog-crawler/internal/config"
	"github.com/samvad-hq/catalog-crawler/internal/domain"
	"github.com/samvad-hq/catalog-crawler/internal/storage"
	"github.com/samvad-hq/catalog-crawler/pkg/catalogs"
	"github.com/samvad-hq/catalog-crawler/pkg/httpclient"
	"github.com/samvad-hq/catalog-crawler/pkg/notifiers"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []notifiers.Message
}

func (c *captureSender) Kind() string { return "capture" }

func (c *captureSender) Send(_ context.Context, msg notifiers.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *captureSender) byLevel(level notifiers.Level) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.msgs {
		if m.Level == level {
			out = append(out, m.Text)
		}
	}
	return out
}

func productCard(name, href, price string) string {
	return fmt.Sprintf(`<div class="cost"><div class="productName"><a href="%s">%s</a></div><div class="piners"><h3>%s</h3></div></div>`, href, name, price)
}

func pager(active, total int) string {
	var b strings.Builder
	b.WriteString(`<ul class="pagination">`)
	for i := 1; i <= total; i++ {
		class := ""
		if i == active {
			class = ` class="active"`
		}
		fmt.Fprintf(&b, `<li><a%s href="?p=%d">%d</a></li>`, class, i, i)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

func newShop(t *testing.T, failPage string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Query().Get("p")
		if p == failPage {
			http.Error(w, "maintenance", http.StatusInternalServerError)
			return
		}
		switch p {
		case "1":
			fmt.Fprint(w, "<html><body>"+
				productCard("Cable A", "/a", "€9,99")+
				productCard("Cable B", "/b", "€4")+
				productCard("", "/nameless", "€1")+
				pager(1, 2)+"</body></html>")
		case "2":
			fmt.Fprint(w, "<html><body>"+
				productCard("Cable A", "/a", "€9,99")+
				productCard("Cable C", "/c", "$12.50")+
				pager(2, 2)+"</body></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, shopURL string) (*App, *captureSender) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewStore(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	sender := &captureSender{}
	reg := notifiers.NewRegistry(notifiers.Settings{}, nil, map[string]notifiers.Builder{
		"capture": func(context.Context, notifiers.Settings, notifiers.Logger) (notifiers.Sender, error) {
			return sender, nil
		},
	})

	catReg, err := catalogs.NewRegistry([]catalogs.Catalog{{
		ID:       "shop",
		StartURL: shopURL + "/list?p=1",
		BaseURL:  shopURL,
	}})
	if err != nil {
		t.Fatalf("catalogs.NewRegistry: %v", err)
	}

	cfg := &config.Config{Notifier: "capture", CrawlSchedule: "", TriggerQueue: 1}
	a, err := New(ctx, cfg, Components{
		Catalogs:   catReg.Enabled(),
		Extractors: catalogs.DefaultExtractors(httpclient.NewRestyClient(httpclient.Options{Timeout: 2 * time.Second})),
		Store:      store,
		Notifiers:  reg,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, sender
}

func TestRunOnceCrawlsAllPagesAndAnnouncesNewProducts(t *testing.T) {
	shop := newShop(t, "")
	a, sender := newTestApp(t, shop.URL)

	reports, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(reports) != 1 || reports[0].Pages != 2 || reports[0].Announced != 3 {
		t.Fatalf("unexpected reports %+v", reports)
	}

	announced := sender.byLevel(notifiers.LevelInfo)
	want := ":new: <" + shop.URL + "/a|Cable A> is now available at €9,99"
	if len(announced) != 3 || announced[0] != want {
		t.Fatalf("unexpected announcements %v", announced)
	}
	// nameless product and the repeated Cable A
	if got := sender.byLevel(notifiers.LevelWarning); len(got) != 2 {
		t.Fatalf("expected 2 warnings, got %v", got)
	}

	reports, err = a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if reports[0].Announced != 0 || reports[0].Dropped["already exists"] != 3 {
		t.Fatalf("second run must not announce known products, got %+v", reports[0])
	}
	if got := sender.byLevel(notifiers.LevelInfo); len(got) != 3 {
		t.Fatalf("expected no new announcements, got %v", got)
	}
}

func TestRunOnceAlertsOnFetchFailure(t *testing.T) {
	shop := newShop(t, "2")
	a, sender := newTestApp(t, shop.URL)

	reports, err := a.RunOnce(context.Background())
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if reports[0].Announced != 2 {
		t.Fatalf("products of the first page must stay announced, got %+v", reports[0])
	}

	alerts := sender.byLevel(notifiers.LevelAlert)
	if len(alerts) != 1 || !strings.HasPrefix(alerts[0], ":rotating_light: An error occurred! error='catalog shop:") {
		t.Fatalf("expected one alert, got %v", alerts)
	}
}

func TestRunOnceRejectsOverlappingRuns(t *testing.T) {
	shop := newShop(t, "")
	a, _ := newTestApp(t, shop.URL)

	a.runMu.Lock()
	defer a.runMu.Unlock()
	if _, err := a.RunOnce(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestNewFailsOnUnknownNotifier(t *testing.T) {
	store, err := storage.NewStore(context.Background(), "sqlite://:memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	_, err = New(context.Background(), &config.Config{Notifier: "pager"}, Components{
		Extractors: catalogs.DefaultExtractors(nil),
		Store:      store,
		Notifiers:  notifiers.DefaultRegistry(notifiers.Settings{}, nil),
	}, nil)
	var cfgErr *notifiers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestNewAppFailsOnUnsupportedStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogs.yaml")
	raw := "catalogs:\n  - id: shop\n    start_url: https://shop.example/list?p=1\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write catalogs: %v", err)
	}

	_, err := NewApp(context.Background(), &config.Config{
		CatalogsFile: path,
		DatabaseURL:  "oracle://db/products",
		Notifier:     "log",
	}, nil, nil)
	var connErr *storage.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestScheduleDisabledWaitsForContext(t *testing.T) {
	shop := newShop(t, "")
	a, _ := newTestApp(t, shop.URL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Schedule(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Schedule did not return after cancel")
	}
}

func TestScheduleRunsOnTick(t *testing.T) {
	shop := newShop(t, "")
	a, sender := newTestApp(t, shop.URL)
	a.cfg.CrawlSchedule = "@every 1s"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Schedule(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for len(sender.byLevel(notifiers.LevelInfo)) < 3 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("scheduled crawl did not run")
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Schedule: %v", err)
	}
}
