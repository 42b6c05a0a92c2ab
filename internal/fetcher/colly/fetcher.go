// Package collyfetcher implements the static job-posting fetch using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	defaultTimeout   = 10 * time.Second
	paragraphElement = "p"
)

// Waiter throttles requests per posting host.
type Waiter interface {
	Wait(ctx context.Context, url string) error
}

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	// Limiter is optional.
	Limiter Waiter
}

// Fetcher performs a single HTTP GET and returns the text of every paragraph
// element on the page.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnHTML(string, colly.HTMLCallback)
	OnError(colly.ErrorCallback)
}

// page accumulates the state of one visit.
type page struct {
	status     int
	paragraphs []string
	err        error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Name identifies the stage in logs and metrics.
func (f *Fetcher) Name() string {
	return "static"
}

// FetchText fetches url and returns the space-joined text of its <p> elements.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	if f.cfg.Limiter != nil {
		if err := f.cfg.Limiter.Wait(ctx, url); err != nil {
			return "", err
		}
	}

	var result page
	collector := f.buildCollector()
	f.configureCollectorHooks(collector, &result)

	if err := f.runCollector(ctx, collector, url, &result); err != nil {
		return "", err
	}
	return strings.Join(result.paragraphs, " "), nil
}

func (f *Fetcher) buildCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(f.timeout())
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, result *page) {
	hooks.OnResponse(func(r *colly.Response) {
		result.status = r.StatusCode
	})

	hooks.OnHTML(paragraphElement, func(e *colly.HTMLElement) {
		result.paragraphs = append(result.paragraphs, e.Text)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.status = r.StatusCode
		}
		result.err = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, result *page) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if result.err != nil {
			return fmt.Errorf("colly response failed (status %d): %w", result.status, result.err)
		}
		return nil
	}
}

func (f *Fetcher) timeout() time.Duration {
	if f.cfg.Timeout > 0 {
		return f.cfg.Timeout
	}
	return defaultTimeout
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
