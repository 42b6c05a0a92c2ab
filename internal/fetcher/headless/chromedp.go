package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeConfig controls how Chrome is launched.
type ChromeConfig struct {
	ExecPath          string
	UserAgent         string
	NavigationTimeout time.Duration
}

// ChromeLauncher starts a dedicated headless Chrome process per session.
type ChromeLauncher struct {
	cfg ChromeConfig
}

// NewChromedp creates a launcher backed by chromedp.
func NewChromedp(cfg ChromeConfig) *ChromeLauncher {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	return &ChromeLauncher{cfg: cfg}
}

// Launch starts Chrome and opens a blank tab.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if l.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	// The first Run on a fresh context starts the browser process.
	if err := chromedp.Run(taskCtx, l.networkSetupAction()); err != nil {
		taskCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return &chromeSession{
		ctx:         taskCtx,
		taskCancel:  taskCancel,
		allocCancel: allocCancel,
		navTimeout:  l.cfg.NavigationTimeout,
	}, nil
}

func (l *ChromeLauncher) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if l.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(l.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

type chromeSession struct {
	ctx         context.Context
	taskCancel  context.CancelFunc
	allocCancel context.CancelFunc
	navTimeout  time.Duration
	closed      bool
}

func (s *chromeSession) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("chromedp navigate: %w", err)
	}
	return nil
}

func (s *chromeSession) WaitReady(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("chromedp wait ready: %w", err)
	}
	return nil
}

func (s *chromeSession) Text(selector string) (string, error) {
	var text string
	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("chromedp text: %w", err)
	}
	return text, nil
}

func (s *chromeSession) Source() (string, error) {
	var html string
	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("chromedp outer html: %w", err)
	}
	return html, nil
}

// Close shuts the browser down gracefully and then tears down the allocator,
// which kills the process if it is still alive.
func (s *chromeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := chromedp.Cancel(s.ctx)
	s.taskCancel()
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("chromedp cancel: %w", err)
	}
	return nil
}
