// Package headless renders job postings in a real browser so that
// client-side content becomes readable.
package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	bodySelector       = "body"
	defaultWaitTimeout = 10 * time.Second
	defaultSettleDelay = 3 * time.Second
)

// Session is one browser instance bound to the context it was launched with.
// Close must release the underlying process.
type Session interface {
	Navigate(url string) error
	WaitReady(selector string, timeout time.Duration) error
	Text(selector string) (string, error)
	Source() (string, error)
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Config controls the rendering stage.
type Config struct {
	MaxParallel int
	WaitTimeout time.Duration
	SettleDelay time.Duration
}

// Renderer drives a Session through one render of a posting URL.
type Renderer struct {
	launcher Launcher
	cfg      Config
	limiter  chan struct{}
	logger   *zap.Logger
	sleep    func(context.Context, time.Duration) error
}

// NewRenderer builds a Renderer on top of launcher.
func NewRenderer(launcher Launcher, cfg Config, logger *zap.Logger) (*Renderer, error) {
	if launcher == nil {
		return nil, errors.New("launcher is required")
	}
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = defaultWaitTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}
	return &Renderer{
		launcher: launcher,
		cfg:      cfg,
		limiter:  limiter,
		logger:   logger,
		sleep:    sleepContext,
	}, nil
}

// Name identifies the stage in logs and metrics.
func (r *Renderer) Name() string {
	return "headless"
}

// FetchText renders url and returns its visible text. When the rendered body
// never becomes readable the raw page source is parsed instead. The session
// is closed exactly once on every path that opened it.
func (r *Renderer) FetchText(ctx context.Context, url string) (string, error) {
	if err := r.acquire(ctx); err != nil {
		return "", err
	}
	defer r.release()

	session, err := r.launcher.Launch(ctx)
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			r.logger.Warn("browser close failed", zap.String("url", url), zap.Error(cerr))
		}
	}()

	if err := session.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	text, err := r.renderedText(ctx, session)
	if err == nil {
		return text, nil
	}
	r.logger.Debug("rendered body unavailable, parsing page source", zap.String("url", url), zap.Error(err))

	source, srcErr := session.Source()
	if srcErr != nil {
		return "", fmt.Errorf("read page source: %w", errors.Join(err, srcErr))
	}
	text, err = DocumentText(source)
	if err != nil {
		return "", fmt.Errorf("parse page source: %w", err)
	}
	return text, nil
}

func (r *Renderer) renderedText(ctx context.Context, session Session) (string, error) {
	if err := session.WaitReady(bodySelector, r.cfg.WaitTimeout); err != nil {
		return "", fmt.Errorf("wait for body: %w", err)
	}
	if err := r.sleep(ctx, r.cfg.SettleDelay); err != nil {
		return "", err
	}
	raw, err := session.Text(bodySelector)
	if err != nil {
		return "", fmt.Errorf("read body text: %w", err)
	}
	return JoinLines(raw), nil
}

func (r *Renderer) acquire(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	select {
	case r.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (r *Renderer) release() {
	if r.limiter == nil {
		return
	}
	select {
	case <-r.limiter:
	default:
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("settle delay canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
