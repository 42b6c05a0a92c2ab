// Package server builds the application's dependency graph from
// configuration and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/acquire"
	"github.com/JakeFAU/coverletter/internal/api"
	"github.com/JakeFAU/coverletter/internal/clock/system"
	"github.com/JakeFAU/coverletter/internal/config"
	collyfetcher "github.com/JakeFAU/coverletter/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/coverletter/internal/fetcher/headless"
	"github.com/JakeFAU/coverletter/internal/fetcher/manual"
	"github.com/JakeFAU/coverletter/internal/generator"
	"github.com/JakeFAU/coverletter/internal/hash/sha256"
	"github.com/JakeFAU/coverletter/internal/headless/detector"
	"github.com/JakeFAU/coverletter/internal/id/uuid"
	"github.com/JakeFAU/coverletter/internal/language"
	"github.com/JakeFAU/coverletter/internal/letter"
	"github.com/JakeFAU/coverletter/internal/logging"
	"github.com/JakeFAU/coverletter/internal/metrics"
	"github.com/JakeFAU/coverletter/internal/pipeline"
	"github.com/JakeFAU/coverletter/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/coverletter/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/coverletter/internal/publisher/pubsub"
	"github.com/JakeFAU/coverletter/internal/render"
	gcsstorage "github.com/JakeFAU/coverletter/internal/storage/gcs"
	"github.com/JakeFAU/coverletter/internal/storage/jsonfile"
	localstorage "github.com/JakeFAU/coverletter/internal/storage/local"
	memorystorage "github.com/JakeFAU/coverletter/internal/storage/memory"
	pgstore "github.com/JakeFAU/coverletter/internal/storage/postgres"
)

// App contains the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	letters      *pipeline.Service
	acquirer     *acquire.Acquirer
	detector     *language.Detector
	pubsubClient *pubsub.Client
	publisher    *gcppublisher.Publisher
	storage      *storage.Client
	resumeStore  *pgstore.ResumeStore
}

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	logger     *zap.Logger
	consoleIn  io.Reader
	consoleOut io.Writer
}

// WithLogger uses logger instead of building one from configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithConsole enables the manual capture stage, reading pasted postings from
// in and printing instructions to out.
func WithConsole(in io.Reader, out io.Writer) Option {
	return func(o *buildOptions) {
		o.consoleIn = in
		o.consoleOut = out
	}
}

// Letters returns the letter pipeline.
func (a *App) Letters() *pipeline.Service {
	return a.letters
}

// Acquirer returns the posting acquirer.
func (a *App) Acquirer() *acquire.Acquirer {
	return a.acquirer
}

// Detector returns the language detector.
func (a *App) Detector() *language.Detector {
	return a.detector
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts the HTTP server and blocks until the context is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
		return closeErr
	}
}

// Close releases clients and flushes the logger.
func (a *App) Close() error {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.resumeStore != nil {
		a.resumeStore.Close()
	}
	a.logger.Info("shutdown complete")
	// Sync fails on terminals; nothing useful can be done about it.
	_ = a.logger.Sync()
	return nil
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging.Development, logging.WithLevel(cfg.Logging.Level))
		if err != nil {
			return nil, fmt.Errorf("logger init failed: %w", err)
		}
		zap.ReplaceGlobals(logger)
	}
	metrics.Init()

	app := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("metadata_backend", cfg.Metadata.Backend),
		zap.String("pubsub_backend", cfg.PubSub.Backend),
	)

	blobs, err := setupStorage(ctx, app)
	if err != nil {
		return nil, err
	}
	resumes, err := setupMetadata(ctx, app)
	if err != nil {
		return nil, err
	}
	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}

	app.detector = language.NewDetector()
	app.acquirer, err = setupAcquirer(app, o)
	if err != nil {
		return nil, err
	}

	runner := generator.NewCommandRunner(generator.CommandConfig{
		Command: cfg.Generator.Command,
		Args:    cfg.Generator.Args,
		Timeout: cfg.GeneratorTimeout(),
	})
	logger.Info("using generator command",
		zap.String("command", cfg.Generator.Command),
		zap.Strings("args", cfg.Generator.Args),
		zap.Duration("timeout", cfg.GeneratorTimeout()),
	)

	clock := system.New()
	app.letters = pipeline.New(pipeline.Dependencies{
		Blobs:     blobs,
		Resumes:   resumes,
		Publisher: publisher,
		Hasher:    sha256.New(),
		Clock:     clock,
		IDs:       uuid.New(),
		Detector:  app.detector,
		Generator: generator.New(runner, logger.Named("generator")),
		Renderer:  render.New(cfg.Profile, clock),
	}, pipeline.Config{
		BlobPrefix: cfg.Storage.Prefix,
		Topic:      cfg.PubSub.TopicName,
	}, logger.Named("pipeline"))

	var limiter api.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.RateLimit.RPS,
			DefaultBurst: cfg.RateLimit.Burst,
		})
		logger.Info("api rate limiter enabled",
			zap.Float64("rps", cfg.RateLimit.RPS),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
	}
	app.apiServer = api.NewServer(app.letters, app.acquirer, app.detector, limiter, *cfg, logger.Named("api"))
	return app, nil
}

func setupStorage(ctx context.Context, app *App) (letter.BlobStore, error) {
	switch app.cfg.Storage.Backend {
	case config.BackendGCS:
		app.logger.Info("using GCS storage backend", zap.String("bucket", app.cfg.Storage.GCSBucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.storage = client
		blobStore, err := gcsstorage.New(client, gcsstorage.Config{Bucket: app.cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		if err := blobStore.CheckBucket(ctx); err != nil {
			app.logger.Warn("gcs bucket check failed", zap.Error(err))
		}
		return blobStore, nil
	case config.BackendLocal:
		app.logger.Info("using local storage backend", zap.String("path", app.cfg.Storage.BaseDir))
		blobStore, err := localstorage.New(localstorage.Config{BaseDir: app.cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		return blobStore, nil
	default:
		app.logger.Info("using in-memory storage backend")
		return memorystorage.NewBlobStore(), nil
	}
}

func setupMetadata(ctx context.Context, app *App) (letter.ResumeStore, error) {
	switch app.cfg.Metadata.Backend {
	case config.BackendPostgres:
		db := app.cfg.DB
		store, err := pgstore.New(ctx, pgstore.Config{
			DSN:             db.DSN,
			Table:           db.Table,
			MaxConns:        db.MaxConns,
			MinConns:        db.MinConns,
			MaxConnLifetime: time.Duration(db.MaxConnLifetimeMinutes) * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("résumé store init failed: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("résumé schema init failed: %w", err)
		}
		app.resumeStore = store
		app.logger.Info("résumé store initialized", zap.String("table", db.Table))
		return store, nil
	case config.BackendFile:
		app.logger.Info("using JSON résumé metadata", zap.String("path", app.cfg.Metadata.FilePath))
		store, err := jsonfile.New(app.cfg.Metadata.FilePath)
		if err != nil {
			return nil, fmt.Errorf("résumé metadata init failed: %w", err)
		}
		return store, nil
	default:
		app.logger.Info("using in-memory résumé metadata")
		return memorystorage.NewResumeStore(), nil
	}
}

func setupPublisher(ctx context.Context, app *App) (letter.Publisher, error) {
	switch app.cfg.PubSub.Backend {
	case config.BackendPubSub:
		client, err := pubsub.NewClient(ctx, app.cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		app.pubsubClient = client
		app.publisher = gcppublisher.New(client)
		app.logger.Info("Pub/Sub publisher initialized",
			zap.String("project", app.cfg.PubSub.ProjectID),
			zap.String("topic", app.cfg.PubSub.TopicName),
		)
		return app.publisher, nil
	case config.BackendMemory:
		app.logger.Info("using in-memory publisher")
		return memorypublisher.New(), nil
	default:
		app.logger.Info("letter events disabled")
		return nil, nil
	}
}

func setupAcquirer(app *App, o buildOptions) (*acquire.Acquirer, error) {
	cfg := app.cfg
	collyCfg := collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.FetchTimeout(),
	}
	if cfg.RateLimit.Enabled {
		collyCfg.Limiter = ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.RateLimit.FetchRPS,
			DefaultBurst: cfg.RateLimit.FetchBurst,
		})
	}
	stages := []acquire.Stage{
		acquire.NewStage(
			collyfetcher.New(collyCfg),
			detector.Exceeding(cfg.Acquire.StaticMinChars, cfg.Acquire.JavaScriptMarker),
		),
	}

	var launcher headlessfetcher.Launcher = headlessfetcher.NewNoop()
	if cfg.Headless.Enabled {
		launcher = headlessfetcher.NewChromedp(headlessfetcher.ChromeConfig{
			ExecPath:          cfg.Headless.ExecPath,
			UserAgent:         cfg.HTTP.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		app.logger.Info("using headless renderer", zap.Int("max_parallel", cfg.Headless.MaxParallel))
	}
	renderer, err := headlessfetcher.NewRenderer(launcher, headlessfetcher.Config{
		MaxParallel: cfg.Headless.MaxParallel,
		WaitTimeout: time.Duration(cfg.Headless.WaitSeconds) * time.Second,
		SettleDelay: time.Duration(cfg.Headless.SettleSeconds) * time.Second,
	}, app.logger.Named("headless"))
	if err != nil {
		return nil, fmt.Errorf("headless renderer init failed: %w", err)
	}
	stages = append(stages, acquire.NewStage(renderer, detector.AtLeast(cfg.Acquire.RenderedMinChars)))

	if o.consoleIn != nil {
		stages = append(stages, acquire.NewStage(
			manual.New(o.consoleIn, o.consoleOut),
			detector.Exceeding(cfg.Acquire.ManualMinChars),
		))
	}

	placeholder := acquire.Placeholder
	if cfg.Acquire.PlaceholderText != "" {
		placeholder.Text = cfg.Acquire.PlaceholderText
	}
	if cfg.Acquire.PlaceholderLanguage != "" {
		placeholder.Language = cfg.Acquire.PlaceholderLanguage
	}
	return acquire.New(app.detector, app.logger.Named("acquire"), stages,
		acquire.WithObserver(acquire.PrometheusObserver{}),
		acquire.WithPlaceholder(placeholder),
	), nil
}
