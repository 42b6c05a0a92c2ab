package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/coverletter/internal/acquire"
	"github.com/JakeFAU/coverletter/internal/config"
	"github.com/JakeFAU/coverletter/internal/letter"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:    config.ServerConfig{Port: 8000, CORSOrigins: []string{"*"}, MaxUploadMB: 1},
		HTTP:      config.HTTPConfig{TimeoutSeconds: 2, UserAgent: "test-agent"},
		Acquire:   config.AcquireConfig{StaticMinChars: 100, RenderedMinChars: 50, ManualMinChars: 20},
		Generator: config.GeneratorConfig{Command: "cat", TimeoutSeconds: 5},
		Profile:   letter.Profile{Name: "Alex Martin", Phone: "+33 6 00 00 00 00", Email: "alex@example.com"},
		Storage:   config.StorageConfig{Backend: config.BackendMemory},
		Metadata:  config.MetadataConfig{Backend: config.BackendMemory},
		PubSub:    config.PubSubConfig{Backend: config.BackendMemory, TopicName: letter.EventTopic},
	}
}

func TestBuildWiresHandler(t *testing.T) {
	t.Parallel()

	app, err := Build(context.Background(), memoryConfig(t), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close()) })

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")

	require.NotNil(t, app.Letters())
	require.NotNil(t, app.Detector())
	require.NotNil(t, app.Logger())
}

func TestBuildAcquirerFallsBackToPlaceholder(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	app, err := Build(context.Background(), memoryConfig(t), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close()) })

	got := app.Acquirer().Acquire(context.Background(), ts.URL)
	require.Equal(t, acquire.Placeholder, got)
}

func TestBuildWithConsoleUsesManualStage(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>Enable JavaScript to view this job.</p></body></html>"))
	}))
	defer ts.Close()

	pasted := "Nous recherchons un développeur Go expérimenté pour rejoindre notre équipe à Paris.\n\n\n"
	var out strings.Builder
	app, err := Build(context.Background(), memoryConfig(t),
		WithLogger(zap.NewNop()),
		WithConsole(strings.NewReader(pasted), &out),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close()) })

	got := app.Acquirer().Acquire(context.Background(), ts.URL)
	require.Equal(t, strings.TrimSpace(pasted), got.Text)
	require.Equal(t, "fr", got.Language)
	require.Contains(t, out.String(), ts.URL)
}

func TestBuildFileMetadataAndLocalStorage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := memoryConfig(t)
	cfg.Storage = config.StorageConfig{Backend: config.BackendLocal, BaseDir: filepath.Join(dir, "cv"), Prefix: "resumes"}
	cfg.Metadata = config.MetadataConfig{Backend: config.BackendFile, FilePath: filepath.Join(dir, "cv", "cv_metadata.json")}
	cfg.PubSub.Backend = config.BackendNone

	app, err := Build(context.Background(), cfg, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close()) })

	records, err := app.Letters().ListResumes(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestBuildRejectsBadPostgresDSN(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig(t)
	cfg.Metadata.Backend = config.BackendPostgres
	cfg.DB.DSN = "postgres://%zz"

	_, err := Build(context.Background(), cfg, WithLogger(zap.NewNop()))
	require.Error(t, err)
}
