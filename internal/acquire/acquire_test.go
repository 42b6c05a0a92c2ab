package acquire

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/coverletter/internal/headless/detector"
	"github.com/JakeFAU/coverletter/internal/language"
)

type fakeFetcher struct {
	name  string
	text  string
	err   error
	panic bool
	calls int
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) FetchText(context.Context, string) (string, error) {
	f.calls++
	if f.panic {
		panic("browser exploded")
	}
	return f.text, f.err
}

type recordingObserver struct {
	attempts     []string
	placeholders int
}

func (o *recordingObserver) ObserveAttempt(stage string, ok bool) {
	result := "fail"
	if ok {
		result = "ok"
	}
	o.attempts = append(o.attempts, stage+":"+result)
}

func (o *recordingObserver) ObservePlaceholder() { o.placeholders++ }

const englishPosting = "We are looking for a backend engineer who enjoys building reliable " +
	"distributed systems and mentoring colleagues across the whole engineering team."

func chain(static, rendered, manual *fakeFetcher) []Stage {
	stages := []Stage{
		NewStage(static, detector.Exceeding(100, detector.JavaScriptRequiredMarker)),
		NewStage(rendered, detector.AtLeast(50)),
	}
	if manual != nil {
		stages = append(stages, NewStage(manual, detector.Exceeding(20)))
	}
	return stages
}

func TestAcquireStopsAtFirstUsableStage(t *testing.T) {
	t.Parallel()

	static := &fakeFetcher{name: "static", text: "  " + englishPosting + "  "}
	rendered := &fakeFetcher{name: "headless"}
	obs := &recordingObserver{}
	a := New(language.NewDetector(), nil, chain(static, rendered, nil), WithObserver(obs))

	got := a.Acquire(context.Background(), "https://jobs.example.com/1")
	require.Equal(t, englishPosting, got.Text)
	require.Equal(t, "en", got.Language)
	require.Equal(t, 0, rendered.calls)
	require.Equal(t, []string{"static:ok"}, obs.attempts)
}

func TestAcquireFallsThroughOnJavaScriptMarker(t *testing.T) {
	t.Parallel()

	static := &fakeFetcher{name: "static", text: englishPosting + " Enable JavaScript to continue."}
	rendered := &fakeFetcher{name: "headless", text: englishPosting}
	a := New(language.NewDetector(), nil, chain(static, rendered, nil))

	got := a.Acquire(context.Background(), "https://jobs.example.com/2")
	require.Equal(t, englishPosting, got.Text)
	require.Equal(t, 1, rendered.calls)
}

func TestAcquireStaticThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	static := &fakeFetcher{name: "static", text: strings.Repeat("a", 100)}
	rendered := &fakeFetcher{name: "headless", err: errors.New("no chrome")}
	a := New(language.NewDetector(), nil, chain(static, rendered, nil))

	got := a.Acquire(context.Background(), "https://jobs.example.com/3")
	require.Equal(t, Placeholder, got)
	require.Equal(t, 1, rendered.calls)
}

func TestAcquireRenderedThresholdIsInclusive(t *testing.T) {
	t.Parallel()

	text := "Nous recherchons un développeur passionné à Lyon!"
	require.Len(t, []rune(text), 49)
	rendered := &fakeFetcher{name: "headless", text: text + "."}
	a := New(language.NewDetector(), nil, chain(&fakeFetcher{name: "static", err: errors.New("403")}, rendered, nil))

	got := a.Acquire(context.Background(), "https://jobs.example.com/4")
	require.Equal(t, text+".", got.Text)
}

func TestAcquireManualStage(t *testing.T) {
	t.Parallel()

	manual := &fakeFetcher{name: "manual", text: "Wir suchen eine erfahrene Entwicklerin für unser Team in Berlin."}
	a := New(language.NewDetector(), nil, chain(
		&fakeFetcher{name: "static", err: errors.New("timeout")},
		&fakeFetcher{name: "headless", text: "too short"},
		manual,
	))

	got := a.Acquire(context.Background(), "https://jobs.example.com/5")
	require.Equal(t, manual.text, got.Text)
	require.Equal(t, "de", got.Language)
}

func TestAcquireManualTooShortReturnsPlaceholder(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	a := New(language.NewDetector(), nil, chain(
		&fakeFetcher{name: "static", err: errors.New("timeout")},
		&fakeFetcher{name: "headless", err: errors.New("crash")},
		&fakeFetcher{name: "manual", text: "exactly twenty chars"},
	), WithObserver(obs))

	got := a.Acquire(context.Background(), "https://jobs.example.com/6")
	require.Equal(t, "Offre d'emploi - contenu non disponible", got.Text)
	require.Equal(t, "fr", got.Language)
	require.Equal(t, []string{"static:fail", "headless:fail", "manual:fail"}, obs.attempts)
	require.Equal(t, 1, obs.placeholders)
}

func TestAcquireRecoversPanickingStage(t *testing.T) {
	t.Parallel()

	a := New(language.NewDetector(), nil, chain(
		&fakeFetcher{name: "static", panic: true},
		&fakeFetcher{name: "headless", text: englishPosting},
		nil,
	))

	got := a.Acquire(context.Background(), "https://jobs.example.com/7")
	require.Equal(t, englishPosting, got.Text)
}

func TestAcquireCanceledContextSkipsStages(t *testing.T) {
	t.Parallel()

	static := &fakeFetcher{name: "static", text: englishPosting}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	custom := WithPlaceholder(Placeholder)
	a := New(language.NewDetector(), nil, chain(static, &fakeFetcher{name: "headless"}, nil), custom)

	got := a.Acquire(ctx, "https://jobs.example.com/8")
	require.Equal(t, Placeholder, got)
	require.Equal(t, 0, static.calls)
}

func TestAcquireUndetectableLanguageDefaultsToEnglish(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("1234 ", 30)
	a := New(language.NewDetector(), nil, chain(&fakeFetcher{name: "static", text: text}, &fakeFetcher{name: "headless"}, nil))

	got := a.Acquire(context.Background(), "https://jobs.example.com/9")
	require.Equal(t, language.DefaultCode, got.Language)
}

func TestStageName(t *testing.T) {
	t.Parallel()

	s := NewStage(&fakeFetcher{name: "static"}, detector.AtLeast(1))
	require.Equal(t, "static", s.Name())

	out := s.Attempt(context.Background(), "u")
	require.False(t, out.OK)
	require.Contains(t, out.Reason, "too short")
}
