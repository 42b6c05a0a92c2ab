package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out    string
	err    error
	prompt string
}

func (f *fakeRunner) Run(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

func TestBuildPromptFrench(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("Go developer, 6 years", "Développeur Go à Lyon", "fr")
	require.Contains(t, prompt, "You MUST write a cover letter in French.")
	require.Contains(t, prompt, "Job offer (detected language: fr):\nDéveloppeur Go à Lyon")
	require.Contains(t, prompt, "CV:\nGo developer, 6 years")
	require.Contains(t, prompt, "Madame, Monsieur,")
	require.True(t, strings.HasSuffix(prompt, "RESPOND ONLY IN FRENCH!"))
}

func TestBuildPromptUnknownCodePassesThrough(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("cv", "oferta", "pt")
	require.Contains(t, prompt, "cover letter in pt.")
	require.Contains(t, prompt, "Dear Hiring Manager,")
	require.True(t, strings.HasSuffix(prompt, "RESPOND ONLY IN PT!"))
}

func TestGenerateTrimsOutput(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{out: "\n  Dear Hiring Manager,\n\nI am writing...  \n"}
	g := New(runner, nil)

	prose, err := g.Generate(context.Background(), "resume body", "posting body", "en")
	require.NoError(t, err)
	require.Equal(t, "Dear Hiring Manager,\n\nI am writing...", prose)
	require.Contains(t, runner.prompt, "posting body")
	require.Contains(t, runner.prompt, "resume body")
	require.Contains(t, runner.prompt, "RESPOND ONLY IN ENGLISH!")
}

func TestGenerateEmptyOutput(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeRunner{out: "   \n"}, nil).Generate(context.Background(), "r", "p", "en")
	require.ErrorIs(t, err, ErrEmptyOutput)
	var perr *ProcessError
	require.ErrorAs(t, err, &perr)
}

func TestGenerateWrapsRunnerErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	_, err := New(&fakeRunner{err: boom}, nil).Generate(context.Background(), "r", "p", "en")
	require.ErrorIs(t, err, boom)
	var perr *ProcessError
	require.ErrorAs(t, err, &perr)
}

func TestCommandRunnerEchoesStdin(t *testing.T) {
	t.Parallel()

	r := NewCommandRunner(CommandConfig{Command: "cat", Timeout: 5 * time.Second})
	out, err := r.Run(context.Background(), "hello model")
	require.NoError(t, err)
	require.Equal(t, "hello model", out)
}

func TestCommandRunnerExitCode(t *testing.T) {
	t.Parallel()

	r := NewCommandRunner(CommandConfig{Command: "sh", Args: []string{"-c", "echo nope >&2; exit 3"}})
	_, err := r.Run(context.Background(), "")
	var perr *ProcessError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 3, perr.ExitCode)
	require.Equal(t, "nope", perr.Stderr)
	require.Contains(t, perr.Error(), "exit 3")
}

func TestCommandRunnerTimeout(t *testing.T) {
	t.Parallel()

	r := NewCommandRunner(CommandConfig{Command: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond})
	_, err := r.Run(context.Background(), "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCommandRunnerMissingBinary(t *testing.T) {
	t.Parallel()

	r := NewCommandRunner(CommandConfig{Command: "definitely-not-a-model-binary"})
	_, err := r.Run(context.Background(), "prompt")
	var perr *ProcessError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 0, perr.ExitCode)
}

func TestNewCommandRunnerDefaults(t *testing.T) {
	t.Parallel()

	r := NewCommandRunner(CommandConfig{})
	require.Equal(t, "ollama run mistral", r.commandLine())
	require.Equal(t, 5*time.Minute, r.cfg.Timeout)
}
