package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrEmptyOutput reports a model run that exited cleanly but printed nothing.
var ErrEmptyOutput = errors.New("model produced no output")

// ProcessError wraps a failed model invocation.
type ProcessError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("generation process %q failed", e.Command)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Runner feeds a prompt to a text-generation backend and returns its raw output.
type Runner interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// CommandConfig names the process to execute.
type CommandConfig struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// CommandRunner runs a local executable with the prompt on stdin.
type CommandRunner struct {
	cfg CommandConfig
}

// NewCommandRunner builds a CommandRunner. It defaults to `ollama run mistral`.
func NewCommandRunner(cfg CommandConfig) *CommandRunner {
	if cfg.Command == "" {
		cfg.Command = "ollama"
		cfg.Args = []string{"run", "mistral"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &CommandRunner{cfg: cfg}
}

// Run starts the process, writes prompt to its stdin and returns stdout.
// The process is killed when ctx ends or the timeout expires.
func (r *CommandRunner) Run(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.Command, r.cfg.Args...)
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		perr := &ProcessError{
			Command: r.commandLine(),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			perr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			perr.Err = errors.Join(ctxErr, err)
		}
		return "", perr
	}
	return stdout.String(), nil
}

func (r *CommandRunner) commandLine() string {
	return strings.Join(append([]string{r.cfg.Command}, r.cfg.Args...), " ")
}
