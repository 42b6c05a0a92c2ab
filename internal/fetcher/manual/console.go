// Package manual captures a job posting pasted by an operator on a console.
package manual

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const instructions = `Automatic retrieval failed for %s
Open the posting in a browser, copy its text and paste it below.
Finish with two empty lines.
`

// Console reads a pasted posting from in and writes prompts to out.
type Console struct {
	in  *bufio.Scanner
	out io.Writer
}

// New builds a Console. Lines longer than 1 MiB are rejected by the scanner.
func New(in io.Reader, out io.Writer) *Console {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Console{in: scanner, out: out}
}

// Name identifies the stage in logs and metrics.
func (c *Console) Name() string {
	return "manual"
}

// FetchText prompts for the posting at url and reads lines until two
// consecutive empty lines or end of input. Lines are joined with spaces.
func (c *Console) FetchText(ctx context.Context, url string) (string, error) {
	if _, err := fmt.Fprintf(c.out, instructions, url); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	var lines []string
	for c.in.Scan() {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("manual capture canceled: %w", err)
		}
		line := c.in.Text()
		if line == "" && len(lines) > 0 && lines[len(lines)-1] == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := c.in.Err(); err != nil {
		return "", fmt.Errorf("read console: %w", err)
	}
	return strings.TrimSpace(strings.Join(lines, " ")), nil
}
