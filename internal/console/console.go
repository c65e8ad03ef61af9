// Package console prints the startup banner and asks for the API key when
// none was configured.
package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

const rule = "======================================================"

// LineReader reads one line of input.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// Console talks to the operator on a terminal.
type Console struct {
	out        io.Writer
	open       func(prompt string) (LineReader, error)
	isTerminal func() bool
}

// New returns a Console on stdin/stdout. Typed keys are masked.
func New() *Console {
	return &Console{
		out: os.Stdout,
		open: func(prompt string) (LineReader, error) {
			return readline.NewEx(&readline.Config{
				Prompt:     prompt,
				EnableMask: true,
				MaskRune:   '*',
			})
		},
		isTerminal: func() bool {
			return readline.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// NewWithReader returns a Console that reads from r and writes to out, for
// non-interactive use.
func NewWithReader(r LineReader, out io.Writer) *Console {
	return &Console{
		out:        out,
		open:       func(string) (LineReader, error) { return r, nil },
		isTerminal: func() bool { return true },
	}
}

// Interactive reports whether a prompt can be shown.
func (c *Console) Interactive() bool {
	return c.isTerminal()
}

// Banner prints the server title.
func (c *Console) Banner() {
	fmt.Fprintf(c.out, "\n%s\n   VaultID Dev Server\n%s\n\n", rule, rule)
}

// PromptAPIKey asks for the key once. An empty answer, EOF or Ctrl+C yield
// an empty key and no error: the server then runs without extraction.
func (c *Console) PromptAPIKey(providerName string) (string, error) {
	fmt.Fprintf(c.out, "  Paste your %s API key (for AI extraction):\n", providerName)

	rl, err := c.open("  > ")
	if err != nil {
		return "", fmt.Errorf("open console: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	fmt.Fprintln(c.out)
	if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Ready prints where the app is served.
func (c *Console) Ready(url string, openingBrowser bool) {
	fmt.Fprintf(c.out, "\n  [OK] VaultID running -> %s\n", url)
	if openingBrowser {
		fmt.Fprintln(c.out, "  Opening browser...")
	}
	fmt.Fprintln(c.out, "  Press Ctrl+C to stop.")
	fmt.Fprintln(c.out)
}

// Stopped prints the shutdown line.
func (c *Console) Stopped() {
	fmt.Fprintln(c.out, "\n  Stopped.")
}
