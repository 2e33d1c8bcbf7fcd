// Package clipboard puts finished minutes on the Wayland clipboard.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrEmpty is returned when there is nothing to copy
var ErrEmpty = errors.New("cannot copy empty text")

// Copier places text on the clipboard
type Copier interface {
	Copy(ctx context.Context, text string) error
}

// Config for the clipboard command
type Config struct {
	Command []string      // program and arguments reading the text on stdin
	Timeout time.Duration // per copy
}

// DefaultConfig returns the wl-copy configuration
func DefaultConfig() Config {
	return Config{
		Command: []string{"wl-copy"},
		Timeout: 3 * time.Second,
	}
}

type commandCopier struct {
	config Config
}

// New creates a Copier running cfg.Command
func New(cfg Config) Copier {
	d := DefaultConfig()
	if len(cfg.Command) == 0 {
		cfg.Command = d.Command
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	return &commandCopier{config: cfg}
}

func (c *commandCopier) Copy(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmpty
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.config.Command[0], c.config.Command[1:]...)
	cmd.Stdin = strings.NewReader(text)

	if out, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s failed: %w: %s", c.config.Command[0], err, msg)
		}
		return fmt.Errorf("%s failed: %w", c.config.Command[0], err)
	}

	return nil
}

// Available checks that wl-copy is installed
func Available() error {
	if _, err := exec.LookPath("wl-copy"); err != nil {
		return fmt.Errorf("wl-copy not found: %w (install wl-clipboard)", err)
	}
	return nil
}
