package clipboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	c := New(Config{}).(*commandCopier)
	if len(c.config.Command) != 1 || c.config.Command[0] != "wl-copy" {
		t.Errorf("Command = %v, want [wl-copy]", c.config.Command)
	}
	if c.config.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", c.config.Timeout)
	}
}

func TestCopy(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clip.txt")
	c := New(Config{Command: []string{"sh", "-c", "cat > " + out}})

	text := "# Meeting Minutes\n\n- shipped v2\n"
	if err := c.Copy(context.Background(), text); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != text {
		t.Errorf("clipboard = %q, want %q", got, text)
	}
}

func TestCopyEmpty(t *testing.T) {
	c := New(Config{Command: []string{"true"}})

	for _, text := range []string{"", "  \n\t"} {
		if err := c.Copy(context.Background(), text); !errors.Is(err, ErrEmpty) {
			t.Errorf("Copy(%q) error = %v, want ErrEmpty", text, err)
		}
	}
}

func TestCopyCommandFails(t *testing.T) {
	c := New(Config{Command: []string{"sh", "-c", "echo no display >&2; exit 1"}})

	err := c.Copy(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no display") {
		t.Errorf("error %q does not carry command output", err)
	}
}

func TestCopyMissingCommand(t *testing.T) {
	c := New(Config{Command: []string{"hyprminutes-no-such-clipboard"}})

	if err := c.Copy(context.Background(), "text"); err == nil {
		t.Error("expected error for missing command")
	}
}

func TestCopyTimeout(t *testing.T) {
	c := New(Config{Command: []string{"sleep", "5"}, Timeout: 50 * time.Millisecond})

	start := time.Now()
	if err := c.Copy(context.Background(), "text"); err == nil {
		t.Error("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Error("Copy() did not honour its timeout")
	}
}
