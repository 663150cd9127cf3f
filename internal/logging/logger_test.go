package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/backmassage/stillmux/internal/config"
)

func newTestLogger(t *testing.T, cfg *config.Config) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg.ColorMode = config.ColorNever
	var out, errOut bytes.Buffer
	l, err := NewLogger(cfg, &out, &errOut)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l, &out, &errOut
}

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = ""
	l, out, _ := newTestLogger(t, &cfg)
	l.Info("test message")

	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[INFO\] test message\n$`)
	if !re.MatchString(out.String()) {
		t.Errorf("unexpected line %q", out.String())
	}
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(dir, "logs", "stillmux.log")
	l, _, _ := newTestLogger(t, &cfg)
	l.Info("to file")
	l.Render("ffmpeg -i cover.png")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	for _, want := range []string{"[INFO] to file", "[RENDER] ffmpeg -i cover.png"} {
		if !bytes.Contains(b, []byte(want)) {
			t.Errorf("log file missing %q: %s", want, string(b))
		}
	}
	if bytes.Contains(b, []byte("\x1b[")) {
		t.Error("log file must not contain ANSI escapes")
	}
}

func TestLogger_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stillmux.log")
	if err := os.WriteFile(path, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.LogFile = path
	l, _, _ := newTestLogger(t, &cfg)
	l.Warn("second run")
	l.Close()

	b, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(b), "previous run\n") || !strings.Contains(string(b), "[WARN] second run") {
		t.Errorf("file not appended: %q", string(b))
	}
}

func TestLogger_ErrorGoesToStderr(t *testing.T) {
	cfg := config.DefaultConfig()
	l, out, errOut := newTestLogger(t, &cfg)
	l.Error("boom %d", 4)
	l.Success("fine")

	if !strings.Contains(errOut.String(), "[ERROR] boom 4") {
		t.Errorf("stderr: %q", errOut.String())
	}
	if strings.Contains(out.String(), "boom") || !strings.Contains(out.String(), "[SUCCESS] fine") {
		t.Errorf("stdout: %q", out.String())
	}
}

func TestLogger_Debug(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Verbose = true
	l, out, _ := newTestLogger(t, &cfg)
	l.Debug(false, "hidden")
	l.Debug(l.Verbose(), "shown")

	if strings.Contains(out.String(), "hidden") {
		t.Error("Debug(false) must be a no-op")
	}
	if !strings.Contains(out.String(), "[DEBUG] shown") {
		t.Errorf("stdout: %q", out.String())
	}
}
