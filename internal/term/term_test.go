package term

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/stillmux/internal/config"
)

func TestConfigure_Never(t *testing.T) {
	Configure(config.ColorNever)
	if Enabled() {
		t.Fatal("ColorNever should disable colors")
	}
	if got := Level("WARN"); got != "[WARN]" {
		t.Errorf("Level(WARN) = %q, want plain tag", got)
	}
	if got := Paint(ColorRed, "x"); got != "x" {
		t.Errorf("Paint = %q, want plain", got)
	}
}

func TestConfigure_Always(t *testing.T) {
	Configure(config.ColorAlways)
	defer Configure(config.ColorNever)

	if !Enabled() {
		t.Fatal("ColorAlways should enable colors")
	}
	got := Level("ERROR")
	if !strings.Contains(got, "[ERROR]") || !strings.Contains(got, "\x1b[") {
		t.Errorf("Level(ERROR) = %q, want ANSI-styled tag", got)
	}
	if got := Level("CUSTOM"); got != "[CUSTOM]" {
		t.Errorf("unknown level should be plain, got %q", got)
	}
}

func TestResolve_AutoNotTerminal(t *testing.T) {
	// go test's stdout is not a TTY.
	if IsTerminal(os.Stdout) {
		t.Skip("stdout is a terminal")
	}
	if resolve(config.ColorAuto) {
		t.Error("auto mode should disable colors off a TTY")
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file is not a terminal")
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "plain"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file is not a terminal")
	}
}
