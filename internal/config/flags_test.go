package config

import (
	"math"
	"testing"

	"github.com/spf13/pflag"
)

func parseRender(t *testing.T, args ...string) Config {
	t.Helper()
	cfg := DefaultConfig()
	var n NegatedFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	DefineGlobalFlags(fs, &cfg, &n)
	DefineRenderFlags(fs, &cfg, &n)
	DefineBatchFlags(fs, &n)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	ApplyNegatedFlags(&cfg, &n)
	return cfg
}

func TestFlags_Defaults(t *testing.T) {
	cfg := parseRender(t)
	want := DefaultConfig()
	if cfg.FrameRate != want.FrameRate || cfg.Width != want.Width || cfg.EncoderMode != want.EncoderMode {
		t.Errorf("parsing no flags changed defaults: %+v", cfg)
	}
	if !cfg.Overwrite || !cfg.SkipExisting || cfg.ColorMode != ColorAuto {
		t.Errorf("negated defaults changed: overwrite=%v skip=%v color=%q", cfg.Overwrite, cfg.SkipExisting, cfg.ColorMode)
	}
}

func TestFlags_Timeline(t *testing.T) {
	cfg := parseRender(t, "--fps", "30000/1001", "-t", "1:30")
	if math.Abs(cfg.FrameRate-30000.0/1001) > 1e-9 {
		t.Errorf("FrameRate = %v", cfg.FrameRate)
	}
	if cfg.StillDuration != 90 {
		t.Errorf("StillDuration = %v, want 90", cfg.StillDuration)
	}

	cfg = parseRender(t, "-r", "24")
	if cfg.FrameRate != 24 {
		t.Errorf("FrameRate = %v, want 24", cfg.FrameRate)
	}
}

func TestFlags_SizeAndEncoder(t *testing.T) {
	cfg := parseRender(t, "-s", "1280x720", "--fit", "pad", "-e", "hw", "--qp", "20", "-p", "slow")
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}
	if cfg.Fit != FitPad {
		t.Errorf("Fit = %q", cfg.Fit)
	}
	if cfg.EncoderMode != EncoderHardware {
		t.Errorf("EncoderMode = %q", cfg.EncoderMode)
	}
	if cfg.QP != 20 || cfg.Preset != "slow" {
		t.Errorf("QP=%d Preset=%q", cfg.QP, cfg.Preset)
	}
}

func TestFlags_Negated(t *testing.T) {
	cfg := parseRender(t, "--no-overwrite", "--force", "--no-color")
	if cfg.Overwrite {
		t.Error("--no-overwrite should clear Overwrite")
	}
	if cfg.SkipExisting {
		t.Error("--force should clear SkipExisting")
	}
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q, want never", cfg.ColorMode)
	}

	cfg = parseRender(t, "--color")
	if cfg.ColorMode != ColorAlways {
		t.Errorf("ColorMode = %q, want always", cfg.ColorMode)
	}

	// --no-color wins over --color.
	cfg = parseRender(t, "--color", "--no-color")
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q, want never", cfg.ColorMode)
	}
}

func TestFlags_InvalidValues(t *testing.T) {
	bad := [][]string{
		{"--fps", "0"},
		{"--fps", "fast"},
		{"--size", "1920"},
		{"--size", "axb"},
		{"--encoder", "nvenc"},
		{"--fit", "crop"},
		{"--duration", "soon"},
	}
	for _, args := range bad {
		cfg := DefaultConfig()
		var n NegatedFlags
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.SetOutput(discard{})
		DefineRenderFlags(fs, &cfg, &n)
		if err := fs.Parse(args); err == nil {
			t.Errorf("Parse(%v) should fail", args)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"1920x1080", 1920, 1080, false},
		{"1280X720", 1280, 720, false},
		{"0x720", 0, 0, true},
		{"1280", 0, 0, true},
		{"-2x4", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("ParseSize(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.w, tt.h)
			}
		})
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
