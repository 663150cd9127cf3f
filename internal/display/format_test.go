package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/term"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"1 MiB", 1024 * 1024, "1.0 MiB"},
		{"1 GiB", 1024 * 1024 * 1024, "1.0 GiB"},
		{"typical file 700 MiB", 734003200, "700 MiB"},
		{"4.7 GiB", 5046586572, "4.7 GiB"},
		{"negative", -1024 * 1024, "-1.0 MiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatBitrateLabel(t *testing.T) {
	tests := []struct {
		name string
		kbps int64
		want string
	}{
		{"sub-megabit", 800, "800 kbps"},
		{"exactly 1 Mbps", 1000, "1.0 Mbps"},
		{"typical audio", 320, "320 kbps"},
		{"high bitrate", 25000, "25.0 Mbps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBitrateLabel(tt.kbps)
			if got != tt.want {
				t.Errorf("FormatBitrateLabel(%d) = %q, want %q", tt.kbps, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(5); got != "0:00:05.000 (5s)" {
		t.Errorf("FormatDuration(5) = %q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := FormatElapsed(1234567 * time.Microsecond); got != "1.2s" {
		t.Errorf("FormatElapsed = %q", got)
	}
	if got := FormatElapsed(42 * time.Millisecond); got != "42ms" {
		t.Errorf("FormatElapsed = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := FormatAge(now.Add(-3*time.Minute), now); got != "3 minutes ago" {
		t.Errorf("FormatAge = %q", got)
	}
}

func TestSummaryBox_Plain(t *testing.T) {
	term.Configure(config.ColorNever)
	out := SummaryBox("Rendered", []Field{
		{"Output", "out.mp4"},
		{"Frames", "301"},
	})
	for _, want := range []string{"Rendered", "Output", "out.mp4", "Frames", "301", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("box missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain mode must not emit ANSI escapes")
	}
}

func TestTable_Plain(t *testing.T) {
	term.Configure(config.ColorNever)
	out := Table([]string{"ID", "Output"}, [][]string{{"a1b2", "talk.mp4"}, {"c3d4", "song.mkv"}})
	for _, want := range []string{"ID", "Output", "a1b2", "talk.mp4", "song.mkv"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPrintBanner(t *testing.T) {
	term.Configure(config.ColorNever)
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.0.0")
	if !strings.Contains(buf.String(), "v1.0.0") || !strings.Contains(buf.String(), "|___/") {
		t.Errorf("banner: %q", buf.String())
	}
}
