package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/stillmux/internal/config"
)

// recorder is a Logger that keeps every line for assertions.
type recorder struct{ lines []string }

func (r *recorder) add(level, format string, args ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}
func (r *recorder) Info(f string, a ...interface{})    { r.add("INFO", f, a...) }
func (r *recorder) Success(f string, a ...interface{}) { r.add("SUCCESS", f, a...) }
func (r *recorder) Warn(f string, a ...interface{})    { r.add("WARN", f, a...) }
func (r *recorder) Error(f string, a ...interface{})   { r.add("ERROR", f, a...) }
func (r *recorder) Debug(v bool, f string, a ...interface{}) {
	if v {
		r.add("DEBUG", f, a...)
	}
}

func (r *recorder) contains(s string) bool {
	for _, l := range r.lines {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

// fakeTools installs shell scripts on an isolated PATH. Each value is the
// script body; a tool not in the map is absent.
func fakeTools(t *testing.T, tools map[string]string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	for name, body := range tools {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", dir)
}

const fakeFFmpeg = `case "$*" in
*-version*) echo "ffmpeg version 7.1 Copyright (c) 2000-2024"; exit 0 ;;
*-encoders*) printf ' V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC\n V....D h264_vaapi           H.264/AVC (VAAPI)\n A....D aac                  AAC\n'; exit 0 ;;
*libx264*) exit 0 ;;
*aac*) exit 0 ;;
*) exit 1 ;;
esac`

func defaultCfg() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

func TestDependencyError(t *testing.T) {
	err := error(&DependencyError{Name: "ffmpeg", InstallURL: FfmpegInstallURL, Err: ErrFfmpegNotFound})
	if !errors.Is(err, ErrFfmpegNotFound) {
		t.Error("DependencyError should unwrap to its sentinel")
	}
	if !strings.Contains(err.Error(), FfmpegInstallURL) {
		t.Errorf("message should carry the install URL: %q", err.Error())
	}

	bare := &DependencyError{Name: "ffprobe", InstallURL: FfmpegInstallURL}
	if bare.Error() != "ffprobe not found. Install from: "+FfmpegInstallURL {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestIsHardwareError(t *testing.T) {
	hw := &DependencyError{Name: "vaapi", Err: ErrNoVAAPIDevice}
	if !IsHardwareError(hw) || !IsHardwareError(fmt.Errorf("wrapped: %w", hw)) {
		t.Error("VAAPI device errors are hardware errors")
	}
	if IsHardwareError(&DependencyError{Name: "ffmpeg", Err: ErrFfmpegNotFound}) {
		t.Error("missing ffmpeg is not a hardware-only error")
	}
}

func TestCheckDeps_MissingFfmpeg(t *testing.T) {
	fakeTools(t, map[string]string{"ffprobe": "exit 0"})
	err := CheckDeps(context.Background(), defaultCfg())
	var de *DependencyError
	if !errors.As(err, &de) || de.Name != "ffmpeg" {
		t.Fatalf("got %v, want ffmpeg DependencyError", err)
	}
	if !errors.Is(err, ErrFfmpegNotFound) {
		t.Error("expected ErrFfmpegNotFound")
	}
}

func TestCheckDeps_MissingFfprobe(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": fakeFFmpeg})
	if err := CheckDeps(context.Background(), defaultCfg()); !errors.Is(err, ErrFfprobeNotFound) {
		t.Errorf("got %v, want ErrFfprobeNotFound", err)
	}
}

func TestCheckDeps_Software(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": "exit 0"})
	if err := CheckDeps(context.Background(), defaultCfg()); err != nil {
		t.Errorf("CheckDeps: %v", err)
	}
}

func TestCheckDeps_SoftwareEncoderBroken(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": "exit 1", "ffprobe": "exit 0"})
	if err := CheckDeps(context.Background(), defaultCfg()); !errors.Is(err, ErrSoftwareEncodeFailed) {
		t.Errorf("got %v, want ErrSoftwareEncodeFailed", err)
	}
}

func TestCheckDeps_HardwareDeviceMissing(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": "exit 0"})
	cfg := defaultCfg()
	cfg.EncoderMode = config.EncoderHardware
	cfg.VaapiDevice = filepath.Join(t.TempDir(), "renderD128")
	err := CheckDeps(context.Background(), cfg)
	if !errors.Is(err, ErrNoVAAPIDevice) || !IsHardwareError(err) {
		t.Errorf("got %v, want ErrNoVAAPIDevice", err)
	}
}

func TestCheckDeps_HardwareTestFails(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": "exit 0"})
	cfg := defaultCfg()
	cfg.EncoderMode = config.EncoderHardware
	// Any existing path stands in for the render node; the fake ffmpeg
	// rejects the h264_vaapi test encode.
	cfg.VaapiDevice = t.TempDir()
	if err := CheckDeps(context.Background(), cfg); !errors.Is(err, ErrVAAPITestFailed) {
		t.Errorf("got %v, want ErrVAAPITestFailed", err)
	}
}

func TestCheckDeps_Cancelled(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": "exit 0"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CheckDeps(ctx, defaultCfg())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	var de *DependencyError
	if errors.As(err, &de) {
		t.Errorf("cancellation must not look like a missing dependency: %v", err)
	}
}

func TestCheckDeps_InterruptedTestEncode(t *testing.T) {
	// The test encode spins until the context deadline kills it.
	fakeTools(t, map[string]string{"ffmpeg": "while :; do :; done", "ffprobe": "exit 0"})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := CheckDeps(ctx, defaultCfg())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
	if errors.Is(err, ErrSoftwareEncodeFailed) {
		t.Errorf("interrupted test encode reported as broken libx264: %v", err)
	}
}

func TestRunCheck_Cancelled(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": "exit 0"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunCheck(ctx, defaultCfg(), &recorder{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	var de *DependencyError
	if errors.As(err, &de) {
		t.Errorf("cancellation must not look like a missing dependency: %v", err)
	}
}

func TestRunCheck_AllGood(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": `echo "ffprobe version 7.1"`})
	cfg := defaultCfg()
	cfg.VaapiDevice = filepath.Join(t.TempDir(), "missing")
	log := &recorder{}

	// VAAPI is missing, but software mode does not require it.
	if err := RunCheck(context.Background(), cfg, log); err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	for _, want := range []string{
		"SUCCESS ffmpeg: ffmpeg version 7.1",
		"SUCCESS ffprobe: ffprobe version 7.1",
		"h264_vaapi",
		"SUCCESS libx264 works",
		"SUCCESS AAC encoder works",
	} {
		if !log.contains(want) {
			t.Errorf("log missing %q:\n%s", want, strings.Join(log.lines, "\n"))
		}
	}
}

func TestRunCheck_StrictHardwareRequiresVAAPI(t *testing.T) {
	fakeTools(t, map[string]string{"ffmpeg": fakeFFmpeg, "ffprobe": "exit 0"})
	cfg := defaultCfg()
	cfg.EncoderMode = config.EncoderHardware
	cfg.StrictMode = true
	cfg.VaapiDevice = filepath.Join(t.TempDir(), "missing")

	err := RunCheck(context.Background(), cfg, &recorder{})
	if !errors.Is(err, ErrNoVAAPIDevice) {
		t.Errorf("got %v, want ErrNoVAAPIDevice", err)
	}
}

func TestRunCheck_NoFfmpeg(t *testing.T) {
	fakeTools(t, map[string]string{})
	log := &recorder{}
	err := RunCheck(context.Background(), defaultCfg(), log)
	if !errors.Is(err, ErrFfmpegNotFound) || !errors.Is(err, ErrFfprobeNotFound) {
		t.Errorf("got %v, want both binaries missing", err)
	}
	var de *DependencyError
	if !errors.As(err, &de) {
		t.Error("joined error should expose a DependencyError")
	}
	if !log.contains("ERROR ffmpeg not found") {
		t.Errorf("log: %v", log.lines)
	}
}

func TestH264Encoders(t *testing.T) {
	out := "Encoders:\n V....D libx264              libx264 H.264\n V....D libx265              libx265 H.265\n V....D h264_vaapi           H.264/AVC (VAAPI)\n A....D aac                  AAC\n"
	got := H264Encoders(out)
	if len(got) != 2 || !strings.Contains(got[0], "libx264") || !strings.Contains(got[1], "h264_vaapi") {
		t.Errorf("H264Encoders = %v", got)
	}
}
