// Package check provides system diagnostics (the doctor command) and
// pre-render dependency validation (CheckDeps) for ffmpeg, ffprobe, VAAPI,
// libx264 and AAC.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/backmassage/stillmux/internal/config"
)

// FfmpegInstallURL is shown whenever ffmpeg, ffprobe or one of their
// encoders is unusable.
const FfmpegInstallURL = "https://ffmpeg.org/download.html"

// Sentinel errors wrapped by DependencyError.
var (
	ErrFfmpegNotFound       = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound      = errors.New("ffprobe not found on PATH")
	ErrNoVAAPIDevice        = errors.New("VAAPI render device not found")
	ErrVAAPITestFailed      = errors.New("VAAPI test encode failed (device exists but h264_vaapi unusable)")
	ErrSoftwareEncodeFailed = errors.New("libx264 test encode failed")
	ErrAACEncodeFailed      = errors.New("aac test encode failed")
)

// DependencyError reports a missing or unusable external dependency.
type DependencyError struct {
	Name       string
	InstallURL string
	Err        error
}

func (e *DependencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v. Install from: %s", e.Name, e.Err, e.InstallURL)
	}
	return fmt.Sprintf("%s not found. Install from: %s", e.Name, e.InstallURL)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// IsHardwareError reports whether err means only the VAAPI path is unusable,
// so a render can still proceed in software.
func IsHardwareError(err error) bool {
	return errors.Is(err, ErrNoVAAPIDevice) || errors.Is(err, ErrVAAPITestFailed)
}

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the doctor flow: prints availability of ffmpeg, ffprobe,
// H.264 encoders, the VAAPI device and test encode, libx264 and AAC. Every
// check runs; the returned error joins the failures of required checks.
// VAAPI is only required when the hardware encoder is selected in strict
// mode, since otherwise a render falls back to software.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info("=== System Check ===")

	var errs []error
	if err := checkBinary(ctx, log, "ffmpeg", ErrFfmpegNotFound); err != nil {
		errs = append(errs, err)
		// Nothing else can run without ffmpeg.
		if err := checkBinary(ctx, log, "ffprobe", ErrFfprobeNotFound); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}
	if err := checkBinary(ctx, log, "ffprobe", ErrFfprobeNotFound); err != nil {
		errs = append(errs, err)
	}

	checkH264Encoders(ctx, log)

	if err := checkVAAPI(ctx, cfg, log); err != nil && cfg.EncoderMode == config.EncoderHardware && cfg.StrictMode {
		errs = append(errs, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	log.Info("Testing libx264...")
	if runSilent(ctx, "ffmpeg", softwareTestArgs()...) {
		log.Success("libx264 works")
	} else if ctx.Err() != nil {
		return ctx.Err()
	} else {
		log.Error("libx264 test encode failed")
		errs = append(errs, &DependencyError{Name: "libx264", InstallURL: FfmpegInstallURL, Err: ErrSoftwareEncodeFailed})
	}

	log.Info("Testing AAC encoder...")
	if runSilent(ctx, "ffmpeg", aacTestArgs()...) {
		log.Success("AAC encoder works")
	} else if ctx.Err() != nil {
		return ctx.Err()
	} else {
		log.Error("AAC encoder test failed")
		errs = append(errs, &DependencyError{Name: "aac", InstallURL: FfmpegInstallURL, Err: ErrAACEncodeFailed})
	}

	return errors.Join(errs...)
}

// checkBinary verifies name is on PATH and logs its version string.
func checkBinary(ctx context.Context, log Logger, name string, sentinel error) error {
	if _, err := exec.LookPath(name); err != nil {
		log.Error("%s not found", name)
		return &DependencyError{Name: name, InstallURL: FfmpegInstallURL, Err: sentinel}
	}
	out, err := exec.CommandContext(ctx, name, "-version").Output()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("%s found but -version failed: %v", name, err)
		return nil
	}
	log.Success("%s: %s", name, firstLine(string(out)))
	return nil
}

// checkH264Encoders lists all H.264 encoders reported by ffmpeg.
func checkH264Encoders(ctx context.Context, log Logger) {
	log.Info("H.264 encoders:")
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	for _, line := range H264Encoders(string(out)) {
		log.Info("  %s", line)
	}
}

// H264Encoders filters `ffmpeg -encoders` output down to H.264 encoder lines.
func H264Encoders(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "h264") || strings.Contains(lower, "264") {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return lines
}

// checkVAAPI verifies the configured render device and runs a minimal VAAPI
// encode test. It reports other render nodes when the configured one is missing.
func checkVAAPI(ctx context.Context, cfg *config.Config, log Logger) error {
	dev := cfg.VaapiDevice
	if _, err := os.Stat(dev); err != nil {
		if other := firstRenderDevice(); other != "" {
			log.Warn("VAAPI device %s not found (found %s; use --vaapi-device)", dev, other)
		} else {
			log.Warn("No VAAPI device found")
		}
		return &DependencyError{Name: "vaapi", InstallURL: FfmpegInstallURL, Err: ErrNoVAAPIDevice}
	}
	log.Info("Testing VAAPI on %s...", dev)
	if !runSilent(ctx, "ffmpeg", vaapiTestArgs(dev, cfg.VaapiFormat)...) {
		log.Warn("VAAPI test encode failed on %s", dev)
		return &DependencyError{Name: "h264_vaapi", InstallURL: FfmpegInstallURL, Err: ErrVAAPITestFailed}
	}
	log.Success("VAAPI works (h264_vaapi)")
	return nil
}

// CheckDeps is the pre-render validation: it verifies that ffmpeg and
// ffprobe are on PATH and that the chosen encoder actually works. In
// software mode a quick libx264 encode is run; in hardware mode the VAAPI
// device must exist and pass a short encode test. Returns a
// *DependencyError on failure.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return &DependencyError{Name: "ffmpeg", InstallURL: FfmpegInstallURL, Err: ErrFfmpegNotFound}
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return &DependencyError{Name: "ffprobe", InstallURL: FfmpegInstallURL, Err: ErrFfprobeNotFound}
	}

	if cfg.EncoderMode == config.EncoderSoftware {
		if !runSilent(ctx, "ffmpeg", softwareTestArgs()...) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &DependencyError{Name: "libx264", InstallURL: FfmpegInstallURL, Err: ErrSoftwareEncodeFailed}
		}
		return nil
	}

	if _, err := os.Stat(cfg.VaapiDevice); err != nil {
		return &DependencyError{Name: "vaapi", InstallURL: FfmpegInstallURL, Err: ErrNoVAAPIDevice}
	}
	if !runSilent(ctx, "ffmpeg", vaapiTestArgs(cfg.VaapiDevice, cfg.VaapiFormat)...) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &DependencyError{Name: "h264_vaapi", InstallURL: FfmpegInstallURL, Err: ErrVAAPITestFailed}
	}
	return nil
}

// --- internal helpers ---

// firstRenderDevice returns the first available /dev/dri/renderD* path,
// or empty string if none exist.
func firstRenderDevice() string {
	matches, _ := filepath.Glob("/dev/dri/renderD*")
	for _, m := range matches {
		if _, err := os.Stat(m); err == nil {
			return m
		}
	}
	return ""
}

func vaapiTestArgs(device, swFormat string) []string {
	if swFormat == "" {
		swFormat = "nv12"
	}
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-init_hw_device", "vaapi=va:" + device,
		"-filter_hw_device", "va",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-vf", "format=" + swFormat + ",hwupload",
		"-c:v", "h264_vaapi",
		"-f", "null", "-",
	}
}

// softwareTestArgs returns the ffmpeg arguments for a minimal libx264 test
// encode. Shared by RunCheck and CheckDeps.
func softwareTestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-f", "null", "-",
	}
}

func aacTestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", "aac", "-f", "null", "-",
	}
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(ctx context.Context, name string, args ...string) bool {
	return exec.CommandContext(ctx, name, args...).Run() == nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		return s[:idx]
	}
	return s
}
