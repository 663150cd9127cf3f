// Package config holds runtime configuration: defaults, .env and environment
// overrides, CLI flag binding, and validation. One Config drives every
// command so defaults cannot drift between code paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/backmassage/stillmux/internal/timing"
)

// --- Enum types for validated string fields ---

// EncoderMode selects the video encoding backend.
type EncoderMode string

const (
	EncoderSoftware EncoderMode = "software" // libx264 on the CPU (default).
	EncoderHardware EncoderMode = "hardware" // h264_vaapi on a VAAPI render node.
)

// FitMode controls how the still image is mapped onto the output frame.
type FitMode string

const (
	FitStretch FitMode = "stretch" // Scale to exactly WxH, ignoring aspect ratio (default).
	FitPad     FitMode = "pad"     // Scale to fit inside WxH and letterbox the rest.
)

// Container is the output container format, derived from the output extension.
type Container string

const (
	ContainerMP4 Container = "mp4"
	ContainerMOV Container = "mov"
	ContainerMKV Container = "mkv"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Quality bounds shared by libx264 CRF and h264_vaapi QP.
const (
	QualityMin = 0
	QualityMax = 51
)

var x264Presets = []string{
	"ultrafast", "superfast", "veryfast", "faster", "fast",
	"medium", "slow", "slower", "veryslow", "placebo",
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then [ApplyEnv], then CLI flags, and is passed by pointer to the packages
// that need it.
type Config struct {
	// Single render paths (positional args, discovery, or the interactive form).
	ImagePath  string
	AudioPath  string // Empty renders a silent video of StillDuration.
	OutputPath string

	// Batch paths.
	InputDir  string
	OutputDir string

	// Timeline.
	FrameRate     float64 // Default: 30.
	StillDuration float64 // Default: 5s. Used only when there is no audio.

	// Geometry.
	Width  int     // Default: 1920.
	Height int     // Default: 1080.
	Fit    FitMode // Default: "stretch".

	// Video encoder.
	EncoderMode EncoderMode // Default: "software".
	VaapiDevice string      // Default: "/dev/dri/renderD128".
	CRF         int         // Default: 23 (software).
	QP          int         // Default: 23 (hardware).
	Preset      string      // Default: "medium" (software).
	Tune        string      // Fixed: "stillimage" (software).
	PixFmt      string      // Fixed: "yuv420p".
	VaapiFormat string      // Fixed: "nv12".

	// Audio encoding.
	AudioEncoder    string // Fixed: "aac".
	AudioBitrate    string // Default: "192k".
	AudioSampleRate int    // Fixed: 48000 Hz.

	// Behavior flags.
	Overwrite    bool // Default: true. Cleared by --no-overwrite.
	SkipExisting bool // Batch only. Default: true. Cleared by --force.
	StrictMode   bool // Disable the hardware-to-software fallback.
	DryRun       bool
	Interactive  bool

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string

	// Render history ledger.
	HistoryDB string // Default: ~/.local/share/stillmux/history.db.
	NoHistory bool

	// Optional upload of finished renders to S3-compatible storage.
	UploadEndpoint  string
	UploadAccessKey string
	UploadSecretKey string
	UploadBucket    string
	UploadPrefix    string
	UploadUseSSL    bool
}

// DefaultConfig returns a Config with every default set.
func DefaultConfig() Config {
	return Config{
		FrameRate:       30,
		StillDuration:   5,
		Width:           1920,
		Height:          1080,
		Fit:             FitStretch,
		EncoderMode:     EncoderSoftware,
		VaapiDevice:     "/dev/dri/renderD128",
		CRF:             23,
		QP:              23,
		Preset:          "medium",
		Tune:            "stillimage",
		PixFmt:          "yuv420p",
		VaapiFormat:     "nv12",
		AudioEncoder:    "aac",
		AudioBitrate:    "192k",
		AudioSampleRate: 48000,
		Overwrite:       true,
		SkipExisting:    true,
		ColorMode:       ColorAuto,
		HistoryDB:       DefaultHistoryPath(),
		UploadUseSSL:    true,
	}
}

// DefaultHistoryPath returns ~/.local/share/stillmux/history.db, or "" when
// the home directory cannot be determined (history is then disabled).
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "stillmux", "history.db")
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, numeric ranges, and normalizes the audio
// bitrate. Input paths are checked later by the pipeline, which needs to
// tell a missing file apart from a bad argument.
func (c *Config) Validate() error {
	switch c.EncoderMode {
	case EncoderSoftware, EncoderHardware:
		// valid
	default:
		return errors.New("invalid encoder (use 'software' or 'hardware')")
	}

	switch c.Fit {
	case FitStretch, FitPad:
		// valid
	default:
		return errors.New("invalid fit mode (use 'stretch' or 'pad')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if _, err := timing.FrameDuration(c.FrameRate); err != nil {
		return err
	}
	if c.StillDuration < 0 {
		return fmt.Errorf("duration must not be negative (got %v)", c.StillDuration)
	}

	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("size must be positive (got %dx%d)", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("size %dx%d must have even dimensions for %s (try %dx%d)",
			c.Width, c.Height, c.PixFmt, even(c.Width), even(c.Height))
	}

	if c.CRF < QualityMin || c.CRF > QualityMax {
		return fmt.Errorf("crf must be between %d and %d (got %d)", QualityMin, QualityMax, c.CRF)
	}
	if c.QP < QualityMin || c.QP > QualityMax {
		return fmt.Errorf("qp must be between %d and %d (got %d)", QualityMin, QualityMax, c.QP)
	}
	if !validPreset(c.Preset) {
		return fmt.Errorf("invalid preset %q (use one of %s)", c.Preset, strings.Join(x264Presets, ", "))
	}

	normalizedBitrate, err := normalizeAudioBitrate(c.AudioBitrate)
	if err != nil {
		return err
	}
	c.AudioBitrate = normalizedBitrate
	return nil
}

// UploadEnabled reports whether a bucket was configured for publishing.
func (c *Config) UploadEnabled() bool {
	return c.UploadBucket != ""
}

// ContainerFromPath derives the output container from the file extension.
func ContainerFromPath(path string) (Container, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "mp4", "m4v":
		return ContainerMP4, nil
	case "mov":
		return ContainerMOV, nil
	case "mkv":
		return ContainerMKV, nil
	default:
		return "", fmt.Errorf("unsupported output extension %q (use .mp4, .m4v, .mov or .mkv)", filepath.Ext(path))
	}
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory, so a batch run never discovers its own
// output. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// normalizeAudioBitrate validates and canonicalizes user bitrate input.
// Accepted forms: "192", "192k", "192K", "192kbps". Output is "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("audio bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid audio bitrate %q (use positive Kbps value, e.g. 192k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}

func validPreset(p string) bool {
	for _, v := range x264Presets {
		if p == v {
			return true
		}
	}
	return false
}

func even(n int) int {
	if n%2 == 0 {
		return n
	}
	return n + 1
}
