package config

// This file binds CLI flags to a Config. Flags are grouped into global
// (logging, color, history), render (timeline, geometry, encoder, behavior)
// and batch. Negated flags (e.g. --no-overwrite) are captured in
// NegatedFlags and applied after parsing so Config defaults hold unless set.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/backmassage/stillmux/internal/timing"
)

// NegatedFlags holds boolean flags that invert a default or resolve a
// conflict between two flags. Apply them with [ApplyNegatedFlags].
type NegatedFlags struct {
	noOverwrite bool
	force       bool
	forceColor  bool
	noColor     bool
}

// DefineGlobalFlags registers --verbose, --color, --no-color, --log,
// --history-db and --no-history.
func DefineGlobalFlags(fs *pflag.FlagSet, cfg *Config, n *NegatedFlags) {
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output (also streams ffmpeg progress)")
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.StringVarP(&cfg.LogFile, "log", "l", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.HistoryDB, "history-db", cfg.HistoryDB, "Render history database path")
	fs.BoolVar(&cfg.NoHistory, "no-history", cfg.NoHistory, "Do not record renders in the history database")
}

// DefineRenderFlags registers the timeline, geometry, encoder and behavior
// flags shared by render and batch.
func DefineRenderFlags(fs *pflag.FlagSet, cfg *Config, n *NegatedFlags) {
	fs.VarP(&rateValue{&cfg.FrameRate}, "fps", "r", "Output frame rate (30, 29.97 or 30000/1001)")
	fs.VarP(&clockValue{&cfg.StillDuration}, "duration", "t", "Video length when there is no audio (seconds, MM:SS or HH:MM:SS)")
	fs.VarP(&sizeValue{&cfg.Width, &cfg.Height}, "size", "s", "Output size as WxH")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Output width (even)")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Output height (even)")
	fs.Var(&fitModeValue{&cfg.Fit}, "fit", "Image fit: stretch | pad")

	fs.VarP(&encoderModeValue{&cfg.EncoderMode}, "encoder", "e", "Video encoder: software | hardware")
	fs.StringVar(&cfg.VaapiDevice, "vaapi-device", cfg.VaapiDevice, "VAAPI render node for hardware encoding")
	fs.IntVar(&cfg.CRF, "crf", cfg.CRF, "libx264 CRF (software encoder)")
	fs.IntVar(&cfg.QP, "qp", cfg.QP, "h264_vaapi QP (hardware encoder)")
	fs.StringVarP(&cfg.Preset, "preset", "p", cfg.Preset, "x264 preset (e.g. veryfast, medium, slow)")
	fs.StringVar(&cfg.AudioBitrate, "audio-bitrate", cfg.AudioBitrate, "AAC bitrate when audio is re-encoded")

	fs.BoolVar(&n.noOverwrite, "no-overwrite", false, "Fail instead of replacing an existing output file")
	fs.BoolVar(&cfg.StrictMode, "strict", cfg.StrictMode, "Disable the hardware-to-software encoder fallback")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", cfg.DryRun, "Print the ffmpeg command without running it")

	fs.StringVar(&cfg.UploadBucket, "upload-bucket", cfg.UploadBucket, "Upload the result to this S3-compatible bucket")
	fs.StringVar(&cfg.UploadPrefix, "upload-prefix", cfg.UploadPrefix, "Object key prefix for uploads")
}

// DefineInteractiveFlag registers -i/--interactive (single render only).
func DefineInteractiveFlag(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVarP(&cfg.Interactive, "interactive", "i", cfg.Interactive, "Prompt for the image, audio and output paths")
}

// DefineBatchFlags registers -f/--force.
func DefineBatchFlags(fs *pflag.FlagSet, n *NegatedFlags) {
	fs.BoolVarP(&n.force, "force", "f", false, "Re-render pairs whose output already exists")
}

// ApplyNegatedFlags copies negated and override flag values into cfg.
func ApplyNegatedFlags(cfg *Config, n *NegatedFlags) {
	if n.noOverwrite {
		cfg.Overwrite = false
	}
	if n.force {
		cfg.SkipExisting = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// ParseSize parses "WxH" (e.g. 1920x1080).
func ParseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("bad size %q; expected WxH", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("bad width in %q: %w", s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("bad height in %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	return width, height, nil
}

// pflag.Value adapters for typed fields.

type encoderModeValue struct{ p *EncoderMode }

func (e *encoderModeValue) String() string { return string(*e.p) }
func (e *encoderModeValue) Type() string   { return "encoder" }
func (e *encoderModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "software", "sw", "cpu":
		*e.p = EncoderSoftware
	case "hardware", "hw", "vaapi":
		*e.p = EncoderHardware
	default:
		return fmt.Errorf("invalid encoder %q (use 'software' or 'hardware')", s)
	}
	return nil
}

type fitModeValue struct{ p *FitMode }

func (f *fitModeValue) String() string { return string(*f.p) }
func (f *fitModeValue) Type() string   { return "fit" }
func (f *fitModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "stretch":
		*f.p = FitStretch
	case "pad":
		*f.p = FitPad
	default:
		return fmt.Errorf("invalid fit mode %q (use 'stretch' or 'pad')", s)
	}
	return nil
}

type rateValue struct{ p *float64 }

func (r *rateValue) String() string { return timing.FormatRate(*r.p) }
func (r *rateValue) Type() string   { return "rate" }
func (r *rateValue) Set(s string) error {
	rate, err := timing.ParseRate(s)
	if err != nil {
		return err
	}
	*r.p = rate
	return nil
}

type clockValue struct{ p *float64 }

func (c *clockValue) String() string { return timing.FormatSeconds(*c.p) }
func (c *clockValue) Type() string   { return "duration" }
func (c *clockValue) Set(s string) error {
	d, err := timing.ParseClock(s)
	if err != nil {
		return err
	}
	*c.p = d
	return nil
}

type sizeValue struct{ w, h *int }

func (v *sizeValue) String() string { return fmt.Sprintf("%dx%d", *v.w, *v.h) }
func (v *sizeValue) Type() string   { return "WxH" }
func (v *sizeValue) Set(s string) error {
	w, h, err := ParseSize(s)
	if err != nil {
		return err
	}
	*v.w, *v.h = w, h
	return nil
}
