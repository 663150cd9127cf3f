package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/planner"
	"github.com/backmassage/stillmux/internal/timing"
)

// Binary is the ffmpeg executable looked up on PATH.
const Binary = "ffmpeg"

// Build constructs the complete ffmpeg argument slice for a render. The
// first element is the binary name.
//
// The retry parameter supplies the encoder currently in use, which may
// differ from the plan's after a hardware-to-software fallback.
func Build(cfg *config.Config, plan *planner.RenderPlan, rs *RetryState) []string {
	args := make([]string, 0, 48)
	rate := timing.FormatRate(plan.FrameRate)

	// --- Preamble ---
	args = append(args, Binary, "-hide_banner", "-nostdin")
	if cfg.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}

	// Loglevel: info when verbose, otherwise error.
	if cfg.Verbose {
		args = append(args, "-loglevel", "info", "-stats")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- VAAPI hardware device ---
	if rs.Encoder == config.EncoderHardware {
		args = append(args,
			"-init_hw_device", "vaapi=va:"+cfg.VaapiDevice,
			"-filter_hw_device", "va",
		)
	}

	// --- Inputs ---
	args = append(args, "-loop", "1", "-framerate", rate, "-i", plan.ImagePath)
	if plan.HasAudio() {
		args = append(args, "-i", plan.AudioPath)
	}

	// --- Video filter chain ---
	if vf := planner.BuildVideoFilter(cfg, plan, rs.Encoder); vf != "" {
		args = append(args, "-vf", vf)
	}

	// --- Stream maps ---
	args = append(args, "-map", "0:v:0")
	if plan.HasAudio() {
		args = append(args, "-map", fmt.Sprintf("1:a:%d", plan.Audio.StreamIndex))
	}

	// --- Video codec ---
	args = appendVideoCodec(args, cfg, rs)
	args = append(args, "-r", rate)

	// --- Audio codec ---
	args = appendAudioCodec(args, cfg, plan)

	// --- Timeline: cut at the reconciled duration ---
	args = append(args, "-t", timing.FormatSeconds(plan.Duration))

	// --- Container opts (e.g. -movflags +faststart) ---
	args = append(args, plan.ContainerOpts...)

	// --- Output ---
	args = append(args, plan.OutputPath)

	return args
}

// appendVideoCodec adds the codec-specific arguments for the video stream.
func appendVideoCodec(args []string, cfg *config.Config, rs *RetryState) []string {
	switch rs.Encoder {
	case config.EncoderHardware:
		args = append(args,
			"-c:v", planner.VideoCodec(config.EncoderHardware),
			"-qp", strconv.Itoa(cfg.QP),
		)
	default:
		args = append(args,
			"-c:v", planner.VideoCodec(config.EncoderSoftware),
			"-preset", cfg.Preset,
			"-crf", strconv.Itoa(cfg.CRF),
			"-tune", cfg.Tune,
			"-pix_fmt", cfg.PixFmt,
		)
	}
	return args
}

// appendAudioCodec adds audio codec arguments, or -an for a silent render.
func appendAudioCodec(args []string, cfg *config.Config, plan *planner.RenderPlan) []string {
	ap := &plan.Audio
	switch {
	case ap.NoAudio:
		return append(args, "-an")
	case ap.Copy:
		return append(args, "-c:a", "copy")
	default:
		return append(args,
			"-c:a", cfg.AudioEncoder,
			"-b:a", ap.Bitrate,
			"-ar", strconv.Itoa(ap.SampleRate),
			"-ac", strconv.Itoa(ap.Channels),
		)
	}
}
