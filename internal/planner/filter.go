package planner

import (
	"fmt"
	"strings"

	"github.com/backmassage/stillmux/internal/config"
)

// BuildScaleFilter returns the software part of the video filter chain that
// maps the still image onto a Width x Height frame.
//
//	stretch: scale=W:H
//	pad:     scale=W:H:force_original_aspect_ratio=decrease,pad=W:H:(ow-iw)/2:(oh-ih)/2:color=black,setsar=1
func BuildScaleFilter(cfg *config.Config) string {
	w, h := cfg.Width, cfg.Height
	if cfg.Fit == config.FitPad {
		return fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,setsar=1",
			w, h, w, h)
	}
	return fmt.Sprintf("scale=%d:%d", w, h)
}

// BuildVideoFilter constructs the comma-joined ffmpeg video filter chain for
// the given encoder. VAAPI requires a format conversion and hwupload after
// the software scale.
func BuildVideoFilter(cfg *config.Config, plan *RenderPlan, encoder config.EncoderMode) string {
	filters := []string{plan.ScaleFilter}
	if encoder == config.EncoderHardware {
		swFormat := cfg.VaapiFormat
		if swFormat == "" {
			swFormat = "nv12"
		}
		filters = append(filters, "format="+swFormat, "hwupload")
	}
	return strings.Join(filters, ",")
}

// VideoCodec returns the ffmpeg encoder name for the given mode.
func VideoCodec(encoder config.EncoderMode) string {
	if encoder == config.EncoderHardware {
		return "h264_vaapi"
	}
	return "libx264"
}
