package planner

import (
	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/probe"
)

// RenderPlan holds every decision needed to render one still-image video.
// It is produced by BuildPlan and consumed by the ffmpeg package to build
// command arguments and by the retry engine for its initial state.
type RenderPlan struct {
	// Inputs and output.
	ImagePath  string
	AudioPath  string // Empty when the video is silent.
	OutputPath string
	Container  config.Container

	// Timeline.
	FrameRate      float64
	SourceDuration float64 // Audio duration, or the configured still duration.
	Frames         int64
	Duration       float64 // Frames / FrameRate; passed to ffmpeg as -t.

	// Video.
	Encoder     config.EncoderMode
	ScaleFilter string // Software part of the filter chain (scale, pad).

	// Audio.
	Audio AudioPlan

	// Container-specific flags.
	ContainerOpts []string // e.g. -movflags +faststart
}

// HasAudio reports whether the plan maps an audio input.
func (p *RenderPlan) HasAudio() bool { return !p.Audio.NoAudio }

// AudioPlan describes how the audio input is carried into the output.
type AudioPlan struct {
	NoAudio     bool
	StreamIndex int    // Index among the input's audio streams (0:a:N).
	Copy        bool   // AAC passthrough.
	SourceCodec string // As reported by ffprobe.
	Channels    int    // Target channel count when encoding.
	Bitrate     string // e.g. "192k"
	SampleRate  int    // e.g. 48000
}

// Inputs are the per-render facts gathered before planning.
type Inputs struct {
	ImagePath  string
	AudioPath  string
	OutputPath string

	// SourceDuration is the probed audio duration in seconds. Ignored when
	// AudioPath is empty; Config.StillDuration is used instead.
	SourceDuration float64

	// Audio is the JSON probe of AudioPath. When nil the audio is encoded
	// with default settings.
	Audio *probe.MediaInfo
}
