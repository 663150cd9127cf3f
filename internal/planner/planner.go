package planner

import (
	"errors"
	"fmt"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/timing"
)

// ErrNoAudioStream is returned when the audio input probes without any
// audio stream (e.g. a video-only file passed as AUDIO).
var ErrNoAudioStream = errors.New("no audio stream")

// BuildPlan produces a complete RenderPlan from config and the gathered
// inputs. This is the central decision point that every render goes through.
//
// Flow:
//  1. Pick the source duration (audio, or the still duration when silent)
//  2. Reconcile it to a whole number of frames
//  3. Derive the container from the output extension
//  4. Build the scale/pad filter and pick the encoder
//  5. Build the audio plan (copy AAC, encode everything else)
func BuildPlan(cfg *config.Config, in Inputs) (*RenderPlan, error) {
	plan := &RenderPlan{
		ImagePath:  in.ImagePath,
		AudioPath:  in.AudioPath,
		OutputPath: in.OutputPath,
		FrameRate:  cfg.FrameRate,
		Encoder:    cfg.EncoderMode,
	}

	// --- 1. Source duration ---
	if in.AudioPath != "" {
		plan.SourceDuration = in.SourceDuration
	} else {
		plan.SourceDuration = cfg.StillDuration
	}

	// --- 2. Reconcile ---
	frames, err := timing.FrameCount(plan.SourceDuration, cfg.FrameRate)
	if err != nil {
		return nil, fmt.Errorf("reconcile %vs at %s fps: %w",
			plan.SourceDuration, timing.FormatRate(cfg.FrameRate), err)
	}
	if frames == 0 {
		return nil, fmt.Errorf("%w: %vs at %s fps rounds to zero frames",
			timing.ErrInvalidArgument, plan.SourceDuration, timing.FormatRate(cfg.FrameRate))
	}
	plan.Frames = frames
	plan.Duration = float64(frames) / cfg.FrameRate

	// --- 3. Container ---
	container, err := config.ContainerFromPath(in.OutputPath)
	if err != nil {
		return nil, err
	}
	plan.Container = container
	if container == config.ContainerMP4 || container == config.ContainerMOV {
		plan.ContainerOpts = []string{"-movflags", "+faststart"}
	}

	// --- 4. Video ---
	plan.ScaleFilter = BuildScaleFilter(cfg)

	// --- 5. Audio ---
	if in.AudioPath == "" {
		plan.Audio = AudioPlan{NoAudio: true}
		return plan, nil
	}
	ap, err := BuildAudioPlan(cfg, in.Audio)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.AudioPath, err)
	}
	plan.Audio = ap
	return plan, nil
}
