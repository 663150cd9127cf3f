package ffmpeg

import (
	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/planner"
)

// RetryAction identifies which fix was applied (or none).
type RetryAction int

const (
	RetryNone             RetryAction = iota
	RetrySoftwareFallback             // Switch from h264_vaapi to libx264.
)

const maxAttempts = 2

// RetryState tracks the encoder in use across ffmpeg attempts for a single
// render.
type RetryState struct {
	Attempt     int
	MaxAttempts int
	Encoder     config.EncoderMode
	Strict      bool
	FellBack    bool
}

// NewRetryState initializes a RetryState from the plan's encoder. In strict
// mode Advance never applies a fix.
func NewRetryState(plan *planner.RenderPlan, strict bool) *RetryState {
	return &RetryState{
		MaxAttempts: maxAttempts,
		Encoder:     plan.Encoder,
		Strict:      strict,
	}
}

// Advance inspects stderr from a failed ffmpeg run and returns the fix to
// apply before the next attempt, updating the state accordingly. Returns
// RetryNone when no fixable pattern matches, strict mode is on, or the
// attempt limit is reached.
func (s *RetryState) Advance(stderr string) RetryAction {
	s.Attempt++
	if s.Strict || s.Attempt >= s.MaxAttempts {
		return RetryNone
	}
	if s.Encoder == config.EncoderHardware && MatchHardwareFailure(stderr) {
		s.Encoder = config.EncoderSoftware
		s.FellBack = true
		return RetrySoftwareFallback
	}
	return RetryNone
}

// String returns a short label for log lines.
func (a RetryAction) String() string {
	switch a {
	case RetrySoftwareFallback:
		return "fall back to software encoder"
	default:
		return "none"
	}
}
