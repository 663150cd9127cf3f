package timing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is wrapped by every error returned for a negative or
// non-finite duration, a non-positive frame rate, or a frame count too large
// to represent exactly.
var ErrInvalidArgument = errors.New("invalid argument")

// MaxFrames is the largest frame count FrameCount returns. Beyond 2^53 a
// float64 no longer holds every integer, so the result would not be exact.
const MaxFrames = 1 << 53

// FrameCount returns round(seconds * rate), the number of whole frames
// needed to cover seconds of audio at rate frames per second.
func FrameCount(seconds, rate float64) (int64, error) {
	if err := checkArgs(seconds, rate); err != nil {
		return 0, err
	}
	return int64(math.Round(seconds * rate)), nil
}

// Reconcile returns the video duration for seconds of audio at rate:
// FrameCount(seconds, rate) / rate. The result is always an exact number of
// frames, so reconciling an already reconciled value returns it unchanged.
func Reconcile(seconds, rate float64) (float64, error) {
	frames, err := FrameCount(seconds, rate)
	if err != nil {
		return 0, err
	}
	return float64(frames) / rate, nil
}

// FrameDuration returns the length of one frame in seconds.
func FrameDuration(rate float64) (float64, error) {
	if err := checkRate(rate); err != nil {
		return 0, err
	}
	return 1 / rate, nil
}

func checkArgs(seconds, rate float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return fmt.Errorf("%w: duration %v must be a finite value >= 0", ErrInvalidArgument, seconds)
	}
	if err := checkRate(rate); err != nil {
		return err
	}
	if n := seconds * rate; n > MaxFrames {
		return fmt.Errorf("%w: duration %v at %v fps exceeds %d frames", ErrInvalidArgument, seconds, rate, int64(MaxFrames))
	}
	return nil
}

func checkRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("%w: frame rate %v must be a finite value > 0", ErrInvalidArgument, rate)
	}
	return nil
}
