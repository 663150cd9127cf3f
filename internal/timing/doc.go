// Package timing reconciles an audio clip's duration with a frame-quantized
// video timeline, and parses and formats the rate and clock values that feed
// the ffmpeg command line.
//
// Reconciliation rounds to the nearest whole frame. Exact half-frame values
// round away from zero (math.Round), so 0.5 frames becomes 1 frame and the
// rendered video is never shorter than the audio by more than half a frame.
// Durations that round to zero frames yield a zero-length video; callers
// must not special-case that result.
package timing
