package planner

import (
	"strings"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/probe"
)

// audioCopyMaxBitrate is the upper bound (exclusive) for copying an AAC
// stream. AAC at or above this bitrate is re-encoded to the configured
// target to avoid carrying unnecessarily large audio.
const audioCopyMaxBitrate int64 = 320_000 // 320 kbps

// maxAudioChannels caps encoded audio at stereo.
const maxAudioChannels = 2

// BuildAudioPlan decides how the primary audio stream reaches the output.
//
//   - No probe data → encode with defaults (stereo, configured bitrate).
//   - Probe data without audio streams → ErrNoAudioStream.
//   - AAC below 320 kbps → copy. Unknown bitrate (0) is treated as
//     acceptable to avoid lossy-to-lossy re-encoding when we cannot verify
//     the rate. Every supported container (mp4, mov, mkv) carries AAC.
//   - Anything else → encode to AAC.
func BuildAudioPlan(cfg *config.Config, mi *probe.MediaInfo) (AudioPlan, error) {
	ap := AudioPlan{
		Channels:   maxAudioChannels,
		Bitrate:    cfg.AudioBitrate,
		SampleRate: cfg.AudioSampleRate,
	}
	if mi == nil {
		return ap, nil
	}

	a := mi.PrimaryAudio()
	if a == nil {
		return AudioPlan{}, ErrNoAudioStream
	}
	for i := range mi.AudioStreams {
		if mi.AudioStreams[i].Index == a.Index {
			ap.StreamIndex = i
			break
		}
	}
	ap.SourceCodec = a.Codec
	ap.Channels = clampChannels(a.Channels, maxAudioChannels)

	if strings.EqualFold(a.Codec, "aac") && (a.BitRate == 0 || a.BitRate < audioCopyMaxBitrate) {
		ap.Copy = true
	}
	return ap, nil
}

func clampChannels(source, max int) int {
	if source < 1 {
		return max
	}
	if source > max {
		return max
	}
	return source
}
