package probe

import "strconv"

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename       string
	NbStreams      int
	FormatName     string
	FormatLongName string
	Duration       float64
	Size           int64
	BitRate        int64
	Tags           map[string]string
}

// VideoStream holds the parsed properties of a single video stream.
type VideoStream struct {
	Index         int
	Codec         string
	PixFmt        string
	Width         int
	Height        int
	AvgFrameRate  string
	Duration      float64
	IsAttachedPic bool
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Index         int
	Codec         string
	Channels      int
	ChannelLayout string
	SampleRate    int
	BitRate       int64
	Duration      float64
	Language      string
	IsDefault     bool
}

// MediaInfo is the parsed output of a single ffprobe JSON call.
// PrimaryVideo is the first non-attached-pic video stream (nil if none);
// embedded cover art in audio files lands in CoverArt instead.
type MediaInfo struct {
	Format       FormatInfo
	PrimaryVideo *VideoStream
	CoverArt     *VideoStream
	AudioStreams []AudioStream
}

// HasAudio reports whether at least one audio stream was found.
func (m *MediaInfo) HasAudio() bool {
	return len(m.AudioStreams) > 0
}

// PrimaryAudio returns the default audio stream, or the first one when no
// stream carries the default disposition. Nil when there is no audio.
func (m *MediaInfo) PrimaryAudio() *AudioStream {
	if len(m.AudioStreams) == 0 {
		return nil
	}
	for i := range m.AudioStreams {
		if m.AudioStreams[i].IsDefault {
			return &m.AudioStreams[i]
		}
	}
	return &m.AudioStreams[0]
}

// Duration returns the container duration, falling back to the longest
// stream duration when the container does not report one (raw ADTS/AAC,
// some WAV files).
func (m *MediaInfo) Duration() float64 {
	if m.Format.Duration > 0 {
		return m.Format.Duration
	}
	var longest float64
	for _, a := range m.AudioStreams {
		if a.Duration > longest {
			longest = a.Duration
		}
	}
	if m.PrimaryVideo != nil && m.PrimaryVideo.Duration > longest {
		longest = m.PrimaryVideo.Duration
	}
	return longest
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (m *MediaInfo) Resolution() string {
	if m.PrimaryVideo == nil || m.PrimaryVideo.Width <= 0 || m.PrimaryVideo.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(m.PrimaryVideo.Width) + "x" + strconv.Itoa(m.PrimaryVideo.Height)
}
