package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// MP3 with embedded cover art (attached pic) and a single stereo stream.
const sampleMP3 = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mp3",
      "codec_type": "audio",
      "channels": 2,
      "channel_layout": "stereo",
      "sample_rate": "44100",
      "bit_rate": "320000",
      "duration": "10.031000",
      "disposition": { "default": 0, "attached_pic": 0 },
      "tags": { "language": "eng" }
    },
    {
      "index": 1,
      "codec_name": "mjpeg",
      "codec_type": "video",
      "width": 600,
      "height": 600,
      "pix_fmt": "yuvj420p",
      "disposition": { "default": 0, "attached_pic": 1 },
      "tags": { "comment": "Cover (front)" }
    }
  ],
  "format": {
    "filename": "/music/episode.mp3",
    "nb_streams": 2,
    "format_name": "mp3",
    "format_long_name": "MP2/3 (MPEG audio layer 2/3)",
    "duration": "10.031000",
    "size": "401240",
    "bit_rate": "320000",
    "tags": { "title": "Episode 12" }
  }
}`

// Raw AAC: no container duration, only a stream duration.
const sampleRawAAC = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "aac",
      "codec_type": "audio",
      "channels": 1,
      "channel_layout": "mono",
      "sample_rate": "48000",
      "duration": "42.500000",
      "disposition": { "default": 1 },
      "tags": {}
    }
  ],
  "format": {
    "filename": "voice.aac",
    "nb_streams": 1,
    "format_name": "aac",
    "duration": "N/A",
    "tags": {}
  }
}`

// PNG still image as seen by ffprobe's image2 demuxer.
const samplePNG = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "png",
      "codec_type": "video",
      "pix_fmt": "rgba",
      "width": 1600,
      "height": 900,
      "avg_frame_rate": "0/0",
      "disposition": { "default": 0, "attached_pic": 0 },
      "tags": {}
    }
  ],
  "format": {
    "filename": "cover.png",
    "nb_streams": 1,
    "format_name": "png_pipe",
    "size": "812345",
    "tags": {}
  }
}`

func TestParseJSON_AudioWithCoverArt(t *testing.T) {
	mi, err := ParseJSON([]byte(sampleMP3))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}

	if mi.Format.Filename != "/music/episode.mp3" {
		t.Errorf("filename: got %q", mi.Format.Filename)
	}
	if mi.Format.Duration != 10.031 {
		t.Errorf("duration: got %f, want 10.031", mi.Format.Duration)
	}
	if mi.Format.Size != 401240 || mi.Format.BitRate != 320000 {
		t.Errorf("size/bitrate: got %d/%d", mi.Format.Size, mi.Format.BitRate)
	}
	if mi.Format.Tags["title"] != "Episode 12" {
		t.Errorf("tags: got %v", mi.Format.Tags)
	}

	if mi.PrimaryVideo != nil {
		t.Errorf("cover art must not become the primary video: %+v", mi.PrimaryVideo)
	}
	if mi.CoverArt == nil || mi.CoverArt.Codec != "mjpeg" {
		t.Errorf("CoverArt: got %+v", mi.CoverArt)
	}

	if !mi.HasAudio() || len(mi.AudioStreams) != 1 {
		t.Fatalf("audio streams: got %d", len(mi.AudioStreams))
	}
	a := mi.PrimaryAudio()
	if a.Codec != "mp3" || a.Channels != 2 || a.SampleRate != 44100 || a.BitRate != 320000 {
		t.Errorf("audio: got %+v", a)
	}
	if a.Language != "eng" {
		t.Errorf("language: got %q", a.Language)
	}
}

func TestParseJSON_DurationFallback(t *testing.T) {
	mi, err := ParseJSON([]byte(sampleRawAAC))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if mi.Format.Duration != 0 {
		t.Errorf("format duration N/A should parse as 0, got %f", mi.Format.Duration)
	}
	if got := mi.Duration(); got != 42.5 {
		t.Errorf("Duration() = %f, want stream duration 42.5", got)
	}
	if a := mi.PrimaryAudio(); a == nil || !a.IsDefault || a.ChannelLayout != "mono" {
		t.Errorf("PrimaryAudio: got %+v", a)
	}
}

func TestParseJSON_StillImage(t *testing.T) {
	mi, err := ParseJSON([]byte(samplePNG))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if mi.HasAudio() {
		t.Error("image should have no audio")
	}
	if mi.PrimaryAudio() != nil {
		t.Error("PrimaryAudio should be nil")
	}
	if got := mi.Resolution(); got != "1600x900" {
		t.Errorf("Resolution() = %q", got)
	}
	if mi.Duration() != 0 {
		t.Errorf("Duration() = %f, want 0", mi.Duration())
	}
}

func TestPrimaryAudio_PrefersDefault(t *testing.T) {
	mi := &MediaInfo{AudioStreams: []AudioStream{
		{Index: 1, Codec: "ac3"},
		{Index: 2, Codec: "aac", IsDefault: true},
	}}
	if got := mi.PrimaryAudio(); got.Index != 2 {
		t.Errorf("PrimaryAudio().Index = %d, want 2", got.Index)
	}
}

func TestResolution_Unknown(t *testing.T) {
	mi := &MediaInfo{}
	if got := mi.Resolution(); got != "unknown" {
		t.Errorf("Resolution() = %q, want unknown", got)
	}
	mi.PrimaryVideo = &VideoStream{Width: 0, Height: 720}
	if got := mi.Resolution(); got != "unknown" {
		t.Errorf("Resolution() = %q, want unknown", got)
	}
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	if _, err := ParseJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseJSON_EmptyStreams(t *testing.T) {
	mi, err := ParseJSON([]byte(`{"streams": [], "format": {}}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if mi.PrimaryVideo != nil || mi.HasAudio() {
		t.Errorf("expected empty result, got %+v", mi)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    float64
		wantErr error
	}{
		{"plain", "10.030000\n", 10.03, nil},
		{"leading blank lines", "\n\n  5.0 \n", 5.0, nil},
		{"zero", "0.000000", 0, nil},
		{"not available", "N/A\n", 0, ErrNoDuration},
		{"empty", "", 0, ErrNoDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.out)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseDuration(%q) error = %v, want %v", tt.out, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.out, got, tt.want)
			}
		})
	}
}

func TestParseDuration_Garbage(t *testing.T) {
	for _, out := range []string{"ten seconds", "-3.5", "NaN", "+Inf"} {
		if _, err := ParseDuration(out); err == nil {
			t.Errorf("ParseDuration(%q) should fail", out)
		}
	}
}

// fakeFFprobe puts a shell script named ffprobe first on PATH.
func fakeFFprobe(t *testing.T, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestDuration_FakeBinary(t *testing.T) {
	fakeFFprobe(t, `echo "12.500000"`)
	got, err := Duration(context.Background(), "audio.mp3")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if got != 12.5 {
		t.Errorf("Duration = %v, want 12.5", got)
	}
}

func TestDuration_FailureCarriesStderr(t *testing.T) {
	fakeFFprobe(t, `echo "missing.mp3: No such file or directory" >&2; exit 1`)
	_, err := Duration(context.Background(), "missing.mp3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Errorf("error should carry ffprobe stderr, got %v", err)
	}
	if !errors.Is(err, ErrProbeFailed) {
		t.Errorf("error should wrap ErrProbeFailed, got %v", err)
	}
}

func TestDuration_NotAvailable(t *testing.T) {
	fakeFFprobe(t, `echo "N/A"`)
	_, err := Duration(context.Background(), "stream.aac")
	if !errors.Is(err, ErrNoDuration) || !errors.Is(err, ErrProbeFailed) {
		t.Errorf("got %v, want ErrNoDuration wrapped in ErrProbeFailed", err)
	}
}

func TestProbe_FakeBinary(t *testing.T) {
	fakeFFprobe(t, "cat <<'JSON'\n"+sampleMP3+"\nJSON")
	mi, err := Probe(context.Background(), "episode.mp3")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if mi.Duration() != 10.031 {
		t.Errorf("Duration() = %v", mi.Duration())
	}
}
