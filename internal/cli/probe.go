package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/backmassage/stillmux/internal/check"
	"github.com/backmassage/stillmux/internal/display"
	"github.com/backmassage/stillmux/internal/pipeline"
	"github.com/backmassage/stillmux/internal/probe"
	"github.com/backmassage/stillmux/internal/timing"
)

func (a *app) probeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE",
		Short: "Show a media file's streams and its frame-aligned length",
		Long: `Print the container, duration and streams of FILE. For files with audio,
also print the frame count and reconciled video duration at --fps.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProbe(cmd.Context(), args[0])
		},
	}
}

func (a *app) runProbe(ctx context.Context, path string) error {
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return fmt.Errorf("%w: %s", pipeline.ErrMissingInput, path)
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return &check.DependencyError{Name: "ffprobe", InstallURL: check.FfmpegInstallURL, Err: check.ErrFfprobeNotFound}
	}

	mi, err := probe.Probe(ctx, path)
	if err != nil {
		return err
	}
	// The decimal duration is what a render reconciles; the JSON value is
	// only a fallback.
	duration, err := probe.Duration(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.log.Debug(a.cfg.Verbose, "decimal duration unavailable: %v", err)
		duration = mi.Duration()
	}

	fmt.Fprintln(a.out, display.SummaryBox(filepath.Base(path), probeFields(mi, duration, a.cfg.FrameRate)))
	if rows := streamRows(mi); len(rows) > 0 {
		fmt.Fprintln(a.out, display.Table([]string{"#", "Type", "Codec", "Details", "Bitrate"}, rows))
	}
	return nil
}

func probeFields(mi *probe.MediaInfo, duration, fps float64) []display.Field {
	container := mi.Format.FormatLongName
	if container == "" {
		container = mi.Format.FormatName
	}
	fields := []display.Field{
		{Label: "Container", Value: container},
		{Label: "Duration", Value: display.FormatDuration(duration)},
		{Label: "Size", Value: display.FormatBytes(mi.Format.Size)},
	}
	if mi.Format.BitRate > 0 {
		fields = append(fields, display.Field{Label: "Bitrate", Value: display.FormatBitrateLabel(mi.Format.BitRate / 1000)})
	}
	if mi.PrimaryVideo != nil {
		fields = append(fields, display.Field{Label: "Video", Value: mi.Resolution() + " " + mi.PrimaryVideo.Codec})
	}
	if mi.CoverArt != nil {
		fields = append(fields, display.Field{Label: "Cover art",
			Value: fmt.Sprintf("%dx%d %s", mi.CoverArt.Width, mi.CoverArt.Height, mi.CoverArt.Codec)})
	}
	if !mi.HasAudio() {
		return fields
	}

	rate := timing.FormatRate(fps)
	frames, err := timing.FrameCount(duration, fps)
	if err != nil {
		return append(fields, display.Field{Label: "Frames", Value: err.Error()})
	}
	return append(fields,
		display.Field{Label: "Frames", Value: fmt.Sprintf("%d @ %s fps", frames, rate)},
		display.Field{Label: "Video length", Value: display.FormatDuration(float64(frames) / fps)},
	)
}

func streamRows(mi *probe.MediaInfo) [][]string {
	var rows [][]string
	if v := mi.PrimaryVideo; v != nil {
		rows = append(rows, []string{strconv.Itoa(v.Index), "video", v.Codec, mi.Resolution() + " " + v.PixFmt, "-"})
	}
	if c := mi.CoverArt; c != nil {
		rows = append(rows, []string{strconv.Itoa(c.Index), "cover", c.Codec, fmt.Sprintf("%dx%d", c.Width, c.Height), "-"})
	}
	for _, s := range mi.AudioStreams {
		details := fmt.Sprintf("%d ch, %d Hz", s.Channels, s.SampleRate)
		if s.ChannelLayout != "" {
			details = s.ChannelLayout + ", " + strconv.Itoa(s.SampleRate) + " Hz"
		}
		if s.Language != "" {
			details += " [" + s.Language + "]"
		}
		if s.IsDefault {
			details += " default"
		}
		bitrate := "-"
		if s.BitRate > 0 {
			bitrate = display.FormatBitrateLabel(s.BitRate / 1000)
		}
		rows = append(rows, []string{strconv.Itoa(s.Index), "audio", s.Codec, details, bitrate})
	}
	return rows
}
