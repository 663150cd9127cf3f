package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/display"
	"github.com/backmassage/stillmux/internal/pipeline"
	"github.com/backmassage/stillmux/internal/planner"
	"github.com/backmassage/stillmux/internal/timing"
)

// defaultOutput is written when inputs are discovered in the working
// directory.
const defaultOutput = "output.mp4"

func (a *app) renderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [IMAGE [AUDIO] OUTPUT]",
		Short: "Render one image (and audio) into a video (default command)",
		Long: `Render one still image into a video.

  render                      discover the first image and audio in the current directory
  render IMAGE OUTPUT         silent video of --duration seconds
  render IMAGE AUDIO OUTPUT   video as long as the audio, rounded to whole frames`,
		Args: cobra.ArbitraryArgs,
		RunE: a.runRender,
	}
	config.DefineInteractiveFlag(cmd.Flags(), &a.cfg)
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, args []string) error {
	job, err := a.resolveJob(cmd, args)
	if err != nil {
		return err
	}
	a.cfg.ImagePath, a.cfg.AudioPath, a.cfg.OutputPath = job.ImagePath, job.AudioPath, job.OutputPath

	display.PrintBanner(a.out, a.version)
	if a.cfg.DryRun {
		a.log.Warn("DRY RUN, no files will be written")
	}

	runner, cleanup, err := a.newRunner()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := runner.Render(cmd.Context(), job)
	if err != nil {
		return err
	}
	if !res.DryRun {
		fmt.Fprintln(a.out, renderSummary(res))
	}
	return nil
}

// resolveJob maps the positional arguments (or the interactive form) to a
// job. With no arguments the working directory is searched.
func (a *app) resolveJob(cmd *cobra.Command, args []string) (pipeline.Job, error) {
	if a.cfg.Interactive {
		if len(args) > 0 {
			return pipeline.Job{}, usageErrorf(errors.New("--interactive takes no positional arguments"))
		}
		return promptJob(cmd.Context())
	}

	switch len(args) {
	case 0:
		image, audio, err := pipeline.FindInputs(".")
		if err != nil {
			return pipeline.Job{}, err
		}
		a.log.Info("Discovered %s + %s -> %s", image, audio, defaultOutput)
		return pipeline.Job{ImagePath: image, AudioPath: audio, OutputPath: defaultOutput}, nil
	case 2:
		return pipeline.Job{ImagePath: args[0], OutputPath: args[1]}, nil
	case 3:
		return pipeline.Job{ImagePath: args[0], AudioPath: args[1], OutputPath: args[2]}, nil
	default:
		return pipeline.Job{}, usageErrorf(fmt.Errorf("expected IMAGE [AUDIO] OUTPUT or no arguments, got %d argument(s)", len(args)))
	}
}

func renderSummary(res *pipeline.Result) string {
	plan := res.Plan
	audio := "none (silent)"
	if plan.HasAudio() {
		audio = filepath.Base(plan.AudioPath)
	}
	encoder := planner.VideoCodec(res.Encoder)
	if res.FellBack {
		encoder += " (fell back from h264_vaapi)"
	}

	fields := []display.Field{
		{Label: "Image", Value: filepath.Base(plan.ImagePath)},
		{Label: "Audio", Value: audio},
		{Label: "Output", Value: plan.OutputPath},
		{Label: "Source", Value: display.FormatDuration(plan.SourceDuration)},
		{Label: "Frames", Value: fmt.Sprintf("%d @ %s fps", plan.Frames, timing.FormatRate(plan.FrameRate))},
		{Label: "Duration", Value: display.FormatDuration(plan.Duration)},
		{Label: "Video", Value: encoder},
		{Label: "Audio codec", Value: audioLabel(plan.Audio)},
		{Label: "Size", Value: display.FormatBytes(res.OutputBytes)},
		{Label: "Elapsed", Value: display.FormatElapsed(res.Elapsed)},
	}
	if res.ObjectURL != "" {
		fields = append(fields, display.Field{Label: "Uploaded", Value: res.ObjectURL})
	}
	return display.SummaryBox("Render complete", fields)
}

func audioLabel(ap planner.AudioPlan) string {
	switch {
	case ap.NoAudio:
		return "none"
	case ap.Copy:
		return "copy (" + ap.SourceCodec + ")"
	default:
		return fmt.Sprintf("aac %s, %d ch, %d Hz", ap.Bitrate, ap.Channels, ap.SampleRate)
	}
}
