package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/pipeline"
	"github.com/backmassage/stillmux/internal/term"
)

// jobForm holds the values bound to the interactive form fields.
type jobForm struct {
	Image  string
	Audio  string
	Output string
}

// promptJob asks for the image, audio and output paths. Fields are
// prefilled from the working directory when discovery finds something.
func promptJob(ctx context.Context) (pipeline.Job, error) {
	var f jobForm
	if image, audio, err := pipeline.FindInputs("."); err == nil {
		f.Image, f.Audio, f.Output = image, audio, defaultOutput
	}

	if err := newJobForm(&f).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return pipeline.Job{}, fmt.Errorf("form aborted: %w", context.Canceled)
		}
		return pipeline.Job{}, err
	}
	return pipeline.Job{
		ImagePath:  strings.TrimSpace(f.Image),
		AudioPath:  strings.TrimSpace(f.Audio),
		OutputPath: strings.TrimSpace(f.Output),
	}, nil
}

func newJobForm(f *jobForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Render a still image").
				Description("The video runs as long as the audio, rounded to whole frames."),

			huh.NewInput().
				Title("Image").
				Description("Required").
				Placeholder("cover.png").
				Value(&f.Image).
				Validate(validateImageInput),

			huh.NewInput().
				Title("Audio").
				Description("Optional, leave empty for a silent video").
				Placeholder("episode.mp3").
				Value(&f.Audio).
				Validate(validateAudioInput),

			huh.NewInput().
				Title("Output").
				Description(".mp4, .mov or .mkv").
				Placeholder(defaultOutput).
				Value(&f.Output).
				Validate(validateOutputInput),
		),
	).WithTheme(formTheme())
}

func validateImageInput(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("image is required")
	}
	if err := validateFile(s); err != nil {
		return err
	}
	if !pipeline.IsImage(s) {
		return fmt.Errorf("%s is not a supported image", s)
	}
	return nil
}

func validateAudioInput(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if err := validateFile(s); err != nil {
		return err
	}
	if !pipeline.IsAudio(s) {
		return fmt.Errorf("%s is not a supported audio file", s)
	}
	return nil
}

func validateOutputInput(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("output is required")
	}
	_, err := config.ContainerFromPath(s)
	return err
}

func validateFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s does not exist", path)
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// formTheme matches the form to the log palette.
func formTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(term.ColorMagenta).
		PaddingLeft(1)
	t.Focused.Title = lipgloss.NewStyle().Foreground(term.ColorMagenta).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(term.ColorGray)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(term.ColorRed).Bold(true)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(term.ColorRed)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(term.ColorCyan)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(term.ColorCyan)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(term.ColorGray)
	t.Focused.NoteTitle = lipgloss.NewStyle().Foreground(term.ColorGreen).Bold(true)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Focused.Base.BorderStyle(lipgloss.HiddenBorder())
	t.Blurred.Title = lipgloss.NewStyle().Foreground(term.ColorGray)
	return t
}
