package cli

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/stillmux/internal/check"
	"github.com/backmassage/stillmux/internal/display"
)

func (a *app) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"check"},
		Short:   "Check ffmpeg, ffprobe and the encoders",
		Long: `Check that ffmpeg and ffprobe are installed, list the H.264 encoders, and
run short libx264, AAC and VAAPI test encodes.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			display.PrintBanner(a.out, a.version)
			if err := check.RunCheck(cmd.Context(), &a.cfg, a.log); err != nil {
				a.log.Error("Some required checks failed")
				return err
			}
			a.log.Success("All required checks passed")
			return nil
		},
	}
}
