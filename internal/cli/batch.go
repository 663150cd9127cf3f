package cli

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/display"
)

func (a *app) batchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch INPUT_DIR OUTPUT_DIR",
		Short: "Render every image/audio pair under a directory",
		Long: `Walk INPUT_DIR and pair each image with the audio file that shares its
directory and name (ep1.png + ep1.mp3). Every pair is rendered to
OUTPUT_DIR/<relative dir>/<name>.mp4. Outputs that already exist are skipped
unless --force is given.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.InputDir = config.NormalizeDirArg(args[0])
			a.cfg.OutputDir = config.NormalizeDirArg(args[1])

			display.PrintBanner(a.out, a.version)
			a.log.Info("In:  %s", a.cfg.InputDir)
			a.log.Info("Out: %s", a.cfg.OutputDir)
			if a.cfg.DryRun {
				a.log.Warn("DRY RUN, no files will be written")
			}

			runner, cleanup, err := a.newRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = runner.RunBatch(cmd.Context(), a.cfg.InputDir, a.cfg.OutputDir)
			return err
		},
	}
	config.DefineBatchFlags(cmd.Flags(), &a.neg)
	return cmd
}
