// Package cli wires the cobra command tree: configuration loading, the
// render (root), batch, probe, doctor, history and version commands, and
// the mapping from errors to process exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/history"
	"github.com/backmassage/stillmux/internal/logging"
	"github.com/backmassage/stillmux/internal/pipeline"
	"github.com/backmassage/stillmux/internal/publish"
)

// app carries the state shared by every command of one invocation.
type app struct {
	version string
	commit  string

	cfg config.Config
	neg config.NegatedFlags
	log *logging.Logger

	out    io.Writer
	errOut io.Writer
}

// Execute runs the CLI with os.Args and returns the process exit code.
// SIGINT and SIGTERM cancel the running command, which kills ffmpeg.
func Execute(version, commit string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], version, commit, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, version, commit string, out, errOut io.Writer) int {
	a, err := newApp(version, commit, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "stillmux: %v\n", err)
		return ExitCode(err)
	}
	defer a.close()

	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err = root.ExecuteContext(ctx)
	if err != nil {
		a.report(err)
	}
	return ExitCode(err)
}

// newApp loads configuration in precedence order: defaults, then the .env
// file, then process environment. Flags are applied by cobra on top.
func newApp(version, commit string, out, errOut io.Writer) (*app, error) {
	a := &app{version: version, commit: commit, cfg: config.DefaultConfig(), out: out, errOut: errOut}
	if err := config.LoadEnvFile(config.EnvFilePath()); err != nil {
		return nil, usageErrorf(err)
	}
	if err := config.ApplyEnv(&a.cfg); err != nil {
		return nil, usageErrorf(err)
	}
	return a, nil
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stillmux [IMAGE [AUDIO] OUTPUT]",
		Short: "Turn a still image and an audio track into a video",
		Long: `stillmux renders a still image and an optional audio track into an H.264
video whose length is a whole number of frames.

The audio duration is reconciled to the frame grid before encoding:
  frames   = round(audio_seconds * fps)
  duration = frames / fps
so the video track never stops short of the audio.

With no arguments the current directory is searched for the first image and
the first audio file, and the result is written to output.mp4.`,
		Example: `  stillmux cover.png episode.mp3 episode.mp4
  stillmux --fps 24 --size 1280x720 --fit pad cover.jpg talk.flac talk.mkv
  stillmux -t 8 title.png title.mp4
  stillmux batch ./episodes ./videos
  stillmux doctor`,
		Version:           fmt.Sprintf("%s (%s)", a.version, a.commit),
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runRender,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErrorf(err)
	})

	pf := root.PersistentFlags()
	config.DefineGlobalFlags(pf, &a.cfg, &a.neg)
	config.DefineRenderFlags(pf, &a.cfg, &a.neg)
	config.DefineInteractiveFlag(root.Flags(), &a.cfg)

	root.AddCommand(
		a.renderCommand(),
		a.batchCommand(),
		a.probeCommand(),
		a.doctorCommand(),
		a.historyCommand(),
		a.versionCommand(),
	)
	return root
}

// setup finishes configuration after flag parsing and opens the logger.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	config.ApplyNegatedFlags(&a.cfg, &a.neg)
	if err := a.cfg.Validate(); err != nil {
		return usageErrorf(err)
	}
	log, err := logging.NewLogger(&a.cfg, a.out, a.errOut)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.log = log
	return nil
}

func (a *app) close() {
	if a.log != nil {
		a.log.Close()
	}
}

// report prints the final error of a command.
func (a *app) report(err error) {
	if errors.Is(err, context.Canceled) {
		if a.log != nil {
			a.log.Warn("Interrupted")
		} else {
			fmt.Fprintln(a.errOut, "stillmux: interrupted")
		}
		return
	}
	if a.log == nil {
		fmt.Fprintf(a.errOut, "stillmux: %v\n", err)
	} else {
		a.log.Error("%v", err)
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		fmt.Fprintln(a.errOut, "Run 'stillmux --help' for usage.")
	}
}

// newRunner builds a pipeline runner with the history ledger and the
// uploader attached when they are configured. The returned func releases
// them.
func (a *app) newRunner() (*pipeline.Runner, func(), error) {
	r := pipeline.NewRunner(&a.cfg, a.log)
	cleanup := func() {}

	if store := a.openHistory(); store != nil {
		r.History = store
		cleanup = func() { store.Close() }
	}
	if a.cfg.UploadEnabled() {
		up, err := publish.New(publish.ConfigFrom(&a.cfg))
		if err != nil {
			cleanup()
			return nil, nil, usageErrorf(fmt.Errorf("upload: %w", err))
		}
		r.Publisher = up
	}
	return r, cleanup, nil
}

// openHistory opens the render ledger. A ledger that cannot be opened only
// disables recording; it never blocks a render.
func (a *app) openHistory() *history.Store {
	if a.cfg.NoHistory || a.cfg.HistoryDB == "" {
		return nil
	}
	store, err := history.Open(a.cfg.HistoryDB)
	if err != nil {
		a.log.Warn("Render history disabled: %v", err)
		return nil
	}
	return store
}

// usageArgs turns cobra's positional argument errors into UsageErrors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageErrorf(v(cmd, args))
	}
}
