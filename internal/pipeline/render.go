package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/stillmux/internal/check"
	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/ffmpeg"
	"github.com/backmassage/stillmux/internal/history"
	"github.com/backmassage/stillmux/internal/planner"
	"github.com/backmassage/stillmux/internal/probe"
	"github.com/backmassage/stillmux/internal/publish"
	"github.com/backmassage/stillmux/internal/timing"
)

var (
	// ErrMissingInput is wrapped when an image or audio input does not exist
	// or cannot be discovered.
	ErrMissingInput = errors.New("missing input")

	// ErrInvalidOutput is wrapped when the output path is unusable (bad
	// extension, same file as an input, output dir inside the input dir).
	ErrInvalidOutput = errors.New("invalid output")

	// ErrOutputExists is returned when overwriting is disabled and the
	// output file is already there.
	ErrOutputExists = errors.New("output already exists")

	// ErrEmptyOutput is returned when ffmpeg reports success but leaves no
	// usable file behind.
	ErrEmptyOutput = errors.New("ffmpeg produced no output")
)

// Logger is the logging surface the pipeline needs; *logging.Logger
// satisfies it.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Render(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Recorder stores finished renders; *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, e *history.Entry) error
}

// Publisher uploads finished renders; *publish.Uploader satisfies it.
type Publisher interface {
	Upload(ctx context.Context, path string) (publish.Result, error)
}

// Job names the inputs and output of one render. AudioPath may be empty.
type Job struct {
	ImagePath  string
	AudioPath  string
	OutputPath string
}

// Result describes a finished (or dry-run) render.
type Result struct {
	Job            Job
	Plan           *planner.RenderPlan
	Args           []string // Final ffmpeg command line.
	Encoder        config.EncoderMode
	FellBack       bool
	DryRun         bool
	OutputBytes    int64
	OutputDuration float64 // Probed; 0 when the probe failed.
	Elapsed        time.Duration
	ObjectURL      string
}

// Runner renders jobs with one configuration. History and Publisher are
// optional. A Runner is not safe for concurrent use.
type Runner struct {
	Cfg       *config.Config
	Log       Logger
	History   Recorder
	Publisher Publisher

	encoder     config.EncoderMode
	depsChecked bool
}

// NewRunner returns a Runner for cfg, which must already be validated.
func NewRunner(cfg *config.Config, log Logger) *Runner {
	return &Runner{Cfg: cfg, Log: log, encoder: cfg.EncoderMode}
}

// Render runs the full single-render flow for job:
//
//	validate inputs -> check deps -> probe audio -> reconcile + plan ->
//	build command -> (dry run stops here) -> execute with fallback ->
//	verify output -> record history -> publish
//
// A failed encode removes its partial output. Tool failures are returned,
// never swallowed.
func (r *Runner) Render(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()
	res := &Result{Job: job}
	err := r.render(ctx, job, res)
	res.Elapsed = time.Since(start)
	r.record(ctx, res, err)
	return res, err
}

func (r *Runner) render(ctx context.Context, job Job, res *Result) error {
	cfg := r.Cfg

	// --- Validate ---
	if err := validateJob(job); err != nil {
		return err
	}
	if !cfg.Overwrite && !cfg.DryRun {
		if _, err := os.Stat(job.OutputPath); err == nil {
			return fmt.Errorf("%w: %s (drop --no-overwrite to replace it)", ErrOutputExists, job.OutputPath)
		}
	}

	// --- Dependencies ---
	if err := r.ensureDeps(ctx); err != nil {
		return err
	}

	// --- Probe audio ---
	in := planner.Inputs{ImagePath: job.ImagePath, AudioPath: job.AudioPath, OutputPath: job.OutputPath}
	if job.AudioPath != "" {
		d, err := probe.Duration(ctx, job.AudioPath)
		if err != nil {
			return err
		}
		in.SourceDuration = d

		mi, err := probe.Probe(ctx, job.AudioPath)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Log.Warn("Could not read audio streams (%v); encoding audio with defaults", err)
		} else {
			in.Audio = mi
		}
	}

	// --- Plan ---
	plan, err := planner.BuildPlan(cfg, in)
	if err != nil {
		if errors.Is(err, planner.ErrNoAudioStream) || errors.Is(err, timing.ErrInvalidArgument) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	plan.Encoder = r.encoder
	res.Plan = plan
	res.Encoder = plan.Encoder
	r.logPlan(plan)

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// --- Dry run ---
	rs := ffmpeg.NewRetryState(plan, cfg.StrictMode)
	res.Args = ffmpeg.Build(cfg, plan, rs)
	if cfg.DryRun {
		res.DryRun = true
		r.Log.Render("%s", ffmpeg.FormatCommand(res.Args))
		r.Log.Success("[DRY] Would render %s", filepath.Base(job.OutputPath))
		return nil
	}
	r.Log.Debug(cfg.Verbose, "%s", ffmpeg.FormatCommand(res.Args))

	// --- Execute ---
	before := statOutput(job.OutputPath)
	args, err := r.executeWithRetry(ctx, plan, rs, before)
	res.Args = args
	res.Encoder = rs.Encoder
	res.FellBack = rs.FellBack
	if err != nil {
		removeIfWritten(job.OutputPath, before)
		return err
	}

	// --- Verify ---
	if err := r.verify(ctx, plan, res); err != nil {
		os.Remove(job.OutputPath)
		return err
	}

	// --- Publish ---
	if r.Publisher != nil {
		up, err := r.Publisher.Upload(ctx, job.OutputPath)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		res.ObjectURL = up.URL
		r.Log.Success("Uploaded to %s", up.URL)
	}
	return nil
}

// validateJob checks that inputs exist and that the output does not
// overwrite one of them.
func validateJob(job Job) error {
	if job.ImagePath == "" {
		return fmt.Errorf("%w: no image given", ErrMissingInput)
	}
	if job.OutputPath == "" {
		return fmt.Errorf("%w: no output path given", ErrInvalidOutput)
	}
	for _, p := range []struct{ kind, path string }{{"image", job.ImagePath}, {"audio", job.AudioPath}} {
		if p.path == "" {
			continue
		}
		fi, err := os.Stat(p.path)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrMissingInput, p.kind, p.path, errors.Unwrap(err))
		}
		if fi.IsDir() {
			return fmt.Errorf("%w: %s %s is a directory", ErrMissingInput, p.kind, p.path)
		}
		if sameFile(p.path, job.OutputPath) {
			return fmt.Errorf("%w: output %s would overwrite the %s input", ErrInvalidOutput, job.OutputPath, p.kind)
		}
	}
	return nil
}

func sameFile(a, b string) bool {
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}

// ensureDeps runs check.CheckDeps once per Runner. When only the VAAPI path
// is unusable and strict mode is off, the Runner switches to the software
// encoder instead of failing.
func (r *Runner) ensureDeps(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.depsChecked {
		return nil
	}
	err := check.CheckDeps(ctx, r.Cfg)
	if err != nil && check.IsHardwareError(err) && !r.Cfg.StrictMode {
		r.Log.Warn("%v; falling back to software encoder", err)
		sw := *r.Cfg
		sw.EncoderMode = config.EncoderSoftware
		r.encoder = config.EncoderSoftware
		err = check.CheckDeps(ctx, &sw)
	}
	if err != nil {
		return err
	}
	r.depsChecked = true
	return nil
}

// executeWithRetry runs ffmpeg, classifies stderr on failure, applies the
// hardware-to-software fallback when it matches, and retries. Returns the
// arguments of the last attempt.
func (r *Runner) executeWithRetry(ctx context.Context, plan *planner.RenderPlan, rs *ffmpeg.RetryState, before outputState) ([]string, error) {
	for {
		result := ffmpeg.Execute(ctx, r.Cfg, plan, rs)
		if result.Err == nil {
			return result.Args, nil
		}

		// Stop retrying if the context has been cancelled (e.g. SIGINT).
		if ctx.Err() != nil {
			r.Log.Warn("Interrupted, aborting render")
			return result.Args, ctx.Err()
		}

		action := rs.Advance(result.Stderr)
		if action == ffmpeg.RetryNone {
			if r.Cfg.StrictMode && ffmpeg.MatchHardwareFailure(result.Stderr) {
				r.Log.Error("ffmpeg failed (strict mode, no fallback)")
			} else {
				r.Log.Error("ffmpeg failed")
			}
			r.logStderr(result.Stderr)
			var te *ffmpeg.ToolError
			if errors.As(result.Err, &te) {
				r.Log.Debug(r.Cfg.Verbose, "Failed command: %s", te.CommandLine())
			}
			return result.Args, result.Err
		}

		r.Log.Warn("Retry %d: %s", rs.Attempt, action)
		removeIfWritten(plan.OutputPath, before)
	}
}

// outputState is what was at the output path before ffmpeg ran.
type outputState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func statOutput(path string) outputState {
	fi, err := os.Stat(path)
	if err != nil {
		return outputState{}
	}
	return outputState{exists: true, size: fi.Size(), modTime: fi.ModTime()}
}

// removeIfWritten deletes a partial output after a failed encode. A file
// that predates the encode and was never touched by ffmpeg is kept.
func removeIfWritten(path string, before outputState) {
	now := statOutput(path)
	if !now.exists {
		return
	}
	if before.exists && now.size == before.size && now.modTime.Equal(before.modTime) {
		return
	}
	os.Remove(path)
}

// verify checks the output exists and is non-empty, then probes its
// duration and warns when the video is shorter than the audio by more than
// one frame.
func (r *Runner) verify(ctx context.Context, plan *planner.RenderPlan, res *Result) error {
	fi, err := os.Stat(plan.OutputPath)
	if err != nil || fi.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyOutput, plan.OutputPath)
	}
	res.OutputBytes = fi.Size()

	d, err := probe.Duration(ctx, plan.OutputPath)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.Log.Warn("Could not verify output duration: %v", err)
		return nil
	}
	res.OutputDuration = d

	frame := 1 / plan.FrameRate
	if plan.HasAudio() && d < plan.SourceDuration-frame {
		r.Log.Warn("Output is %ss shorter than the audio (%s < %s)",
			timing.FormatSeconds(plan.SourceDuration-d),
			timing.FormatClock(d), timing.FormatClock(plan.SourceDuration))
	}
	return nil
}

// record stores the render in the history ledger. Failures to record are
// logged, never returned: the render itself already happened.
func (r *Runner) record(ctx context.Context, res *Result, renderErr error) {
	if r.History == nil || res.Plan == nil || errors.Is(renderErr, context.Canceled) {
		return
	}
	e := &history.Entry{
		ImagePath:      res.Job.ImagePath,
		AudioPath:      res.Job.AudioPath,
		OutputPath:     res.Job.OutputPath,
		FrameRate:      res.Plan.FrameRate,
		SourceDuration: res.Plan.SourceDuration,
		Frames:         res.Plan.Frames,
		Duration:       res.Plan.Duration,
		Encoder:        string(res.Encoder),
		FellBack:       res.FellBack,
		Status:         history.StatusOK,
		OutputBytes:    res.OutputBytes,
		Elapsed:        res.Elapsed,
		ObjectURL:      res.ObjectURL,
	}
	switch {
	case renderErr != nil:
		e.Status = history.StatusFailed
		e.Error = renderErr.Error()
	case res.DryRun:
		e.Status = history.StatusDryRun
	}
	if err := r.History.Record(ctx, e); err != nil {
		r.Log.Warn("Could not record render history: %v", err)
	}
}

func (r *Runner) logPlan(plan *planner.RenderPlan) {
	source := "still"
	if plan.HasAudio() {
		source = "audio"
	}
	r.Log.Info("Timeline: %ss of %s -> %d frames @ %s fps = %ss",
		timing.FormatSeconds(plan.SourceDuration), source, plan.Frames,
		timing.FormatRate(plan.FrameRate), timing.FormatSeconds(plan.Duration))

	audio := "none"
	switch {
	case plan.Audio.Copy:
		audio = "copy (" + plan.Audio.SourceCodec + ")"
	case plan.HasAudio():
		audio = fmt.Sprintf("%s -> aac %s", orUnknown(plan.Audio.SourceCodec), plan.Audio.Bitrate)
	}
	r.Log.Info("Video: %s %dx%d (%s) | Audio: %s | %s",
		planner.VideoCodec(plan.Encoder), r.Cfg.Width, r.Cfg.Height, r.Cfg.Fit, audio,
		strings.ToUpper(string(plan.Container)))
}

func (r *Runner) logStderr(stderr string) {
	lines := (&ffmpeg.ToolError{Stderr: stderr}).StderrTail(20)
	if len(lines) == 0 {
		return
	}
	r.Log.Error("Last ffmpeg output:")
	for _, l := range lines {
		r.Log.Error("  %s", l)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
