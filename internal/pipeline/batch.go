package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/stillmux/internal/config"
	"github.com/backmassage/stillmux/internal/display"
	"github.com/backmassage/stillmux/internal/naming"
	"github.com/backmassage/stillmux/internal/timing"
)

// BatchError reports that at least one pair in a batch failed to render.
type BatchError struct {
	Failed int
	Total  int
	First  error // First render error, for display.
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d renders failed (first: %v)", e.Failed, e.Total, e.First)
}

func (e *BatchError) Unwrap() error { return e.First }

// RunBatch discovers image/audio pairs under inputDir and renders each one
// into the mirrored location under outputDir. Pairs are processed
// sequentially; a failed pair is logged and counted, and the batch moves
// on. Returns a *BatchError when any render failed, or the context error
// when interrupted.
func (r *Runner) RunBatch(ctx context.Context, inputDir, outputDir string) (RunStats, error) {
	var stats RunStats

	inputAbs, outputAbs, err := resolveBatchDirs(inputDir, outputDir)
	if err != nil {
		return stats, err
	}
	if err := r.Cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	pairs, unpaired, err := DiscoverPairs(inputAbs)
	if err != nil {
		return stats, fmt.Errorf("%w: scan %s: %v", ErrMissingInput, inputDir, err)
	}
	stats.Total = len(pairs)
	stats.Unpaired = len(unpaired)
	for _, u := range unpaired {
		r.Log.Warn("No matching image/audio for %s", relTo(inputAbs, u))
	}
	if len(pairs) == 0 {
		return stats, fmt.Errorf("%w: no image/audio pairs found in %s", ErrMissingInput, inputDir)
	}

	// Fail fast: a missing ffmpeg would otherwise fail every pair.
	if err := r.ensureDeps(ctx); err != nil {
		return stats, err
	}

	r.logBatchHeader(&stats)
	resolver := naming.NewCollisionResolver()
	var firstErr error

	for i, pair := range pairs {
		stats.Current = i + 1
		if ctx.Err() != nil {
			r.Log.Warn("Interrupted")
			break
		}

		out, err := naming.OutputPath(inputAbs, outputAbs, pair.Dir, pair.Stem, naming.DefaultContainer)
		if err != nil {
			stats.Failed++
			r.Log.Error("[%d/%d] %s: %v", stats.Current, stats.Total, pair.Stem, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if resolved := resolver.Resolve(pair.Key(), out); resolved != out {
			if owner, ok := resolver.Owner(out); ok {
				image, _, _ := strings.Cut(owner, "\x00")
				r.Log.Warn("[%d/%d] %s is already taken by %s", stats.Current, stats.Total,
					relTo(outputAbs, out), relTo(inputAbs, image))
			}
			out = resolved
		}

		r.Log.Info("[%d/%d] %s + %s -> %s", stats.Current, stats.Total,
			relTo(inputAbs, pair.Image), filepath.Base(pair.Audio), relTo(outputAbs, out))

		if r.Cfg.SkipExisting && !r.Cfg.DryRun {
			if fi, err := os.Stat(out); err == nil && fi.Size() > 0 {
				stats.Skipped++
				r.Log.Info("  Skipping, output exists (use --force to re-render)")
				continue
			}
		}

		res, err := r.Render(ctx, Job{ImagePath: pair.Image, AudioPath: pair.Audio, OutputPath: out})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			stats.Failed++
			r.Log.Error("  %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stats.Add(res)
		if !res.DryRun {
			r.Log.Success("  Rendered %s (%s, %s)", filepath.Base(out),
				display.FormatBytes(res.OutputBytes), display.FormatElapsed(res.Elapsed))
		}
	}

	r.logSummary(&stats)

	if ctx.Err() != nil {
		return stats, ctx.Err()
	}
	if !stats.OK() {
		return stats, &BatchError{Failed: stats.Failed, Total: stats.Total, First: firstErr}
	}
	return stats, nil
}

// resolveBatchDirs returns absolute, symlink-resolved input and output
// directories. The output directory may not exist yet; only its existing
// parent is resolved.
func resolveBatchDirs(inputDir, outputDir string) (string, string, error) {
	in, err := filepath.Abs(config.NormalizeDirArg(inputDir))
	if err != nil {
		return "", "", err
	}
	fi, err := os.Stat(in)
	if err != nil {
		return "", "", fmt.Errorf("%w: input directory %s: %v", ErrMissingInput, inputDir, errors.Unwrap(err))
	}
	if !fi.IsDir() {
		return "", "", fmt.Errorf("%w: %s is not a directory", ErrMissingInput, inputDir)
	}
	if resolved, err := filepath.EvalSymlinks(in); err == nil {
		in = resolved
	}

	out, err := filepath.Abs(config.NormalizeDirArg(outputDir))
	if err != nil {
		return "", "", err
	}
	return in, evalExisting(out), nil
}

// evalExisting resolves symlinks in the longest existing prefix of path.
func evalExisting(path string) string {
	var rest []string
	p := path
	for {
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved
		}
		parent := filepath.Dir(p)
		if parent == p {
			return path
		}
		rest = append(rest, filepath.Base(p))
		p = parent
	}
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// --- Logging helpers ---

func (r *Runner) logBatchHeader(stats *RunStats) {
	cfg := r.Cfg
	r.Log.Info("Found %d pairs", stats.Total)
	r.Log.Info("Timeline: %s fps, silent stills %ss", timing.FormatRate(cfg.FrameRate), timing.FormatSeconds(cfg.StillDuration))
	if cfg.EncoderMode == config.EncoderHardware {
		r.Log.Info("Mode: hardware (h264_vaapi on %s), QP: %d", cfg.VaapiDevice, cfg.QP)
	} else {
		r.Log.Info("Mode: software (libx264 %s), CRF: %d", cfg.Preset, cfg.CRF)
	}
	r.Log.Info("Frame: %dx%d (%s)", cfg.Width, cfg.Height, cfg.Fit)
	r.Log.Info("Audio: AAC passthrough if <320 kbps, otherwise encode to AAC at %s", cfg.AudioBitrate)
	if cfg.StrictMode {
		r.Log.Info("Retry policy: Strict mode (no software fallback)")
	}
	if cfg.UploadEnabled() {
		r.Log.Info("Upload: s3://%s/%s", cfg.UploadBucket, cfg.UploadPrefix)
	}
}

func (r *Runner) logSummary(stats *RunStats) {
	r.Log.Info("==============================")
	r.Log.Info("Done: %d rendered, %d skipped, %d failed", stats.Rendered, stats.Skipped, stats.Failed)
	if stats.Unpaired > 0 {
		r.Log.Warn("  Unpaired files: %d", stats.Unpaired)
	}
	if stats.FellBack > 0 {
		r.Log.Warn("  Software fallback used: %d", stats.FellBack)
	}
	if r.Cfg.DryRun {
		r.Log.Info("  Output: n/a (dry run)")
		return
	}
	r.Log.Success("  Output: %s, %s of video",
		display.FormatBytes(stats.TotalOutputBytes), display.FormatDuration(stats.TotalSeconds))
}
