// Package ffmpeg builds and executes the still-image render command and
// turns failures into classified errors.
//
// Build assembles the argument slice from a planner.RenderPlan and the
// current RetryState: the image is looped at the output frame rate, the
// optional audio input is mapped beside it, and the output is cut at the
// plan's reconciled duration with -t. Execute runs the command, capturing
// stderr (tee'd to the terminal when verbose). A non-zero exit becomes a
// *ToolError whose Reason is derived from stderr. RetryState.Advance
// decides whether a failed hardware encode is retried in software.
package ffmpeg
