// Package planner turns a validated Config and probe data into a RenderPlan:
// the reconciled timeline, video codec and filter chain, the audio
// copy-or-encode decision, and container flags. The ffmpeg package consumes
// the plan to build the command line.
package planner
