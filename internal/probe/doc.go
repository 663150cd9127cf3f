// Package probe inspects media with ffprobe.
//
// Two entry points mirror the two ways the renderer asks questions:
// [Duration] uses ffprobe's plain-text output, where the tool prints the
// container duration as a single decimal string, and [Probe] makes one JSON
// call for container and stream details. Both parsers are exported so tests
// can run without an ffprobe binary.
package probe
