package ffmpeg

import (
	"fmt"
	"regexp"
	"strings"
)

// Reason classifies why an ffmpeg invocation failed, based on its stderr.
type Reason string

const (
	ReasonUnknown         Reason = "unknown"
	ReasonHardwareInit    Reason = "hardware init"
	ReasonEncoderMissing  Reason = "encoder missing"
	ReasonInputMissing    Reason = "input missing"
	ReasonInvalidInput    Reason = "invalid input"
	ReasonOutputExists    Reason = "output exists"
	ReasonPermission      Reason = "permission denied"
	ReasonOddDimensions   Reason = "odd dimensions"
	ReasonUnsupportedSize Reason = "unsupported size"
)

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [Classify]; the first match wins.
var (
	reHardwareInit = regexp.MustCompile(
		`(?i)Failed to initialise VAAPI|No VA display found|` +
			`Device creation failed|vaInitialize failed|Cannot load libva|` +
			`Failed to set value 'vaapi=|No usable encoding entrypoint|` +
			`Error initializing output stream .*h264_vaapi|` +
			`Failed to upload frame|Error while opening encoder for output stream .*vaapi`)

	reEncoderMissing = regexp.MustCompile(
		`Unknown encoder '[^']+'|Encoder \S+ not found|Requested output format .* is not a suitable output format`)

	reOddDimensions = regexp.MustCompile(
		`(?i)(width|height) not divisible by 2`)

	reUnsupportedSize = regexp.MustCompile(
		`(?i)Picture size \d+x\d+ is invalid|Invalid frame dimensions`)

	reOutputExists = regexp.MustCompile(`already exists\. Exiting`)

	reInputMissing = regexp.MustCompile(`No such file or directory`)

	reInvalidInput = regexp.MustCompile(
		`Invalid data found when processing input|could not find codec parameters|` +
			`Error opening input|moov atom not found`)

	rePermission = regexp.MustCompile(`Permission denied`)
)

// Classify maps ffmpeg stderr to a Reason.
func Classify(stderr string) Reason {
	switch {
	case reHardwareInit.MatchString(stderr):
		return ReasonHardwareInit
	case reEncoderMissing.MatchString(stderr):
		return ReasonEncoderMissing
	case reOddDimensions.MatchString(stderr):
		return ReasonOddDimensions
	case reUnsupportedSize.MatchString(stderr):
		return ReasonUnsupportedSize
	case reOutputExists.MatchString(stderr):
		return ReasonOutputExists
	case rePermission.MatchString(stderr):
		return ReasonPermission
	case reInputMissing.MatchString(stderr):
		return ReasonInputMissing
	case reInvalidInput.MatchString(stderr):
		return ReasonInvalidInput
	default:
		return ReasonUnknown
	}
}

// MatchHardwareFailure reports whether stderr shows a VAAPI device or
// encoder initialisation failure.
func MatchHardwareFailure(stderr string) bool {
	return reHardwareInit.MatchString(stderr)
}

// ToolError is returned when an external tool exits unsuccessfully. It is
// never swallowed: the CLI maps it to its own exit code.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the process did not start or was killed.
	Stderr   string
	Reason   Reason
	Err      error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Tool)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " (exit %d", e.ExitCode)
	} else {
		b.WriteString(" (")
		if e.Err != nil {
			b.WriteString(e.Err.Error())
		} else {
			b.WriteString("did not run")
		}
	}
	if e.Reason != "" && e.Reason != ReasonUnknown {
		fmt.Fprintf(&b, ", %s", e.Reason)
	}
	b.WriteString(")")
	if last := lastLine(e.Stderr); last != "" {
		b.WriteString(": ")
		b.WriteString(last)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

// StderrTail returns at most n trailing non-empty lines of stderr.
func (e *ToolError) StderrTail(n int) []string {
	return tailLines(e.Stderr, n)
}

// CommandLine returns the invocation as a single shell-like string.
func (e *ToolError) CommandLine() string {
	return FormatCommand(e.Args)
}

// FormatCommand joins args for display, quoting those that contain spaces
// or shell metacharacters.
func FormatCommand(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t'\"()$&;|<>*?[]{}\\") {
			parts[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			parts[i] = a
		}
	}
	return strings.Join(parts, " ")
}

func tailLines(s string, n int) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(s), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func lastLine(s string) string {
	if t := tailLines(s, 1); len(t) == 1 {
		return t[0]
	}
	return ""
}
