package timing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatSeconds renders seconds for ffmpeg's -t option without losing
// precision (e.g. 10.033333333333333).
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// FormatClock formats seconds as H:MM:SS.mmm (e.g. 0:01:30.250).
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	hours := ms / 3_600_000
	mins := (ms % 3_600_000) / 60_000
	secs := (ms % 60_000) / 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", hours, mins, secs, ms%1000)
}

// ParseClock parses HH:MM:SS, MM:SS or raw seconds. The seconds field may
// carry a fractional part in every form.
func ParseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) > 3 || s == "" {
		return 0, fmt.Errorf("%w: expected HH:MM:SS, MM:SS, or seconds, got %q", ErrInvalidArgument, s)
	}

	var total float64
	for i, p := range parts {
		last := i == len(parts)-1
		var v float64
		if last {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: expected HH:MM:SS, MM:SS, or seconds, got %q", ErrInvalidArgument, s)
			}
			v = f
		} else {
			n, err := strconv.Atoi(p)
			if err != nil {
				return 0, fmt.Errorf("%w: expected HH:MM:SS, MM:SS, or seconds, got %q", ErrInvalidArgument, s)
			}
			v = float64(n)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: negative or non-finite field in %q", ErrInvalidArgument, s)
		}
		total = total*60 + v
	}
	return total, nil
}
