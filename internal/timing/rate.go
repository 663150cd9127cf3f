package timing

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRate parses a frame rate written as an integer ("30"), a decimal
// ("29.97") or a rational ("30000/1001"). The result must be positive.
func ParseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty frame rate", ErrInvalidArgument)
	}

	var rate float64
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad frame rate numerator in %q", ErrInvalidArgument, s)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("%w: bad frame rate denominator in %q", ErrInvalidArgument, s)
		}
		rate = n / d
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: frame rate %q is not a number", ErrInvalidArgument, s)
		}
		rate = f
	}

	if err := checkRate(rate); err != nil {
		return 0, err
	}
	return rate, nil
}

// FormatRate renders a rate for ffmpeg's -framerate/-r options using the
// shortest decimal that round-trips.
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}
