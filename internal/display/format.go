package display

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/backmassage/stillmux/internal/timing"
)

// FormatBytes returns a human-readable IEC size (e.g. "512 B", "1.5 KiB",
// "700 MiB").
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatBitrateLabel returns a short label for bitrate in kbps (e.g. "1200 kbps").
func FormatBitrateLabel(kbps int64) string {
	if kbps < 1000 {
		return fmt.Sprintf("%d kbps", kbps)
	}
	return fmt.Sprintf("%.1f Mbps", float64(kbps)/1000)
}

// FormatDuration renders seconds as clock time with the raw value, e.g.
// "0:00:10.033 (10.033333333333333s)".
func FormatDuration(seconds float64) string {
	return fmt.Sprintf("%s (%ss)", timing.FormatClock(seconds), timing.FormatSeconds(seconds))
}

// FormatElapsed rounds a wall-clock duration for summaries.
func FormatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// FormatAge returns a relative time such as "3 minutes ago".
func FormatAge(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
