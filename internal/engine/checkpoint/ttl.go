package checkpoint

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Retention defaults and bounds.
const (
	// DefaultRetention keeps checkpoints for a week.
	DefaultRetention = 7 * 24 * time.Hour

	// MaxRetention is the longest accepted retention (90 days).
	MaxRetention = 90 * 24 * time.Hour

	hoursPerDay    = 24
	minutesPerHour = 60
)

// ErrInvalidRetention is returned for retention values out of range.
var ErrInvalidRetention = fmt.Errorf("retention must be between 0 and %s", FormatDuration(MaxRetention))

// ParseRetention parses a retention value. Accepted forms are integer
// seconds ("3600"), Go durations ("36h") and whole days ("7d"). "0" keeps
// checkpoints forever.
func ParseRetention(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRetention, nil
	}

	var d time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid retention %q: %w", s, err)
		}
		d = time.Duration(days) * hoursPerDay * time.Hour
	default:
		if seconds, err := strconv.Atoi(s); err == nil {
			d = time.Duration(seconds) * time.Second
			break
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid retention %q: %w", s, err)
		}
		d = parsed
	}

	if d < 0 || d > MaxRetention {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidRetention, s)
	}
	return d, nil
}

// FormatDuration formats d compactly: "45s", "30m", "5h12m", "3d4h".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}
