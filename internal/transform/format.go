package transform

import (
	"fmt"
	"strings"
	"time"
)

// DisplayTimeFormat is the fixed UTC layout of every *_formatted field.
const DisplayTimeFormat = "2006-01-02 15:04:05Z"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z",
	"2006-01-02",
}

// ParseTime accepts the timestamp shapes the API emits. Values without a zone
// are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t in UTC with DisplayTimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(DisplayTimeFormat)
}

// FormatDuration renders d as "DDd, HHh, MMm, SSs". Zero day, hour and minute
// parts are left out; seconds are always present.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%02dd, ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%02dh, ", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%02dm, ", minutes)
	}
	fmt.Fprintf(&b, "%02ds", seconds)
	return b.String()
}

// FormatBytes renders a byte count with two decimals in the largest fitting
// binary unit.
func FormatBytes(n float64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := 0
	for n >= 1024 && i < len(units)-1 {
		n /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", n, units[i])
}
