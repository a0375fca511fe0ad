package analytics

import (
	"fmt"
	"strconv"
)

// FormatCompact renders x as 1.2K / 3.40M style text. The thresholds apply to
// |x|; the sign of x is kept.
func FormatCompact(x int64) string {
	abs := x
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(x)/1e6)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(x)/1e3)
	default:
		return strconv.FormatInt(x, 10)
	}
}

// FormatSigned is FormatCompact with a leading "+" for non-negative values.
func FormatSigned(x int64) string {
	if x >= 0 {
		return "+" + FormatCompact(x)
	}
	return FormatCompact(x)
}

// FormatPercent renders a percent change with two decimals and a sign.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}
