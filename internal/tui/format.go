package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer is the locale-aware message printer for number formatting.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatCount formats n with thousand separators, e.g. 18248 -> "18,248".
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatCost formats a USD amount with thousand separators. Amounts under
// a cent keep six decimals so per-row prices stay readable.
func FormatCost(usd float64) string {
	precision := 4
	if usd != 0 && math.Abs(usd) < 0.01 {
		precision = 6
	}
	return "$" + formatFloat(usd, precision)
}

func formatFloat(f float64, precision int) string {
	multiplier := math.Pow(10, float64(precision))
	rounded := math.Round(f*multiplier) / multiplier

	formatted := fmt.Sprintf("%.*f", precision, rounded)
	intPart, frac, found := strings.Cut(formatted, ".")

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	var n int64
	if _, err := fmt.Sscan(intPart, &n); err != nil {
		return formatted
	}
	out := sign + FormatCount(n)
	if found {
		out += "." + frac
	}
	return out
}

// FormatDuration renders d as e.g. "1m20s", dropping sub-second noise.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// FormatETA renders an ETA in seconds, or "--" when unknown.
func FormatETA(seconds *int64) string {
	if seconds == nil {
		return "--"
	}
	return FormatDuration(time.Duration(*seconds) * time.Second)
}
