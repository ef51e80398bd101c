package service

import (
	"fmt"
	"math"
)

// Round2 rounds a duration in seconds to 2 decimal places, the storage
// precision for all logged durations.
func Round2(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}

// FormatDuration renders seconds as "Hh Mm" when at least an hour, else
// "Mm Ss".
func FormatDuration(seconds float64) string {
	total := int(seconds)
	m, s := total/60, total%60
	h, m := m/60, m%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
