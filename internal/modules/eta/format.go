// README: Display helpers for ETA minutes.
package eta

import (
	"fmt"
	"math"

	"galley/internal/types"
)

type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var rangeVariance = map[types.Confidence]float64{
	types.ConfidenceHigh:   0.15,
	types.ConfidenceMedium: 0.25,
	types.ConfidenceLow:    0.40,
}

// FormatETA renders minutes as "Ready", "~1 min", "~N mins" or "~Hh Mm".
func FormatETA(minutes int) string {
	switch {
	case minutes <= 0:
		return "Ready"
	case minutes < 2:
		return "~1 min"
	case minutes < 60:
		return fmt.Sprintf("~%d mins", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("~%dh", h)
	}
	return fmt.Sprintf("~%dh %dm", h, m)
}

// ETARange widens minutes by the confidence variance. The lower bound is
// floored at one minute even when that puts it above the upper bound, so a
// ready order (zero or negative minutes) yields {1, 0}.
func ETARange(minutes int, c types.Confidence) Range {
	minutes = max(minutes, 0)
	v, ok := rangeVariance[c]
	if !ok {
		v = rangeVariance[types.ConfidenceLow]
	}
	m := float64(minutes)
	return Range{
		Min: max(int(math.Round(m*(1-v))), 1),
		Max: int(math.Round(m * (1 + v))),
	}
}
