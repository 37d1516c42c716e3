// Package progress converts between playback positions and the persisted
// reading progress percentage.
package progress

import (
	"math"

	"github.com/jwulff/touchread/internal/pacing"
)

// ToProgress returns the position as a percentage of length, or 0 when
// nothing is loaded.
func ToProgress(index, length int) float64 {
	if length <= 0 {
		return 0
	}
	return float64(index) / float64(length) * 100
}

// FromProgress reconstructs a position from a persisted percentage and the
// raw content it was recorded against. The content must be segmented with
// the same tokenizer before the index is applied.
func FromProgress(fraction float64, content string) int {
	n := pacing.CountWords(content)
	if n == 0 {
		return 0
	}
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = min(100, max(0, fraction))
	i := int(math.Round(fraction / 100 * float64(n)))
	return min(max(i, 0), n-1)
}
