package meme

import (
	"math"
	"strings"
)

// Caption geometry, as fractions of the output canvas.
const (
	// baseFontDivisor sets the unscaled font size to width/12.
	baseFontDivisor = 12.0
	// LineHeightFactor is the line height as a multiple of the font size.
	LineHeightFactor = 1.1
	// CaptionWidthFraction is the wrap budget relative to canvas width.
	CaptionWidthFraction = 0.9
	// CaptionBottomFraction places the bottom of the caption block.
	CaptionBottomFraction = 0.95
)

// MeasureFunc returns the rendered width of a single line of text.
type MeasureFunc func(line string) float64

// Layout greedily word-wraps text into lines no wider than maxWidth.
//
// Words are split on whitespace and rejoined with single spaces. A word that
// is wider than maxWidth on its own is kept alone on its line without being
// broken. Empty or whitespace-only text yields no lines.
func Layout(text string, maxWidth float64, measure MeasureFunc) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

// Anchor returns the baseline of each of n lines so that the last line sits
// on bottomY and earlier lines stack upward by lineHeight.
func Anchor(n int, bottomY, lineHeight float64) []float64 {
	if n <= 0 {
		return nil
	}
	ys := make([]float64, n)
	top := bottomY - float64(n-1)*lineHeight
	for i := range ys {
		ys[i] = top + float64(i)*lineHeight
	}
	return ys
}

// FontMetrics are the caption font parameters derived from the canvas width
// and the style's size multiplier.
type FontMetrics struct {
	Size         float64
	LineHeight   float64
	OutlineWidth float64
}

// FontMetricsFor derives caption metrics for a canvas of the given width.
func FontMetricsFor(canvasWidth int, sizeMultiplier float64) FontMetrics {
	base := float64(canvasWidth) / baseFontDivisor
	size := math.Floor(base * sizeMultiplier)
	return FontMetrics{
		Size:         size,
		LineHeight:   size * LineHeightFactor,
		OutlineWidth: math.Max(2, math.Floor(size/15)),
	}
}
