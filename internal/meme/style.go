package meme

import (
	"fmt"
	"image/color"
	"slices"
	"strconv"
	"strings"
)

// Size multiplier bounds accepted by TextStyle.
const (
	MinSizeMultiplier = 0.5
	MaxSizeMultiplier = 2.5
)

// FontFamilies lists the caption fonts a style may select.
var FontFamilies = []string{
	"Impact",
	"Arial",
	"Arial Black",
	"Comic Sans MS",
	"Courier New",
	"Times New Roman",
	"Verdana",
	"Brush Script MT",
}

// TextStyle controls how the selected caption is drawn.
type TextStyle struct {
	FontFamily     string  `json:"fontFamily"`
	SizeMultiplier float64 `json:"fontSizeMultiplier"`
	TextColor      string  `json:"textColor"`
	StrokeColor    string  `json:"strokeColor"`
}

// DefaultStyle is white Impact with a black outline at 100%.
func DefaultStyle() TextStyle {
	return TextStyle{
		FontFamily:     "Impact",
		SizeMultiplier: 1,
		TextColor:      "#FFFFFF",
		StrokeColor:    "#000000",
	}
}

// Validate checks the style against the recognized options.
func (s TextStyle) Validate() error {
	if !slices.Contains(FontFamilies, s.FontFamily) {
		return fmt.Errorf("unsupported font family %q", s.FontFamily)
	}
	if s.SizeMultiplier < MinSizeMultiplier || s.SizeMultiplier > MaxSizeMultiplier {
		return fmt.Errorf("size multiplier %.2f outside [%.1f, %.1f]", s.SizeMultiplier, MinSizeMultiplier, MaxSizeMultiplier)
	}
	if _, err := ParseColor(s.TextColor); err != nil {
		return fmt.Errorf("text color: %w", err)
	}
	if _, err := ParseColor(s.StrokeColor); err != nil {
		return fmt.Errorf("stroke color: %w", err)
	}
	return nil
}

// ParseColor parses a CSS hex color: #RGB, #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
