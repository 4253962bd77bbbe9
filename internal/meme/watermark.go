package meme

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

const (
	// WatermarkLabel is the text drawn beside the logo glyph.
	WatermarkLabel = "Meme Magic"
	// WatermarkOpacity is the global alpha of the whole watermark layer.
	WatermarkOpacity = 0.6

	shadowBlurSigma = 1.5
)

var (
	labelColor  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	shadowColor = color.NRGBA{A: 178}
)

// LogoSource supplies the watermark glyph. Implementations may do I/O and
// may fail; the Watermarker treats failure as "draw no glyph".
type LogoSource interface {
	Logo(ctx context.Context) (image.Image, error)
}

// BytesLogo decodes an encoded image held in memory.
type BytesLogo []byte

// Logo decodes the logo bytes.
func (b BytesLogo) Logo(ctx context.Context) (image.Image, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("logo asset is empty")
	}
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	return img, nil
}

// URILogo loads the logo from a file path or http(s) URL.
type URILogo struct {
	Loader *Loader
	URI    string
}

// Logo fetches and decodes the logo.
func (u URILogo) Logo(ctx context.Context) (image.Image, error) {
	return u.Loader.Load(ctx, Template(u.URI))
}

// Watermarker draws the semi-transparent logo and label in the bottom-right
// corner. It never fails: a missing glyph or label face is logged and skipped.
type Watermarker struct {
	logo  LogoSource
	fonts *FontBook
}

// NewWatermarker creates a Watermarker. logo may be nil.
func NewWatermarker(logo LogoSource, fonts *FontBook) *Watermarker {
	return &Watermarker{logo: logo, fonts: fonts}
}

// watermarkGeometry holds the watermark placement for one canvas size.
type watermarkGeometry struct {
	size, padding float64
	glyph         image.Rectangle
	labelRight    float64
	labelMiddle   float64
	fontSize      float64
}

func geometryFor(width, height int) watermarkGeometry {
	w, h := float64(width), float64(height)
	size := math.Max(24, w*0.05)
	padding := math.Max(12, w*0.02)
	x := w - size - padding
	y := h - size - padding
	return watermarkGeometry{
		size:    size,
		padding: padding,
		glyph: image.Rect(
			int(math.Round(x)), int(math.Round(y)),
			int(math.Round(x+size)), int(math.Round(y+size)),
		),
		labelRight:  x - padding/2,
		labelMiddle: y + size/2,
		fontSize:    size * 0.5,
	}
}

// Apply returns canvas with the watermark composited on top, and whether a
// watermark layer was drawn. When removed is true canvas is returned as is.
func (w *Watermarker) Apply(ctx context.Context, canvas *image.NRGBA, removed bool) (*image.NRGBA, bool) {
	if removed {
		return canvas, false
	}

	bounds := canvas.Bounds()
	g := geometryFor(bounds.Dx(), bounds.Dy())
	region := g.glyph

	logo := w.loadLogo(ctx)

	face, err := w.fonts.Face(labelFamily, g.fontSize)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load watermark label font, drawing glyph only")
		face = nil
	}

	var labelLeft, labelBaseline float64
	if face != nil {
		defer face.Close()
		m := face.Metrics()
		ascent := float64(m.Ascent) / 64
		descent := float64(m.Descent) / 64
		labelLeft = g.labelRight - measure(face, WatermarkLabel)
		labelBaseline = g.labelMiddle + (ascent-descent)/2
		labelBox := image.Rect(
			int(math.Floor(labelLeft)), int(math.Floor(labelBaseline-ascent)),
			int(math.Ceil(g.labelRight)), int(math.Ceil(labelBaseline+descent)),
		)
		region = region.Union(labelBox)
	}

	if logo == nil && face == nil {
		return canvas, false
	}

	region = region.Inset(-6).Intersect(bounds)
	if region.Empty() {
		return canvas, false
	}
	origin := region.Min
	layer := image.NewNRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))

	if logo != nil {
		draw.CatmullRom.Scale(layer, g.glyph.Sub(origin), logo, logo.Bounds(), draw.Over, nil)
	}

	if face != nil {
		left := labelLeft - float64(origin.X)
		baseline := labelBaseline - float64(origin.Y)

		shadow := image.NewNRGBA(layer.Bounds())
		drawLine(shadow, face, WatermarkLabel, left+1, baseline+1, shadowColor)
		blurred := imaging.Blur(shadow, shadowBlurSigma)
		draw.Draw(layer, layer.Bounds(), blurred, image.Point{}, draw.Over)

		drawLine(layer, face, WatermarkLabel, left, baseline, labelColor)
	}

	return imaging.Overlay(canvas, layer, origin, WatermarkOpacity), true
}

// loadLogo fetches the glyph, returning nil on any failure.
func (w *Watermarker) loadLogo(ctx context.Context) image.Image {
	if w.logo == nil {
		return nil
	}
	img, err := w.logo.Logo(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load watermark logo, drawing label only")
		return nil
	}
	return img
}
