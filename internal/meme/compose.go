package meme

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// MaxCanvasWidth caps the output width; wider images are scaled down
// preserving aspect ratio.
const MaxCanvasWidth = 1200

// Composer renders an image source, caption and watermark into an Artifact.
// It holds no per-call state: identical inputs yield identical pixels.
type Composer struct {
	loader     *Loader
	fonts      *FontBook
	watermarks *Watermarker
}

// NewComposer wires a Composer from its collaborators.
func NewComposer(loader *Loader, fonts *FontBook, watermarks *Watermarker) *Composer {
	return &Composer{
		loader:     loader,
		fonts:      fonts,
		watermarks: watermarks,
	}
}

// Request is everything that determines a composed artifact.
type Request struct {
	Source           ImageSource
	Caption          *string
	Style            TextStyle
	WatermarkRemoved bool
}

// OutputSize returns the canvas size for an image of the given natural size.
// A scaled dimension never drops below one pixel.
func OutputSize(width, height int) (int, int) {
	if width <= MaxCanvasWidth {
		return width, height
	}
	scale := float64(MaxCanvasWidth) / float64(width)
	return MaxCanvasWidth, max(1, int(float64(height)*scale))
}

// Compose loads the source, scales it, draws the caption and the watermark.
// A source that cannot be decoded fails the whole call; a watermark logo that
// cannot be loaded does not.
func (c *Composer) Compose(ctx context.Context, req Request) (*Artifact, error) {
	start := time.Now()

	src, err := c.loader.Load(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	sb := src.Bounds()
	width, height := OutputSize(sb.Dx(), sb.Dy())
	if width <= 0 || height <= 0 {
		return nil, NewError(KindDecode, "Failed to load image.", fmt.Errorf("image has empty bounds %v", sb))
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), src, sb, draw.Src, nil)

	if req.Caption != nil && *req.Caption != "" {
		if err := c.drawCaption(canvas, *req.Caption, req.Style); err != nil {
			return nil, err
		}
	}

	out, watermarked := c.watermarks.Apply(ctx, canvas, req.WatermarkRemoved)

	log.Debug().
		Str("source", req.Source.Kind.String()).
		Int("natural_width", sb.Dx()).
		Int("width", width).
		Int("height", height).
		Bool("caption", req.Caption != nil && *req.Caption != "").
		Bool("watermarked", watermarked).
		Dur("duration", time.Since(start)).
		Msg("Composed meme")

	return &Artifact{
		Image:       out,
		Width:       width,
		Height:      height,
		Watermarked: watermarked,
	}, nil
}

// drawCaption word-wraps caption into the bottom of canvas, outline first.
func (c *Composer) drawCaption(canvas *image.NRGBA, caption string, style TextStyle) error {
	if err := style.Validate(); err != nil {
		return NewError(KindValidation, "Invalid text style.", err)
	}
	fill, _ := ParseColor(style.TextColor)
	stroke, _ := ParseColor(style.StrokeColor)

	width, height := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	metrics := FontMetricsFor(width, style.SizeMultiplier)
	if metrics.Size < 1 {
		return nil
	}

	face, err := c.fonts.Face(style.FontFamily, metrics.Size)
	if err != nil {
		return fmt.Errorf("caption font: %w", err)
	}
	defer face.Close()

	maxWidth := float64(width) * CaptionWidthFraction
	lines := Layout(caption, maxWidth, func(line string) float64 {
		return measure(face, line)
	})

	// Lines are anchored by the bottom of their em box, so the glyph
	// baseline sits one descent above each anchor.
	descent := float64(face.Metrics().Descent) / 64
	bottom := float64(height) * CaptionBottomFraction
	centre := float64(width) / 2

	for i, y := range Anchor(len(lines), bottom, metrics.LineHeight) {
		left := centre - measure(face, lines[i])/2
		drawOutlinedLine(canvas, face, lines[i], left, y-descent, fill, stroke, metrics.OutlineWidth)
	}
	return nil
}
