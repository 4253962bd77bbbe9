package meme

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// measure returns the advance width of s in pixels.
func measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// textMask rasterizes s into an alpha mask with pad pixels of margin on every
// side. The returned point is the text origin (left edge, baseline) inside
// the mask.
func textMask(face font.Face, s string, pad int) (*image.Alpha, image.Point) {
	m := face.Metrics()
	width := font.MeasureString(face, s).Ceil()
	height := m.Ascent.Ceil() + m.Descent.Ceil()

	mask := image.NewAlpha(image.Rect(0, 0, width+2*pad, height+2*pad))
	origin := image.Pt(pad, pad+m.Ascent.Ceil())
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(origin.X, origin.Y),
	}
	d.DrawString(s)
	return mask, origin
}

// dilate grows the coverage of src by a disk of the given radius. It is the
// raster equivalent of stroking glyph outlines with a pen twice as wide.
//
// The disk is split into rows: row dy spans dx in [-w(dy), w(dy)]. Running
// horizontal maxima for each half-width are built once, so every output
// pixel takes one lookup per disk row instead of one per disk pixel.
func dilate(src *image.Alpha, radius float64) *image.Alpha {
	r := int(math.Ceil(radius))
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewAlpha(b)
	if w == 0 || h == 0 {
		return dst
	}

	// halfWidth[dy+r] is the widest |dx| inside the disk on row dy, or -1.
	halfWidth := make([]int, 2*r+1)
	widest := 0
	for dy := -r; dy <= r; dy++ {
		hw := r
		for hw >= 0 && float64(hw*hw+dy*dy) > radius*radius {
			hw--
		}
		halfWidth[dy+r] = hw
		widest = max(widest, hw)
	}

	// rows[k][y*w+x] is the max of src over [x-k, x+k] on row y.
	rows := make([][]uint8, widest+1)
	rows[0] = make([]uint8, w*h)
	for y := 0; y < h; y++ {
		copy(rows[0][y*w:(y+1)*w], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	for k := 1; k <= widest; k++ {
		prev := rows[k-1]
		cur := make([]uint8, w*h)
		for y := 0; y < h; y++ {
			row := y * w
			for x := 0; x < w; x++ {
				peak := prev[row+x]
				if x > 0 && prev[row+x-1] > peak {
					peak = prev[row+x-1]
				}
				if x+1 < w && prev[row+x+1] > peak {
					peak = prev[row+x+1]
				}
				cur[row+x] = peak
			}
		}
		rows[k] = cur
	}

	for y := 0; y < h; y++ {
		out := dst.Pix[dst.PixOffset(b.Min.X, b.Min.Y+y):]
		for dy := -r; dy <= r; dy++ {
			hw := halfWidth[dy+r]
			sy := y + dy
			if hw < 0 || sy < 0 || sy >= h {
				continue
			}
			line := rows[hw][sy*w : (sy+1)*w]
			for x, a := range line {
				if a > out[x] {
					out[x] = a
				}
			}
		}
	}
	return dst
}

// drawOutlinedLine draws s with its origin at (left, baseline): an outline
// pass in stroke beneath a fill pass in fill.
func drawOutlinedLine(dst draw.Image, face font.Face, s string, left, baseline float64, fill, stroke color.Color, outlineWidth float64) {
	radius := outlineWidth / 2
	mask, origin := textMask(face, s, int(math.Ceil(radius))+2)
	at := image.Pt(int(math.Round(left))-origin.X, int(math.Round(baseline))-origin.Y)
	r := mask.Bounds().Add(at)

	draw.DrawMask(dst, r, image.NewUniform(stroke), image.Point{}, dilate(mask, radius), image.Point{}, draw.Over)
	draw.DrawMask(dst, r, image.NewUniform(fill), image.Point{}, mask, image.Point{}, draw.Over)
}

// drawLine draws s with its origin at (left, baseline) in a single color.
func drawLine(dst draw.Image, face font.Face, s string, left, baseline float64, c color.Color) {
	mask, origin := textMask(face, s, 2)
	at := image.Pt(int(math.Round(left))-origin.X, int(math.Round(baseline))-origin.Y)
	draw.DrawMask(dst, mask.Bounds().Add(at), image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}
