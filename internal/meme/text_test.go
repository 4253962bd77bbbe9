package meme

import (
	"bytes"
	"image"
	"math/rand/v2"
	"testing"
)

// dilateByDisk is the direct definition: each pixel takes the peak of every
// source pixel within radius.
func dilateByDisk(src *image.Alpha, radius float64) *image.Alpha {
	b := src.Bounds()
	dst := image.NewAlpha(b)
	r := int(radius) + 1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var peak uint8
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					p := image.Pt(x+dx, y+dy)
					if float64(dx*dx+dy*dy) > radius*radius || !p.In(b) {
						continue
					}
					peak = max(peak, src.AlphaAt(p.X, p.Y).A)
				}
			}
			dst.Pix[dst.PixOffset(x, y)] = peak
		}
	}
	return dst
}

func TestDilateMatchesDisk(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	sparse := image.NewAlpha(image.Rect(0, 0, 61, 23))
	for i := range sparse.Pix {
		if rng.IntN(20) == 0 {
			sparse.Pix[i] = uint8(rng.IntN(256))
		}
	}

	face, err := NewFontBook("").Face(DefaultStyle().FontFamily, 48)
	if err != nil {
		t.Fatalf("Face() error = %v", err)
	}
	defer face.Close()
	glyphs, _ := textMask(face, "WAg!", 6)

	offset := image.NewAlpha(image.Rect(5, 9, 30, 20))
	offset.Pix[offset.PixOffset(5, 9)] = 0xff
	offset.Pix[offset.PixOffset(29, 19)] = 0x80

	tests := []struct {
		name   string
		mask   *image.Alpha
		radius float64
	}{
		{name: "sparse zero radius", mask: sparse, radius: 0},
		{name: "sparse fractional radius", mask: sparse, radius: 2.5},
		{name: "sparse radius wider than mask", mask: sparse, radius: 30},
		{name: "glyphs", mask: glyphs, radius: 4.4},
		{name: "non-zero origin", mask: offset, radius: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dilate(tt.mask, tt.radius)
			want := dilateByDisk(tt.mask, tt.radius)
			if got.Bounds() != want.Bounds() {
				t.Fatalf("dilate() bounds = %v, want %v", got.Bounds(), want.Bounds())
			}
			if !bytes.Equal(got.Pix, want.Pix) {
				t.Errorf("dilate() differs from disk dilation")
			}
		})
	}
}

func TestDilateEmptyMask(t *testing.T) {
	got := dilate(image.NewAlpha(image.Rectangle{}), 3)
	if !got.Bounds().Empty() {
		t.Errorf("dilate() bounds = %v, want empty", got.Bounds())
	}
}
