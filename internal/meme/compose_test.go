package meme

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var grey = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// solidPNG encodes a w×h image filled with c.
func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

type failingLogo struct{}

func (failingLogo) Logo(context.Context) (image.Image, error) {
	return nil, errors.New("logo unreachable")
}

func newTestComposer(logo LogoSource) *Composer {
	fonts := NewFontBook("")
	return NewComposer(NewLoader(), fonts, NewWatermarker(logo, fonts))
}

func caption(s string) *string { return &s }

func TestComposeIsDeterministic(t *testing.T) {
	c := newTestComposer(BytesLogo(solidPNG(t, 32, 32, color.NRGBA{R: 0xd9, G: 0x46, B: 0xef, A: 255})))
	req := Request{
		Source:  Uploaded(solidPNG(t, 800, 600, grey), "image/png"),
		Caption: caption("when the build is green on the first try"),
		Style:   DefaultStyle(),
	}

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		art, err := c.Compose(context.Background(), req)
		if err != nil {
			t.Fatalf("Compose() error = %v", err)
		}
		data, err := art.PNG()
		if err != nil {
			t.Fatalf("PNG() error = %v", err)
		}
		outputs = append(outputs, data)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("Compose() produced different bytes for identical inputs")
	}
}

func TestComposeOutputSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{name: "small image kept", w: 640, h: 480, wantW: 640, wantH: 480},
		{name: "exactly max width", w: 1200, h: 900, wantW: 1200, wantH: 900},
		{name: "wide image scaled", w: 2400, h: 1000, wantW: 1200, wantH: 500},
		{name: "portrait scaled", w: 1600, h: 3200, wantW: 1200, wantH: 2400},
		{name: "thin strip keeps one row", w: 3000, h: 2, wantW: 1200, wantH: 1},
	}

	c := newTestComposer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, err := c.Compose(context.Background(), Request{
				Source:           Uploaded(solidPNG(t, tt.w, tt.h, grey), "image/png"),
				Style:            DefaultStyle(),
				WatermarkRemoved: true,
			})
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if art.Width != tt.wantW || art.Height != tt.wantH {
				t.Errorf("Compose() size = %dx%d, want %dx%d", art.Width, art.Height, tt.wantW, tt.wantH)
			}
			if b := art.Image.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Compose() image bounds = %v, want %dx%d", b, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestComposeWatermark(t *testing.T) {
	logo := BytesLogo(solidPNG(t, 32, 32, color.NRGBA{R: 255, A: 255}))
	src := Uploaded(solidPNG(t, 600, 400, grey), "image/png")
	glyph := geometryFor(600, 400).glyph
	centre := image.Pt((glyph.Min.X+glyph.Max.X)/2, (glyph.Min.Y+glyph.Max.Y)/2)

	tests := []struct {
		name            string
		logo            LogoSource
		removed         bool
		wantWatermarked bool
		wantGlyph       bool
	}{
		{name: "watermarked", logo: logo, wantWatermarked: true, wantGlyph: true},
		{name: "removed", logo: logo, removed: true},
		{name: "logo fails", logo: failingLogo{}, wantWatermarked: true},
		{name: "no logo", logo: nil, wantWatermarked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, err := newTestComposer(tt.logo).Compose(context.Background(), Request{
				Source:           src,
				Style:            DefaultStyle(),
				WatermarkRemoved: tt.removed,
			})
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if art.Watermarked != tt.wantWatermarked {
				t.Errorf("Compose() Watermarked = %v, want %v", art.Watermarked, tt.wantWatermarked)
			}

			px := art.Image.NRGBAAt(centre.X, centre.Y)
			if gotGlyph := px != grey; gotGlyph != tt.wantGlyph {
				t.Errorf("pixel at glyph centre = %v, glyph drawn = %v, want %v", px, gotGlyph, tt.wantGlyph)
			}
			if tt.wantGlyph && (px.R <= grey.R || px.G >= grey.G) {
				t.Errorf("pixel at glyph centre = %v, want a red tint blended over grey", px)
			}
		})
	}
}

func TestComposeWatermarkLabel(t *testing.T) {
	src := Uploaded(solidPNG(t, 600, 400, grey), "image/png")
	c := newTestComposer(nil)

	plain, err := c.Compose(context.Background(), Request{Source: src, Style: DefaultStyle(), WatermarkRemoved: true})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	marked, err := c.Compose(context.Background(), Request{Source: src, Style: DefaultStyle()})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	g := geometryFor(600, 400)
	labelBand := image.Rect(0, g.glyph.Min.Y, int(g.labelRight), g.glyph.Max.Y)
	if !differs(plain.Image, marked.Image, labelBand) {
		t.Error("watermark label left no pixels left of the glyph")
	}
	if differs(plain.Image, marked.Image, image.Rect(0, 0, 600, 200)) {
		t.Error("watermark touched the top half of the canvas")
	}
}

func TestComposeCaption(t *testing.T) {
	src := Uploaded(solidPNG(t, 800, 600, grey), "image/png")
	c := newTestComposer(nil)

	render := func(text *string) *image.NRGBA {
		t.Helper()
		art, err := c.Compose(context.Background(), Request{
			Source:           src,
			Caption:          text,
			Style:            DefaultStyle(),
			WatermarkRemoved: true,
		})
		if err != nil {
			t.Fatalf("Compose() error = %v", err)
		}
		return art.Image
	}

	plain := render(nil)
	if differs(plain, render(caption("")), plain.Bounds()) {
		t.Error("empty caption changed the image")
	}

	captioned := render(caption("one does not simply compose a meme"))
	bottom := image.Rect(0, 300, 800, 600)
	if !differs(plain, captioned, bottom) {
		t.Error("caption drew nothing in the bottom half")
	}
	if differs(plain, captioned, image.Rect(0, 0, 800, 100)) {
		t.Error("short caption reached the top of the canvas")
	}
	if differs(plain, captioned, image.Rect(0, 580, 800, 600)) {
		t.Error("caption glyphs extended well below the 95% line")
	}
	if !hasColor(captioned, bottom, color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Error("caption has no white fill pixels")
	}
	if !hasColor(captioned, bottom, color.NRGBA{A: 255}) {
		t.Error("caption has no black outline pixels")
	}
}

func TestComposeInvalidStyle(t *testing.T) {
	style := DefaultStyle()
	style.SizeMultiplier = 5
	_, err := newTestComposer(nil).Compose(context.Background(), Request{
		Source:  Uploaded(solidPNG(t, 100, 100, grey), "image/png"),
		Caption: caption("hi"),
		Style:   style,
	})
	if !IsKind(err, KindValidation) {
		t.Errorf("Compose() error = %v, want validation error", err)
	}
}

func TestComposeSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		src  ImageSource
		kind ErrorKind
	}{
		{name: "no source", src: ImageSource{}, kind: KindValidation},
		{name: "corrupt upload", src: Uploaded([]byte("not an image"), "image/png"), kind: KindDecode},
		{name: "missing template file", src: Template(filepath.Join(t.TempDir(), "missing.png")), kind: KindDecode},
	}

	c := newTestComposer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, err := c.Compose(context.Background(), Request{Source: tt.src, Style: DefaultStyle()})
			if err == nil {
				t.Fatalf("Compose() = %v, want error", art)
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("Compose() error = %v, want kind %v", err, tt.kind)
			}
		})
	}
}

func TestComposeTemplateFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doge.png")
	if err := os.WriteFile(path, solidPNG(t, 300, 200, grey), 0o644); err != nil {
		t.Fatal(err)
	}
	art, err := newTestComposer(nil).Compose(context.Background(), Request{Source: Template(path), Style: DefaultStyle()})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if art.Width != 300 || art.Height != 200 {
		t.Errorf("Compose() size = %dx%d, want 300x200", art.Width, art.Height)
	}
}

func TestArtifactDataURI(t *testing.T) {
	art, err := newTestComposer(nil).Compose(context.Background(), Request{
		Source: Uploaded(solidPNG(t, 50, 50, grey), ""),
		Style:  DefaultStyle(),
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	uri, err := art.DataURI()
	if err != nil {
		t.Fatalf("DataURI() error = %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("DataURI() = %q..., want data:image/png;base64 prefix", uri[:min(len(uri), 30)])
	}
}

func differs(a, b *image.NRGBA, r image.Rectangle) bool {
	r = r.Intersect(a.Bounds()).Intersect(b.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.NRGBAAt(x, y) != b.NRGBAAt(x, y) {
				return true
			}
		}
	}
	return false
}

func hasColor(img *image.NRGBA, r image.Rectangle, c color.NRGBA) bool {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.NRGBAAt(x, y) == c {
				return true
			}
		}
	}
	return false
}
