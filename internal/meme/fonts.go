package meme

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

// embeddedFonts maps each caption family to the bundled Go font used when no
// real font file is available. Captions are always drawn bold.
var embeddedFonts = map[string][]byte{
	"Impact":          gobold.TTF,
	"Arial":           gobold.TTF,
	"Arial Black":     gobold.TTF,
	"Comic Sans MS":   gomediumitalic.TTF,
	"Courier New":     gomonobold.TTF,
	"Times New Roman": gosmallcaps.TTF,
	"Verdana":         gomedium.TTF,
	"Brush Script MT": gobolditalic.TTF,
}

// labelFamily is the sans-serif face used for the watermark label.
const labelFamily = "Arial"

// FontBook resolves caption font families to parsed fonts.
//
// If dir is set, a file named "<family>.ttf" or "<family>.otf" inside it takes
// precedence over the embedded fallback. Parsed fonts are cached; the cache
// never changes which font a family maps to, so output stays deterministic.
type FontBook struct {
	dir string

	mu    sync.Mutex
	fonts map[string]*opentype.Font
}

// NewFontBook creates a FontBook. dir may be empty.
func NewFontBook(dir string) *FontBook {
	return &FontBook{
		dir:   dir,
		fonts: make(map[string]*opentype.Font),
	}
}

// Face returns a face for family at size pixels. Unknown families fall back
// to the default caption font.
func (b *FontBook) Face(family string, size float64) (font.Face, error) {
	f, err := b.font(family)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s face at %.0fpx: %w", family, size, err)
	}
	return face, nil
}

func (b *FontBook) font(family string) (*opentype.Font, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if f, ok := b.fonts[family]; ok {
		return f, nil
	}

	data := b.fromDir(family)
	if data == nil {
		var ok bool
		data, ok = embeddedFonts[family]
		if !ok {
			data = embeddedFonts[DefaultStyle().FontFamily]
		}
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %q: %w", family, err)
	}
	b.fonts[family] = f
	return f, nil
}

// fromDir reads a user-supplied font file for family, or returns nil.
func (b *FontBook) fromDir(family string) []byte {
	if b.dir == "" {
		return nil
	}
	for _, ext := range []string{".ttf", ".otf"} {
		path := filepath.Join(b.dir, family+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if _, err := opentype.Parse(data); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Ignoring unparseable font file")
			continue
		}
		log.Debug().Str("family", family).Str("path", path).Msg("Using font file from font directory")
		return data
	}
	return nil
}
