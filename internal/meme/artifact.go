package meme

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PNGMIMEType is the MIME type of every exported artifact.
const PNGMIMEType = "image/png"

// Artifact is one composed meme. It is produced per export and never cached.
type Artifact struct {
	Image       *image.NRGBA
	Width       int
	Height      int
	Watermarked bool
}

// PNG encodes the artifact. Encoding is deterministic for identical pixels.
func (a *Artifact) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, a.Image, imaging.PNG); err != nil {
		return nil, NewError(KindExport, "Failed to create image blob.", fmt.Errorf("encode png: %w", err))
	}
	return buf.Bytes(), nil
}

// DataURI encodes the artifact as a data:image/png;base64 URI.
func (a *Artifact) DataURI() (string, error) {
	data, err := a.PNG()
	if err != nil {
		return "", err
	}
	return "data:" + PNGMIMEType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
