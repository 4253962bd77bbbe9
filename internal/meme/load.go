package meme

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// maxSourceBytes bounds template downloads.
const maxSourceBytes = 32 << 20

// Loader fetches and decodes the bytes behind an ImageSource.
type Loader struct {
	httpClient *http.Client
}

// NewLoader creates a Loader with a bounded HTTP client for template URLs.
func NewLoader() *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns the raw bytes and MIME type of src. Template sources are
// downloaded (http/https) or read from disk.
func (l *Loader) Fetch(ctx context.Context, src ImageSource) ([]byte, string, error) {
	switch src.Kind {
	case SourceUploaded, SourceEdited:
		mimeType := src.MIMEType
		if mimeType == "" {
			mimeType = http.DetectContentType(src.Data)
		}
		return src.Data, mimeType, nil
	case SourceTemplate:
		if strings.HasPrefix(src.URI, "http://") || strings.HasPrefix(src.URI, "https://") {
			return l.download(ctx, src.URI)
		}
		data, err := os.ReadFile(src.URI)
		if err != nil {
			return nil, "", fmt.Errorf("read template file: %w", err)
		}
		return data, http.DetectContentType(data), nil
	default:
		return nil, "", ErrNoImage
	}
}

// Load fetches and decodes src, applying EXIF orientation. Any failure is a
// DecodeError except a missing source, which is a ValidationError.
func (l *Loader) Load(ctx context.Context, src ImageSource) (image.Image, error) {
	if src.IsNone() {
		return nil, ErrNoImage
	}
	data, _, err := l.Fetch(ctx, src)
	if err != nil {
		return nil, NewError(KindDecode, "Failed to load image.", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, NewError(KindDecode, "Failed to load image.", fmt.Errorf("decode %s image: %w", src.Kind, err))
	}
	return img, nil
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}

	log.Debug().
		Str("url", url).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Downloaded template image")

	return data, mimeType, nil
}
