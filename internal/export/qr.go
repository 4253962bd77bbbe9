package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fpang/meme-magic/internal/feed"
	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length in pixels of a post QR code.
const DefaultQRSize = 256

// PostLink returns the permalink of a post under baseURL.
func PostLink(baseURL string, post feed.Post) string {
	return strings.TrimRight(baseURL, "/") + "/feed/" + url.PathEscape(post.ID)
}

// PostQR renders a PNG QR code of the post's permalink.
func PostQR(post feed.Post, baseURL string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(PostLink(baseURL, post), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
