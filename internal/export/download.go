package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fpang/meme-magic/internal/meme"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// DownloadFileName is the fixed name of a downloaded meme.
const DownloadFileName = "meme-magic.png"

const msgDownloadFailed = "Failed to download image."

// ErrSaveCanceled is returned when the user dismisses the save dialog.
var ErrSaveCanceled = errors.New("save canceled")

// DownloadBytes composes req and returns the PNG for an HTTP attachment.
func DownloadBytes(ctx context.Context, r Renderer, req meme.Request) ([]byte, error) {
	return render(ctx, r, req, msgDownloadFailed)
}

// Download composes req and writes it to path. A directory path receives
// DownloadFileName inside it. It returns the written file path.
func Download(ctx context.Context, r Renderer, req meme.Request, path string) (string, error) {
	data, err := render(ctx, r, req, msgDownloadFailed)
	if err != nil {
		return "", err
	}

	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, DownloadFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", meme.NewError(meme.KindExport, msgDownloadFailed, fmt.Errorf("failed to create output directory: %w", err))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", meme.NewError(meme.KindExport, msgDownloadFailed, fmt.Errorf("failed to write %s: %w", path, err))
	}

	log.Info().
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Meme saved")
	return path, nil
}

// ChooseSavePath asks for a destination with the native save dialog,
// starting at dir/meme-magic.png.
func ChooseSavePath(dir string) (string, error) {
	path, err := zenity.SelectFileSave(
		zenity.Title("Save meme"),
		zenity.Filename(filepath.Join(dir, DownloadFileName)),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{
			{
				Name:     "PNG image",
				Patterns: []string{"*.png"},
				CaseFold: true,
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrSaveCanceled
		}
		log.Error().Err(err).Msg("Save dialog failed")
		return "", fmt.Errorf("save dialog failed: %w", err)
	}
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	return path, nil
}
