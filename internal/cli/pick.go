package cli

import (
	"errors"
	"fmt"

	"github.com/ncruces/zenity"
)

// ErrPickCanceled is returned when the user dismisses the file picker.
var ErrPickCanceled = errors.New("image selection canceled")

// ChooseImageFile opens the native file picker filtered to images.
func ChooseImageFile() (string, error) {
	path, err := zenity.SelectFile(
		zenity.Title("Select an image for your meme"),
		zenity.FileFilters{
			{
				Name:     "Images",
				Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"},
				CaseFold: true,
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrPickCanceled
		}
		return "", fmt.Errorf("file picker failed: %w", err)
	}
	return path, nil
}
