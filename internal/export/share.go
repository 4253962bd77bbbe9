package export

import (
	"context"
	"errors"

	"github.com/fpang/meme-magic/internal/meme"
	"github.com/rs/zerolog/log"
)

// Share payload constants.
const (
	ShareFileName = "meme.png"
	ShareTitle    = "Meme Magic"
	ShareText     = "Check out this meme I generated with Meme Magic!"
)

// Share notifications and error messages.
const (
	NoticeCopied         = "Image copied to clipboard!"
	NoticeCopiedFallback = "Sharing failed, but image was copied to clipboard!"

	msgPrepareFailed  = "Failed to prepare share."
	msgShareFailed    = "Failed to share."
	msgShareCannotRun = "Sharing not supported. Please download the image."
)

// ErrShareCanceled is returned by a Sharer when the user dismisses the share
// sheet. It is not a failure.
var ErrShareCanceled = errors.New("share canceled")

// Payload is what a Sharer hands to the platform.
type Payload struct {
	FileName string
	MIMEType string
	Title    string
	Text     string
	Data     []byte
}

// Sharer is a native share target.
type Sharer interface {
	// Available reports whether sharing can be attempted at all.
	Available() bool
	Share(ctx context.Context, p Payload) error
}

// Clipboard receives the image when sharing is unavailable or fails.
type Clipboard interface {
	WriteImage(ctx context.Context, png []byte) error
}

// Outcome is how a share request ended.
type Outcome string

const (
	OutcomeShared   Outcome = "shared"
	OutcomeCanceled Outcome = "canceled"
	OutcomeCopied   Outcome = "copied"
)

// ShareResult reports the outcome and any notification to show.
type ShareResult struct {
	Outcome Outcome `json:"outcome"`
	Notice  string  `json:"notice,omitempty"`
}

// Share composes req and offers it to sharer, falling back to the clipboard.
// Either collaborator may be nil.
func Share(ctx context.Context, r Renderer, req meme.Request, sharer Sharer, clip Clipboard) (ShareResult, error) {
	data, err := render(ctx, r, req, msgPrepareFailed)
	if err != nil {
		return ShareResult{}, err
	}

	if sharer != nil && sharer.Available() {
		err := sharer.Share(ctx, Payload{
			FileName: ShareFileName,
			MIMEType: meme.PNGMIMEType,
			Title:    ShareTitle,
			Text:     ShareText,
			Data:     data,
		})
		switch {
		case err == nil:
			log.Info().Int("bytes", len(data)).Msg("Meme shared")
			return ShareResult{Outcome: OutcomeShared}, nil
		case errors.Is(err, ErrShareCanceled):
			log.Debug().Msg("Share canceled by user")
			return ShareResult{Outcome: OutcomeCanceled}, nil
		}

		log.Warn().Err(err).Msg("Share failed, falling back to clipboard")
		if cerr := writeClipboard(ctx, clip, data); cerr != nil {
			return ShareResult{}, meme.NewError(meme.KindExport, msgShareFailed, errors.Join(err, cerr))
		}
		return ShareResult{Outcome: OutcomeCopied, Notice: NoticeCopiedFallback}, nil
	}

	if err := writeClipboard(ctx, clip, data); err != nil {
		return ShareResult{}, meme.NewError(meme.KindExport, msgShareCannotRun, err)
	}
	return ShareResult{Outcome: OutcomeCopied, Notice: NoticeCopied}, nil
}

var errNoClipboard = errors.New("no clipboard available")

func writeClipboard(ctx context.Context, clip Clipboard, data []byte) error {
	if clip == nil {
		return errNoClipboard
	}
	if err := clip.WriteImage(ctx, data); err != nil {
		log.Error().Err(err).Msg("Clipboard write failed")
		return err
	}
	log.Info().Int("bytes", len(data)).Msg("Meme copied to clipboard")
	return nil
}
