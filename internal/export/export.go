// Package export delivers composed memes through the three egress paths:
// saving a PNG file, sharing (with clipboard fallback) and publishing to the
// community feed. Every sink composes a fresh artifact per call.
package export

import (
	"context"
	"errors"

	"github.com/fpang/meme-magic/internal/meme"
)

// Renderer composes the artifact for a request. *meme.Composer satisfies it.
type Renderer interface {
	Compose(ctx context.Context, req meme.Request) (*meme.Artifact, error)
}

// render composes and encodes req. Validation and decode failures keep their
// kind; anything else becomes an export error carrying msg.
func render(ctx context.Context, r Renderer, req meme.Request, msg string) ([]byte, error) {
	art, err := r.Compose(ctx, req)
	if err != nil {
		return nil, asExportError(err, msg)
	}
	data, err := art.PNG()
	if err != nil {
		return nil, asExportError(err, msg)
	}
	return data, nil
}

func asExportError(err error, msg string) error {
	var me *meme.Error
	if errors.As(err, &me) && me.Kind != meme.KindExport {
		return err
	}
	return meme.NewError(meme.KindExport, msg, err)
}
