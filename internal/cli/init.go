package cli

import (
	"context"
	"fmt"

	"github.com/fpang/meme-magic/internal/auth"
	"github.com/fpang/meme-magic/internal/chat"
	"github.com/rs/zerolog/log"
)

// NewCaptionService retrieves the API key, creates a Gemini client and
// validates the key against the text model.
func NewCaptionService(ctx context.Context) (*chat.Service, error) {
	apiKey, err := auth.GetAPIKey(ctx)
	if err != nil {
		return nil, &auth.ValidationError{Type: auth.ErrTypeNoKey, Message: "failed to retrieve API key", Err: err}
	}

	client, err := chat.NewGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	log.Debug().Msg("Gemini client initialized")

	if err := auth.ValidateAPIKey(ctx, client, chat.TextModelName()); err != nil {
		return nil, err
	}
	log.Info().Str("model", chat.TextModelName()).Msg("API key validation complete - caption service ready")

	return chat.NewService(client, chat.NewImageEditor(apiKey)), nil
}

// InitCaptionService is NewCaptionService for commands that cannot continue
// without the service. It exits fatally on failure.
func InitCaptionService(ctx context.Context) *chat.Service {
	svc, err := NewCaptionService(ctx)
	if err != nil {
		HandleValidationError(err)
	}
	return svc
}
