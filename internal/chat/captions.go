package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/fpang/meme-magic/internal/assets"
	"github.com/fpang/meme-magic/internal/jsonutil"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// User-facing messages for service failures.
const (
	msgCaptionsFailed = "Failed to generate captions. Please try again."
	msgSingleFailed   = "Could not regenerate specific caption."
	msgEditFailed     = "Failed to edit the image. Please try again."
)

// contentGenerator is the part of genai.Models the service calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Service is the caption and edit service backed by Gemini. Captions go
// through the genai SDK; edits go through the REST image client because they
// need image output.
type Service struct {
	models    contentGenerator
	textModel string
	editor    *ImageEditor
}

// NewService creates a Service from a genai client and an image editor.
func NewService(client *genai.Client, editor *ImageEditor) *Service {
	return &Service{
		models:    client.Models,
		textModel: TextModelName(),
		editor:    editor,
	}
}

// captionListSchema constrains batch responses to an array of strings.
var captionListSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

// GenerateCaptions asks for a batch of captions in the given tone.
func (s *Service) GenerateCaptions(ctx context.Context, image []byte, mimeType, stylePrompt string) ([]string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(assets.CaptionSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    captionListSchema,
		Temperature:       genai.Ptr[float32](1.0),
	}

	text, err := s.generate(ctx, image, mimeType, assets.RenderCaptionsPrompt(stylePrompt), config)
	if err != nil {
		return nil, meme.NewError(meme.KindService, msgCaptionsFailed, err)
	}

	captions, err := jsonutil.ParseStringList(text)
	if err != nil {
		log.Debug().Err(err).Str("response", truncateString(text, 300)).Msg("Unparseable caption response")
		return nil, meme.NewError(meme.KindService, msgCaptionsFailed, fmt.Errorf("failed to parse captions: %w", err))
	}
	if len(captions) == 0 {
		return nil, meme.NewError(meme.KindService, msgCaptionsFailed, fmt.Errorf("model returned no captions"))
	}
	if len(captions) > assets.CaptionCount {
		captions = captions[:assets.CaptionCount]
	}

	log.Info().
		Int("count", len(captions)).
		Str("style", stylePrompt).
		Msg("Captions generated")
	return captions, nil
}

// GenerateSingleCaption asks for one replacement caption in the given tone.
func (s *Service) GenerateSingleCaption(ctx context.Context, image []byte, mimeType, stylePrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(assets.CaptionSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](1.2),
	}

	text, err := s.generate(ctx, image, mimeType, assets.RenderSingleCaptionPrompt(stylePrompt), config)
	if err != nil {
		return "", meme.NewError(meme.KindService, msgSingleFailed, err)
	}

	caption := jsonutil.CleanText(text)
	if caption == "" {
		return "", meme.NewError(meme.KindService, msgSingleFailed, fmt.Errorf("model returned an empty caption"))
	}
	return caption, nil
}

// EditImage applies a natural-language edit and returns the new image bytes.
func (s *Service) EditImage(ctx context.Context, image []byte, mimeType, prompt string) ([]byte, string, error) {
	if s.editor == nil {
		return nil, "", meme.NewError(meme.KindService, msgEditFailed, fmt.Errorf("image editing is not configured"))
	}
	result, err := s.editor.EditImage(ctx, image, mimeType, prompt, assets.EditSystemPrompt)
	if err != nil {
		return nil, "", meme.NewError(meme.KindService, msgEditFailed, err)
	}
	return result.ImageData, result.ImageMIMEType, nil
}

// generate sends the image and prompt as one user turn and returns the text.
func (s *Service) generate(ctx context.Context, image []byte, mimeType, prompt string, config *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	log.Debug().
		Str("model", s.textModel).
		Int("image_bytes", len(image)).
		Int("prompt_length", len(prompt)).
		Msg("Starting Gemini API call for captions")

	start := time.Now()
	resp, err := s.models.GenerateContent(ctx, s.textModel, contents, config)
	duration := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Failed to generate captions from Gemini")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("received empty response from Gemini API")
	}

	text := resp.Text()
	log.Debug().
		Int("response_length", len(text)).
		Dur("duration", duration).
		Msg("Gemini API response received")
	return text, nil
}
