package chat

import "os"

// Gemini Model IDs
//
// | Model Name              | API Model ID             | Use Case                       |
// |-------------------------|--------------------------|--------------------------------|
// | Gemini 2.5 Flash        | gemini-2.5-flash         | Captions: fast, multimodal     |
// | Gemini 2.5 Flash-Lite   | gemini-2.5-flash-lite    | Captions: lowest cost          |
// | Gemini 2.5 Flash Image  | gemini-2.5-flash-image   | Image edits                    |
// | Gemini 3 Pro Image      | gemini-3-pro-image-preview | Image edits, higher fidelity |
const (
	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashLite is for high-throughput, lowest cost.
	ModelGemini25FlashLite = "gemini-2.5-flash-lite"

	// ModelGemini25FlashImage edits and generates images.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"

	// ModelGemini3ProImage is for advanced image generation/edit.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
)

// DefaultTextModel writes captions. Override with MEME_TEXT_MODEL.
const DefaultTextModel = ModelGemini25Flash

// DefaultImageModel performs edits. Override with MEME_IMAGE_MODEL.
const DefaultImageModel = ModelGemini25FlashImage

// TextModelName returns the caption model, resolved from:
// 1. MEME_TEXT_MODEL environment variable (if set)
// 2. Default: gemini-2.5-flash
func TextModelName() string {
	if env := os.Getenv("MEME_TEXT_MODEL"); env != "" {
		return env
	}
	return DefaultTextModel
}

// ImageModelName returns the image edit model, resolved from:
// 1. MEME_IMAGE_MODEL environment variable (if set)
// 2. Default: gemini-2.5-flash-image
func ImageModelName() string {
	if env := os.Getenv("MEME_IMAGE_MODEL"); env != "" {
		return env
	}
	return DefaultImageModel
}
