// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at compile time.
package assets

import (
	"bytes"
	_ "embed"
	"text/template"
)

// CaptionCount is the number of captions requested per generation.
const CaptionCount = 5

// CaptionSystemPrompt is the system instruction for caption generation.
//
//go:embed prompts/caption-system.txt
var CaptionSystemPrompt string

// EditSystemPrompt is the system instruction sent with image edit requests.
//
//go:embed prompts/edit-system.txt
var EditSystemPrompt string

//go:embed prompts/captions.txt
var captionsTemplate string

//go:embed prompts/caption-single.txt
var singleCaptionTemplate string

// template.Must panics on malformed templates at program startup rather than at call time.
var (
	captionsTmpl      = template.Must(template.New("captions").Parse(captionsTemplate))
	singleCaptionTmpl = template.Must(template.New("single").Parse(singleCaptionTemplate))
)

// CaptionPromptData holds the dynamic data injected into caption prompts.
type CaptionPromptData struct {
	// Style is the tone modifier, e.g. "sarcastic, cynical, and dry".
	Style string
	Count int
}

// RenderCaptionsPrompt renders the batch caption prompt for the given tone.
func RenderCaptionsPrompt(style string) string {
	return renderTemplate(captionsTmpl, CaptionPromptData{Style: style, Count: CaptionCount})
}

// RenderSingleCaptionPrompt renders the single caption prompt for the given tone.
func RenderSingleCaptionPrompt(style string) string {
	return renderTemplate(singleCaptionTmpl, CaptionPromptData{Style: style, Count: 1})
}

func renderTemplate(tmpl *template.Template, data CaptionPromptData) string {
	var buf bytes.Buffer
	// The templates only reference plain fields, so Execute cannot fail.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
