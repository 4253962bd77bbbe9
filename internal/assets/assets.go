package assets

import (
	_ "embed"
	"strings"
)

// WatermarkLogo is the PNG glyph drawn beside the "Meme Magic" watermark label.
//
//go:embed images/watermark-logo.png
var WatermarkLogo []byte

// CaptionStyle is a caption tone preset.
type CaptionStyle struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// DefaultCaptionStyle is the preset used when none or an unknown one is chosen.
const DefaultCaptionStyle = "funny"

// CaptionStyles lists the tone presets in display order.
var CaptionStyles = []CaptionStyle{
	{ID: "funny", Label: "😂 Funny", Prompt: "funny and witty"},
	{ID: "sarcastic", Label: "🙄 Sarcastic", Prompt: "sarcastic, cynical, and dry"},
	{ID: "wholesome", Label: "🥰 Wholesome", Prompt: "wholesome, heartwarming, and positive"},
	{ID: "edgy", Label: "😎 Edgy", Prompt: "edgy, bold, and slightly dark"},
	{ID: "intellectual", Label: "🧐 Intellectual", Prompt: "intellectual, verbose, and overly logical"},
}

// LookupCaptionStyle returns the preset with the given id.
func LookupCaptionStyle(id string) (CaptionStyle, bool) {
	for _, s := range CaptionStyles {
		if s.ID == id {
			return s, true
		}
	}
	return CaptionStyle{}, false
}

// StylePrompt returns the prompt modifier for id, falling back to the
// default preset for unknown ids.
func StylePrompt(id string) string {
	if s, ok := LookupCaptionStyle(id); ok {
		return s.Prompt
	}
	s, _ := LookupCaptionStyle(DefaultCaptionStyle)
	return s.Prompt
}

// Template is a stock meme image from memegen.link.
type Template struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

const memegenBase = "https://api.memegen.link/images/"

func memegen(slug string) string {
	return memegenBase + slug + "/_/_.png"
}

// Templates is the stock template catalog.
var Templates = []Template{
	{ID: 1, Name: "Doge", URL: memegen("doge")},
	{ID: 2, Name: "Distracted BF", URL: memegen("db")},
	{ID: 3, Name: "Success Kid", URL: memegen("success")},
	{ID: 4, Name: "Woman Yelling at Cat", URL: memegen("woman-cat")},
	{ID: 5, Name: "Surprised Pikachu", URL: memegen("pika")},
	{ID: 6, Name: "Thinking Guy", URL: memegen("rollsafe")},
	{ID: 7, Name: "Drake Hotline", URL: memegen("drake")},
	{ID: 8, Name: "Two Buttons", URL: memegen("dgb")},
	{ID: 9, Name: "Change My Mind", URL: memegen("cmm")},
	{ID: 10, Name: "Disaster Girl", URL: memegen("disaster")},
	{ID: 11, Name: "Batman Slapping", URL: memegen("bats")},
}

// LookupTemplate finds a template by numeric id.
func LookupTemplate(id int) (Template, bool) {
	for _, t := range Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// FindTemplate finds a template by case-insensitive name or memegen slug,
// e.g. "doge", "Success Kid" or "woman-cat".
func FindTemplate(name string) (Template, bool) {
	name = strings.TrimSpace(name)
	for _, t := range Templates {
		if strings.EqualFold(t.Name, name) || strings.EqualFold(t.URL, memegen(strings.ToLower(name))) {
			return t, true
		}
	}
	return Template{}, false
}
