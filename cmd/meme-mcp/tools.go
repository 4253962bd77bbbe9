package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fpang/meme-magic/internal/assets"
	"github.com/fpang/meme-magic/internal/boot"
	"github.com/fpang/meme-magic/internal/feed"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/fpang/meme-magic/internal/studio"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// toolset holds the collaborators shared by every tool call. Each call runs
// in its own editor session.
type toolset struct {
	pipeline boot.Pipeline
	service  studio.CaptionService
	timeout  time.Duration
}

func newServer(t *toolset) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "meme-magic", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compose_meme",
		Description: "Compose a meme PNG from a stock template or local image with a bottom caption. Pass caption, or set generate to let Gemini write one.",
	}, t.composeMeme)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_captions",
		Description: "Suggest five short meme captions for a stock template or local image.",
	}, t.generateCaptions)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_templates",
		Description: "List the stock meme templates with their ids, names and image URLs.",
	}, t.listTemplates)

	return server
}

// sourceInput selects the image a tool works on.
type sourceInput struct {
	Template     string `json:"template,omitempty" jsonschema:"stock template name, slug or id (see list_templates), or an image URL"`
	ImagePath    string `json:"image_path,omitempty" jsonschema:"path to a local image file"`
	CaptionStyle string `json:"caption_style,omitempty" jsonschema:"tone of generated captions: funny, sarcastic, wholesome, edgy or intellectual"`
}

type composeInput struct {
	Template     string  `json:"template,omitempty" jsonschema:"stock template name, slug or id (see list_templates), or an image URL"`
	ImagePath    string  `json:"image_path,omitempty" jsonschema:"path to a local image file"`
	CaptionStyle string  `json:"caption_style,omitempty" jsonschema:"tone of generated captions: funny, sarcastic, wholesome, edgy or intellectual"`
	Caption      string  `json:"caption,omitempty" jsonschema:"caption drawn at the bottom of the image"`
	Generate     bool    `json:"generate,omitempty" jsonschema:"generate the caption with Gemini when caption is empty"`
	Font         string  `json:"font,omitempty" jsonschema:"caption font family, e.g. Impact"`
	Size         float64 `json:"size,omitempty" jsonschema:"caption size multiplier between 0.5 and 2.5"`
	TextColor    string  `json:"text_color,omitempty" jsonschema:"caption fill color as #RRGGBB"`
	StrokeColor  string  `json:"stroke_color,omitempty" jsonschema:"caption outline color as #RRGGBB"`
	NoWatermark  bool    `json:"no_watermark,omitempty" jsonschema:"omit the Meme Magic watermark"`
}

func (in composeInput) source() sourceInput {
	return sourceInput{Template: in.Template, ImagePath: in.ImagePath, CaptionStyle: in.CaptionStyle}
}

type listTemplatesInput struct{}

// session opens a fresh editor on the requested image.
func (t *toolset) session(in sourceInput) (*studio.Studio, error) {
	st := studio.New(studio.Config{
		Service:        t.service,
		Loader:         t.pipeline.Loader,
		Renderer:       t.pipeline.Composer,
		Feed:           feed.NewStore(),
		ServiceTimeout: t.timeout,
	})

	switch {
	case in.ImagePath != "":
		data, err := os.ReadFile(in.ImagePath)
		if err != nil {
			return nil, meme.NewError(meme.KindDecode, "Failed to load image.", fmt.Errorf("read %s: %w", in.ImagePath, err))
		}
		if err := st.SelectUpload(data, http.DetectContentType(data)); err != nil {
			return nil, err
		}
	case in.Template != "":
		if err := st.SelectTemplate(templateURL(in.Template)); err != nil {
			return nil, err
		}
	default:
		return nil, meme.ErrNoImage
	}

	if in.CaptionStyle != "" {
		if err := st.SetCaptionStyle(in.CaptionStyle); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (t *toolset) composeMeme(ctx context.Context, req *mcp.CallToolRequest, in composeInput) (*mcp.CallToolResult, any, error) {
	st, err := t.session(in.source())
	if err != nil {
		return nil, nil, toolError(err)
	}

	style := meme.DefaultStyle()
	if in.Font != "" {
		style.FontFamily = in.Font
	}
	if in.Size != 0 {
		style.SizeMultiplier = in.Size
	}
	if in.TextColor != "" {
		style.TextColor = in.TextColor
	}
	if in.StrokeColor != "" {
		style.StrokeColor = in.StrokeColor
	}
	if err := st.SetStyle(style); err != nil {
		return nil, nil, toolError(err)
	}

	caption := in.Caption
	if caption == "" && in.Generate {
		captions, err := st.GenerateCaptions(ctx)
		if err != nil {
			return nil, nil, toolError(err)
		}
		caption = captions[0]
	}
	st.SelectCaption(caption)

	if in.NoWatermark {
		if err := st.RemoveWatermark(); err != nil {
			return nil, nil, toolError(err)
		}
	}

	data, err := st.DownloadBytes(ctx)
	if err != nil {
		return nil, nil, toolError(err)
	}
	log.Info().Int("bytes", len(data)).Bool("generated", in.Caption == "" && in.Generate).Msg("compose_meme complete")

	summary := "Composed meme"
	if caption != "" {
		summary += fmt.Sprintf(" with caption %q", caption)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{Data: data, MIMEType: meme.PNGMIMEType},
			&mcp.TextContent{Text: summary},
		},
	}, nil, nil
}

func (t *toolset) generateCaptions(ctx context.Context, req *mcp.CallToolRequest, in sourceInput) (*mcp.CallToolResult, any, error) {
	st, err := t.session(in)
	if err != nil {
		return nil, nil, toolError(err)
	}
	captions, err := st.GenerateCaptions(ctx)
	if err != nil {
		return nil, nil, toolError(err)
	}
	var b strings.Builder
	for i, c := range captions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}, nil, nil
}

func (t *toolset) listTemplates(ctx context.Context, req *mcp.CallToolRequest, in listTemplatesInput) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(assets.Templates, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode templates: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// templateURL maps a catalog name, slug or id to its URL. Anything else is
// used as a URL or file path.
func templateURL(ref string) string {
	if id, err := strconv.Atoi(ref); err == nil {
		if t, ok := assets.LookupTemplate(id); ok {
			return t.URL
		}
	}
	if t, ok := assets.FindTemplate(ref); ok {
		return t.URL
	}
	return ref
}

// toolError surfaces the user-facing message to the calling model.
func toolError(err error) error {
	return errors.New(meme.UserMessage(err, err.Error()))
}
