// Package boot provides the startup wiring shared by the meme-magic binaries.
//
// Every binary needs some subset of: the rendering pipeline (fonts, loader,
// watermark logo), the optional Gemini caption service, export targets and
// startup logging. Each main() is a short composition of these helpers.
package boot

import (
	"context"
	"time"

	"github.com/fpang/meme-magic/internal/assets"
	"github.com/fpang/meme-magic/internal/chat"
	"github.com/fpang/meme-magic/internal/cli"
	"github.com/fpang/meme-magic/internal/export"
	"github.com/fpang/meme-magic/internal/feed"
	"github.com/fpang/meme-magic/internal/logging"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/fpang/meme-magic/internal/studio"
	"github.com/rs/zerolog/log"
)

// Environment variables read at startup.
const (
	EnvFontDir        = "MEME_FONT_DIR"
	EnvWatermarkLogo  = "MEME_WATERMARK_LOGO"
	EnvServiceTimeout = "MEME_SERVICE_TIMEOUT"
	EnvAdDelay        = "MEME_AD_DELAY"
	EnvShareCommand   = "MEME_SHARE_COMMAND"
)

// embeddedLogo names the built-in watermark glyph in startup logs.
const embeddedLogo = "embedded"

// Pipeline is the rendering stack: one loader and font book shared by the
// composer and the watermark.
type Pipeline struct {
	Loader   *meme.Loader
	Fonts    *meme.FontBook
	Composer *meme.Composer
	Logo     string
}

// InitPipeline builds the composer from MEME_FONT_DIR and MEME_WATERMARK_LOGO.
func InitPipeline() Pipeline {
	loader := meme.NewLoader()
	fonts := meme.NewFontBook(logging.EnvOrDefault(EnvFontDir, ""))
	logo, name := logoFromEnv(loader)
	log.Debug().Str("logo", name).Msg("Rendering pipeline initialized")
	return Pipeline{
		Loader:   loader,
		Fonts:    fonts,
		Composer: meme.NewComposer(loader, fonts, meme.NewWatermarker(logo, fonts)),
		Logo:     name,
	}
}

// logoFromEnv returns the configured watermark glyph, falling back to the
// embedded asset.
func logoFromEnv(loader *meme.Loader) (meme.LogoSource, string) {
	if uri := logging.EnvOrDefault(EnvWatermarkLogo, ""); uri != "" {
		return meme.URILogo{Loader: loader, URI: uri}, uri
	}
	return meme.BytesLogo(assets.WatermarkLogo), embeddedLogo
}

// InitCaptionServiceOptional connects to Gemini if a key is configured.
// Returns nil (with a warning) otherwise, leaving compose and export usable.
func InitCaptionServiceOptional(ctx context.Context) *chat.Service {
	svc, err := cli.NewCaptionService(ctx)
	if err != nil {
		log.Warn().Err(err).Msg(cli.ValidationHint(err) + ". Caption generation and image edits disabled")
		return nil
	}
	return svc
}

// InitSharer returns the share target configured by MEME_SHARE_COMMAND,
// optionally behind a native confirmation dialog. Returns nil if no command
// is configured.
func InitSharer(confirm bool) export.Sharer {
	command := logging.EnvOrDefault(EnvShareCommand, "")
	if command == "" {
		log.Debug().Msg("No share command configured, sharing falls back to the clipboard")
		return nil
	}
	var sharer export.Sharer = export.CommandSharer{Command: command}
	if confirm {
		sharer = export.DialogSharer{Next: sharer}
	}
	return sharer
}

// NewStudio wires an editor session over the pipeline. svc and sharer may
// be nil. The feed is seeded with the demo posts.
func NewStudio(p Pipeline, svc *chat.Service, sharer export.Sharer) *studio.Studio {
	cfg := studio.Config{
		Loader:         p.Loader,
		Renderer:       p.Composer,
		Feed:           feed.NewStore(feed.SeedPosts(time.Now())...),
		Sharer:         sharer,
		Clipboard:      export.NewSystemClipboard(),
		ServiceTimeout: logging.EnvDuration(EnvServiceTimeout, studio.DefaultServiceTimeout),
		AdDelay:        logging.EnvDuration(EnvAdDelay, studio.DefaultAdDelay),
	}
	if svc != nil {
		cfg.Service = svc
	}
	return studio.New(cfg)
}

// StartupLog is a convenience wrapper for the startup logger, pre-filled with
// the pipeline configuration.
func StartupLog(name string, initStart time.Time, p Pipeline, svc *chat.Service) *logging.StartupLogger {
	return logging.NewStartupLogger(name).
		InitDuration(time.Since(initStart)).
		Model("text", chat.TextModelName()).
		Model("image", chat.ImageModelName()).
		Feature("captions", svc != nil).
		Config("watermark_logo", p.Logo).
		Config("font_dir", logging.EnvOrDefault(EnvFontDir, "embedded"))
}
