package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fpang/meme-magic/internal/assets"
	"github.com/fpang/meme-magic/internal/boot"
	"github.com/fpang/meme-magic/internal/chat"
	"github.com/fpang/meme-magic/internal/cli"
	"github.com/fpang/meme-magic/internal/export"
	"github.com/fpang/meme-magic/internal/logging"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/fpang/meme-magic/internal/studio"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// options holds the parsed flags of one run.
type options struct {
	image        string
	template     string
	choose       bool
	caption      string
	generate     bool
	captionStyle string
	pick         int
	edit         string
	style        meme.TextStyle
	noWatermark  bool
	out          string
	saveDialog   bool
	share        bool
}

var opts = options{style: meme.DefaultStyle()}

var rootCmd = &cobra.Command{
	Use:   "meme-cli",
	Short: "Compose a captioned, watermarked meme from the command line",
	Long: `Meme CLI composes a meme from an image file or a stock template, with a
caption you provide or one generated by Gemini, and saves it as a PNG.

Examples:
  meme-cli --template drake --caption "me ignoring the linter" --out drake.png
  meme-cli --image cat.jpg --generate --caption-style sarcastic
  meme-cli --image cat.jpg --generate --pick 3 --no-watermark --share
  meme-cli --image cat.jpg --edit "add sunglasses" --caption "deal with it"
  meme-cli --choose --caption "monday" --save-dialog`,
	Run: runMain,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&opts.image, "image", "i", "", "Image file to caption")
	f.StringVarP(&opts.template, "template", "t", "", "Stock template name, id, URL or file path")
	f.BoolVar(&opts.choose, "choose", false, "Pick the image with a native file dialog")
	f.StringVarP(&opts.caption, "caption", "c", "", "Caption text")
	f.BoolVarP(&opts.generate, "generate", "g", false, "Generate captions with Gemini")
	f.StringVar(&opts.captionStyle, "caption-style", assets.DefaultCaptionStyle, "Tone of generated captions (funny, sarcastic, wholesome, edgy, intellectual)")
	f.IntVar(&opts.pick, "pick", 0, "Use generated caption N (1-based) instead of prompting")
	f.StringVar(&opts.edit, "edit", "", "Edit the image with Gemini before captioning (e.g. 'make it retro')")
	f.StringVar(&opts.style.FontFamily, "font", opts.style.FontFamily, "Caption font family")
	f.Float64Var(&opts.style.SizeMultiplier, "size", opts.style.SizeMultiplier, "Caption size multiplier (0.5-2.5)")
	f.StringVar(&opts.style.TextColor, "color", opts.style.TextColor, "Caption fill color (#RRGGBB)")
	f.StringVar(&opts.style.StrokeColor, "stroke", opts.style.StrokeColor, "Caption outline color (#RRGGBB)")
	f.BoolVar(&opts.noWatermark, "no-watermark", false, "Omit the Meme Magic watermark")
	f.StringVarP(&opts.out, "out", "o", export.DownloadFileName, "Output PNG path or directory")
	f.BoolVar(&opts.saveDialog, "save-dialog", false, "Choose the output path with a native save dialog")
	f.BoolVar(&opts.share, "share", false, "Share the meme (or copy it to the clipboard) after saving")
	rootCmd.MarkFlagsMutuallyExclusive("image", "template", "choose")
	rootCmd.MarkFlagsMutuallyExclusive("caption", "generate")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()
	ctx := context.Background()

	pipeline := boot.InitPipeline()
	var svc *chat.Service
	if opts.generate || opts.edit != "" {
		svc = cli.InitCaptionService(ctx)
	}
	st := boot.NewStudio(pipeline, svc, boot.InitSharer(false))
	boot.StartupLog("meme-cli", initStart, pipeline, svc).Log()

	if opts.choose {
		path, err := cli.ChooseImageFile()
		if err != nil {
			if errors.Is(err, cli.ErrPickCanceled) {
				log.Info().Msg("No image selected")
				return
			}
			log.Fatal().Err(err).Msg("Failed to choose image")
		}
		opts.image = path
	}

	if opts.saveDialog {
		path, err := export.ChooseSavePath(cli.ValidateAndResolveDirectory("."))
		if err != nil {
			if errors.Is(err, export.ErrSaveCanceled) {
				log.Info().Msg("Save canceled")
				return
			}
			log.Fatal().Err(err).Msg("Failed to choose output path")
		}
		opts.out = path
	}

	path, err := run(ctx, st, opts, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg(meme.UserMessage(err, "Failed to create meme"))
	}
	log.Info().Str("path", path).Msg("Done")
}

// run applies opts to st and writes the meme, returning the written path.
func run(ctx context.Context, st *studio.Studio, o options, in io.Reader, out io.Writer) (string, error) {
	if err := selectSource(st, o); err != nil {
		return "", err
	}
	if err := st.SetStyle(o.style); err != nil {
		return "", err
	}
	if err := st.SetCaptionStyle(o.captionStyle); err != nil {
		return "", err
	}

	if o.edit != "" {
		fmt.Fprintf(out, "Editing image: %s\n", o.edit)
		if err := st.EditImage(ctx, o.edit); err != nil {
			return "", err
		}
	}

	caption := o.caption
	if o.generate {
		captions, err := st.GenerateCaptions(ctx)
		if err != nil {
			return "", err
		}
		if o.pick > 0 {
			if o.pick > len(captions) {
				return "", fmt.Errorf("--pick %d out of range 1-%d", o.pick, len(captions))
			}
			caption = captions[o.pick-1]
		} else {
			caption, err = cli.PromptForCaption(captions, in, out)
			if err != nil {
				return "", err
			}
		}
	}
	st.SelectCaption(caption)

	if o.noWatermark {
		if err := st.RemoveWatermark(); err != nil {
			return "", err
		}
	}

	path, err := st.Download(ctx, o.out)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Saved %s\n", path)

	if o.share {
		res, err := st.Share(ctx)
		if err != nil {
			return path, err
		}
		switch res.Outcome {
		case export.OutcomeCanceled:
			fmt.Fprintln(out, "Share canceled")
		case export.OutcomeShared:
			fmt.Fprintln(out, "Shared")
		default:
			fmt.Fprintln(out, res.Notice)
		}
	}
	return path, nil
}

// selectSource loads --image bytes or resolves --template to a URI.
func selectSource(st *studio.Studio, o options) error {
	switch {
	case o.image != "":
		data, err := os.ReadFile(o.image)
		if err != nil {
			return meme.NewError(meme.KindDecode, "Failed to load image.", fmt.Errorf("read %s: %w", o.image, err))
		}
		return st.SelectUpload(data, http.DetectContentType(data))
	case o.template != "":
		return st.SelectTemplate(resolveTemplate(o.template))
	default:
		return meme.ErrNoImage
	}
}

// resolveTemplate maps a catalog name, slug or id to its URL. Anything else
// is used as a URL or file path.
func resolveTemplate(ref string) string {
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
