package studio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fpang/meme-magic/internal/assets"
	"github.com/fpang/meme-magic/internal/export"
	"github.com/fpang/meme-magic/internal/feed"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/rs/zerolog/log"
)

// Default timings.
const (
	DefaultServiceTimeout = 120 * time.Second
	DefaultAdDelay        = 3 * time.Second
)

const (
	msgLoadFailed     = "Failed to load image."
	msgServiceMissing = "Caption service is not configured. Set GEMINI_API_KEY."
	msgDownloadFailed = "Failed to download image."
	msgPrepareFailed  = "Failed to prepare share."
	msgPublishFailed  = "Failed to publish meme."
)

// CaptionService generates captions and edits images. *chat.Service
// satisfies it.
type CaptionService interface {
	GenerateCaptions(ctx context.Context, image []byte, mimeType, stylePrompt string) ([]string, error)
	GenerateSingleCaption(ctx context.Context, image []byte, mimeType, stylePrompt string) (string, error)
	EditImage(ctx context.Context, image []byte, mimeType, prompt string) ([]byte, string, error)
}

// Config wires a Studio. Service, Sharer and Clipboard may be nil.
type Config struct {
	Service        CaptionService
	Loader         *meme.Loader
	Renderer       export.Renderer
	Feed           *feed.Store
	Sharer         export.Sharer
	Clipboard      export.Clipboard
	ServiceTimeout time.Duration
	AdDelay        time.Duration
}

// Studio serializes all state transitions behind one mutex. Slow calls run
// with the lock released and re-enter through the Complete transitions.
type Studio struct {
	mu    sync.Mutex
	state *State

	service   CaptionService
	loader    *meme.Loader
	renderer  export.Renderer
	feed      *feed.Store
	publisher *export.Publisher
	sharer    export.Sharer
	clipboard export.Clipboard

	serviceTimeout time.Duration
	adDelay        time.Duration

	now       func() time.Time
	afterFunc func(time.Duration, func())
}

// New creates a Studio with an empty editor.
func New(cfg Config) *Studio {
	if cfg.Feed == nil {
		cfg.Feed = feed.NewStore()
	}
	if cfg.Loader == nil {
		cfg.Loader = meme.NewLoader()
	}
	if cfg.ServiceTimeout <= 0 {
		cfg.ServiceTimeout = DefaultServiceTimeout
	}
	if cfg.AdDelay <= 0 {
		cfg.AdDelay = DefaultAdDelay
	}
	return &Studio{
		state:          NewState(),
		service:        cfg.Service,
		loader:         cfg.Loader,
		renderer:       cfg.Renderer,
		feed:           cfg.Feed,
		publisher:      export.NewPublisher(cfg.Feed),
		sharer:         cfg.Sharer,
		clipboard:      cfg.Clipboard,
		serviceTimeout: cfg.ServiceTimeout,
		adDelay:        cfg.AdDelay,
		now:            time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Snapshot returns the current state.
func (s *Studio) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot(s.now())
}

// SelectUpload makes uploaded bytes the base image.
func (s *Studio) SelectUpload(data []byte, mimeType string) error {
	if len(data) == 0 {
		return meme.NewError(meme.KindValidation, "Uploaded file is empty.", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectUpload(data, mimeType)
	log.Info().Int("bytes", len(data)).Str("mime_type", mimeType).Msg("Image uploaded")
	return nil
}

// SelectTemplate makes a template URI the base image.
func (s *Studio) SelectTemplate(uri string) error {
	if uri == "" {
		return meme.NewError(meme.KindValidation, "Template URL is empty.", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectTemplate(uri)
	log.Info().Str("uri", uri).Msg("Template selected")
	return nil
}

// GenerateCaptions replaces the caption list with a fresh batch computed from
// the base image.
func (s *Studio) GenerateCaptions(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	st, err := s.state.BeginCaptions(s.now())
	base := s.state.Base()
	stylePrompt := assets.StylePrompt(s.state.captionStyle)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var captions []string
	err = s.callService(ctx, base, msgCaptionsFailed, func(ctx context.Context, data []byte, mimeType string) error {
		var err error
		captions, err = s.service.GenerateCaptions(ctx, data, mimeType, stylePrompt)
		return err
	})

	s.mu.Lock()
	applied := s.state.CompleteCaptions(st, captions, err, s.now())
	s.mu.Unlock()
	if !applied {
		log.Debug().Msg("Discarding stale caption batch")
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(captions)).Dur("duration", time.Since(start)).Msg("Captions generated")
	return captions, nil
}

// RegenerateCaption replaces caption i only.
func (s *Studio) RegenerateCaption(ctx context.Context, i int) (string, error) {
	s.mu.Lock()
	st, err := s.state.BeginRegenerate(i, s.now())
	base := s.state.Base()
	stylePrompt := assets.StylePrompt(s.state.captionStyle)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	var text string
	err = s.callService(ctx, base, msgRegenerateFailed, func(ctx context.Context, data []byte, mimeType string) error {
		var err error
		text, err = s.service.GenerateSingleCaption(ctx, data, mimeType, stylePrompt)
		return err
	})

	s.mu.Lock()
	applied := s.state.CompleteRegenerate(st, i, text, err, s.now())
	s.mu.Unlock()
	if !applied {
		log.Debug().Int("index", i).Msg("Discarding stale caption regeneration")
		return "", ErrStale
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// EditImage applies a text-prompted AI edit to the base image. The result
// becomes the active image; captions are kept.
func (s *Studio) EditImage(ctx context.Context, prompt string) error {
	s.mu.Lock()
	st, err := s.state.BeginEdit(prompt, s.now())
	base := s.state.Base()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	start := time.Now()
	var edited []byte
	var mimeType string
	err = s.callService(ctx, base, msgEditFailed, func(ctx context.Context, data []byte, mt string) error {
		var err error
		edited, mimeType, err = s.service.EditImage(ctx, data, mt, prompt)
		return err
	})

	s.mu.Lock()
	applied := s.state.CompleteEdit(st, edited, mimeType, err, s.now())
	s.mu.Unlock()
	if !applied {
		log.Debug().Msg("Discarding stale image edit")
		return ErrStale
	}
	if err != nil {
		return err
	}
	log.Info().Int("bytes", len(edited)).Dur("duration", time.Since(start)).Msg("Image edited")
	return nil
}

// callService fetches the base image and runs fn under the service timeout.
// Errors outside the pipeline taxonomy become service errors carrying msg.
func (s *Studio) callService(ctx context.Context, base meme.ImageSource, msg string, fn func(context.Context, []byte, string) error) error {
	if s.service == nil {
		return meme.NewError(meme.KindService, msgServiceMissing, nil)
	}
	data, mimeType, err := s.loader.Fetch(ctx, base)
	if err != nil {
		return meme.NewError(meme.KindDecode, msgLoadFailed, err)
	}
	if sniffed := http.DetectContentType(data); !strings.HasPrefix(sniffed, "image/") {
		return meme.NewError(meme.KindDecode, msgLoadFailed, fmt.Errorf("source content is %s, not an image", sniffed))
	}

	ctx, cancel := context.WithTimeout(ctx, s.serviceTimeout)
	defer cancel()
	if err := fn(ctx, data, mimeType); err != nil {
		var me *meme.Error
		if errors.As(err, &me) {
			return err
		}
		return meme.NewError(meme.KindService, msg, err)
	}
	return nil
}

// SelectCaption picks the caption to render; empty text clears it.
func (s *Studio) SelectCaption(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectCaption(text)
}

// SetStyle replaces the text style.
func (s *Studio) SetStyle(style meme.TextStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SetStyle(style)
}

// SetCaptionStyle picks the caption tone preset.
func (s *Studio) SetCaptionStyle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SetCaptionStyle(id)
}

// SetView switches between the editor and the feed.
func (s *Studio) SetView(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SetView(v)
}

// RemoveWatermark hides the watermark immediately.
func (s *Studio) RemoveWatermark() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Current().IsNone() {
		return meme.ErrNoImage
	}
	s.state.RemoveWatermark(s.now())
	return nil
}

// WatchAd plays the simulated rewarded ad. The watermark is removed once the
// ad delay has elapsed, unless the image changed in the meantime.
func (s *Studio) WatchAd() error {
	s.mu.Lock()
	st, err := s.state.BeginAd(s.now())
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.afterFunc(s.adDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.state.CompleteAd(st, s.now()) {
			log.Debug().Msg("Discarding stale ad completion")
			return
		}
		log.Info().Msg("Watermark removed after ad")
	})
	return nil
}

// Request returns the compose request for the current state.
func (s *Studio) Request() (meme.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Request()
}

// Preview composes the current meme.
func (s *Studio) Preview(ctx context.Context) (*meme.Artifact, error) {
	req, err := s.Request()
	if err != nil {
		return nil, err
	}
	return s.renderer.Compose(ctx, req)
}

// DownloadBytes composes the current meme as PNG bytes.
func (s *Studio) DownloadBytes(ctx context.Context) ([]byte, error) {
	req, err := s.Request()
	if err != nil {
		return nil, s.fail(err, msgDownloadFailed)
	}
	data, err := export.DownloadBytes(ctx, s.renderer, req)
	if err != nil {
		return nil, s.fail(err, msgDownloadFailed)
	}
	return data, nil
}

// Download composes the current meme and writes it to path.
func (s *Studio) Download(ctx context.Context, path string) (string, error) {
	req, err := s.Request()
	if err != nil {
		return "", s.fail(err, msgDownloadFailed)
	}
	written, err := export.Download(ctx, s.renderer, req, path)
	if err != nil {
		return "", s.fail(err, msgDownloadFailed)
	}
	return written, nil
}

// Share offers the current meme to the native share target, falling back to
// the clipboard.
func (s *Studio) Share(ctx context.Context) (export.ShareResult, error) {
	req, err := s.Request()
	if err != nil {
		return export.ShareResult{}, s.fail(err, msgPrepareFailed)
	}
	res, err := export.Share(ctx, s.renderer, req, s.sharer, s.clipboard)
	if err != nil {
		return export.ShareResult{}, s.fail(err, msgPrepareFailed)
	}
	if res.Notice != "" {
		s.mu.Lock()
		s.state.Notify(res.Notice, s.now())
		s.mu.Unlock()
	}
	return res, nil
}

// Publish prepends the current meme to the feed and switches to the feed view.
func (s *Studio) Publish(ctx context.Context) (feed.Post, error) {
	s.mu.Lock()
	req, err := s.state.Request()
	if err == nil && s.state.loading.Publishing {
		err = ErrBusy
	}
	if err == nil {
		s.state.SetPublishing(true)
	}
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return feed.Post{}, err
		}
		return feed.Post{}, s.fail(err, msgPublishFailed)
	}

	post, err := s.publisher.Publish(ctx, s.renderer, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetPublishing(false)
	if err != nil {
		s.state.Fail(meme.UserMessage(err, msgPublishFailed), s.now())
		return feed.Post{}, err
	}
	_ = s.state.SetView(ViewFeed)
	s.state.Notify(export.NoticePublished, s.now())
	log.Info().Str("post_id", post.ID).Int("feed_size", s.feed.Len()).Msg("Meme published")
	return post, nil
}

// Feed lists the community feed, newest first.
func (s *Studio) Feed() []feed.Post {
	return s.feed.List()
}

// ToggleLike flips the like flag of a feed post.
func (s *Studio) ToggleLike(id string) (feed.Post, error) {
	return s.feed.ToggleLike(id)
}

// Post looks up one feed post.
func (s *Studio) Post(id string) (feed.Post, error) {
	return s.feed.Get(id)
}

// fail records err in the error banner and returns it.
func (s *Studio) fail(err error, fallback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Fail(meme.UserMessage(err, fallback), s.now())
	return err
}
