package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/meme-magic/internal/feed"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/google/uuid"
)

type fakeRenderer struct {
	err   error
	calls int
}

func (f *fakeRenderer) Compose(ctx context.Context, req meme.Request) (*meme.Artifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	return &meme.Artifact{Image: img, Width: 40, Height: 30, Watermarked: !req.WatermarkRemoved}, nil
}

type fakeSharer struct {
	available bool
	err       error
	got       *Payload
}

func (f *fakeSharer) Available() bool { return f.available }

func (f *fakeSharer) Share(ctx context.Context, p Payload) error {
	f.got = &p
	return f.err
}

type fakeClipboard struct {
	err error
	got []byte
}

func (f *fakeClipboard) WriteImage(ctx context.Context, data []byte) error {
	f.got = data
	return f.err
}

func decodesAsPNG(t *testing.T, data []byte) image.Config {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	return cfg
}

func TestDownloadToDirectory(t *testing.T) {
	dir := t.TempDir()
	path, err := Download(context.Background(), &fakeRenderer{}, meme.Request{}, dir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if want := filepath.Join(dir, DownloadFileName); path != want {
		t.Errorf("Download() path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg := decodesAsPNG(t, data); cfg.Width != 40 || cfg.Height != 30 {
		t.Errorf("saved image = %dx%d, want 40x30", cfg.Width, cfg.Height)
	}
}

func TestDownloadToFile(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "custom.png")
	got, err := Download(context.Background(), &fakeRenderer{}, meme.Request{}, want)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if got != want {
		t.Errorf("Download() path = %q, want %q", got, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestRenderErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind meme.ErrorKind
		wantMsg  string
	}{
		{name: "decode kept", err: meme.NewError(meme.KindDecode, "Failed to load image.", nil), wantKind: meme.KindDecode, wantMsg: "Failed to load image."},
		{name: "no image kept", err: meme.ErrNoImage, wantKind: meme.KindValidation, wantMsg: meme.ErrNoImage.Message},
		{name: "plain becomes export", err: errors.New("disk on fire"), wantKind: meme.KindExport, wantMsg: msgDownloadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DownloadBytes(context.Background(), &fakeRenderer{err: tt.err}, meme.Request{})
			if !meme.IsKind(err, tt.wantKind) {
				t.Errorf("DownloadBytes() error = %v, want kind %v", err, tt.wantKind)
			}
			if got := meme.UserMessage(err, ""); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestShare(t *testing.T) {
	shareErr := errors.New("share target crashed")
	clipErr := errors.New("no display")

	tests := []struct {
		name        string
		sharer      *fakeSharer
		clip        *fakeClipboard
		wantOutcome Outcome
		wantNotice  string
		wantErrMsg  string
		wantClip    bool
	}{
		{name: "shared", sharer: &fakeSharer{available: true}, clip: &fakeClipboard{}, wantOutcome: OutcomeShared},
		{name: "canceled", sharer: &fakeSharer{available: true, err: ErrShareCanceled}, clip: &fakeClipboard{}, wantOutcome: OutcomeCanceled},
		{name: "share fails, clipboard works", sharer: &fakeSharer{available: true, err: shareErr}, clip: &fakeClipboard{}, wantOutcome: OutcomeCopied, wantNotice: NoticeCopiedFallback, wantClip: true},
		{name: "share and clipboard fail", sharer: &fakeSharer{available: true, err: shareErr}, clip: &fakeClipboard{err: clipErr}, wantErrMsg: msgShareFailed, wantClip: true},
		{name: "unavailable, clipboard works", sharer: &fakeSharer{}, clip: &fakeClipboard{}, wantOutcome: OutcomeCopied, wantNotice: NoticeCopied, wantClip: true},
		{name: "unavailable, clipboard fails", sharer: &fakeSharer{}, clip: &fakeClipboard{err: clipErr}, wantErrMsg: msgShareCannotRun, wantClip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Share(context.Background(), &fakeRenderer{}, meme.Request{}, tt.sharer, tt.clip)
			if tt.wantErrMsg != "" {
				if !meme.IsKind(err, meme.KindExport) {
					t.Fatalf("Share() error = %v, want export error", err)
				}
				if msg := meme.UserMessage(err, ""); msg != tt.wantErrMsg {
					t.Errorf("UserMessage() = %q, want %q", msg, tt.wantErrMsg)
				}
			} else {
				if err != nil {
					t.Fatalf("Share() error = %v", err)
				}
				if got.Outcome != tt.wantOutcome || got.Notice != tt.wantNotice {
					t.Errorf("Share() = %+v, want outcome %q notice %q", got, tt.wantOutcome, tt.wantNotice)
				}
			}
			if (tt.clip.got != nil) != tt.wantClip {
				t.Errorf("clipboard written = %v, want %v", tt.clip.got != nil, tt.wantClip)
			}
		})
	}
}

func TestSharePayload(t *testing.T) {
	sharer := &fakeSharer{available: true}
	if _, err := Share(context.Background(), &fakeRenderer{}, meme.Request{}, sharer, nil); err != nil {
		t.Fatalf("Share() error = %v", err)
	}
	p := sharer.got
	if p == nil {
		t.Fatal("sharer was not called")
	}
	if p.FileName != "meme.png" || p.MIMEType != "image/png" || p.Title != "Meme Magic" || p.Text != ShareText {
		t.Errorf("payload = %+v", p)
	}
	decodesAsPNG(t, p.Data)
}

func TestShareWithoutCollaborators(t *testing.T) {
	_, err := Share(context.Background(), &fakeRenderer{}, meme.Request{}, nil, nil)
	if got := meme.UserMessage(err, ""); got != msgShareCannotRun {
		t.Errorf("Share(nil, nil) message = %q, want %q", got, msgShareCannotRun)
	}
}

func TestPublish(t *testing.T) {
	store := feed.NewStore(feed.SeedPosts(time.Now())...)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &Publisher{store: store, now: func() time.Time { return at }, views: func() int { return 123 }}

	post, err := p.Publish(context.Background(), &fakeRenderer{}, meme.Request{})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if _, err := uuid.Parse(post.ID); err != nil {
		t.Errorf("post id %q is not a UUID: %v", post.ID, err)
	}
	if post.Likes != 0 || post.IsLiked || post.Views != 123 || !post.Timestamp.Equal(at) {
		t.Errorf("Publish() = %+v, want fresh post with 123 views at %v", post, at)
	}
	if !strings.HasPrefix(post.ImageURL, "data:image/png;base64,") {
		t.Errorf("ImageURL = %.40q, want PNG data URI", post.ImageURL)
	}

	posts := store.List()
	if len(posts) != 4 || posts[0].ID != post.ID {
		t.Errorf("feed head = %q (len %d), want new post first", posts[0].ID, len(posts))
	}
}

func TestPublishViewRange(t *testing.T) {
	p := NewPublisher(feed.NewStore())
	lo, hi := math.MaxInt, math.MinInt
	for i := 0; i < 300; i++ {
		post, err := p.Publish(context.Background(), &fakeRenderer{}, meme.Request{})
		if err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		lo, hi = min(lo, post.Views), max(hi, post.Views)
	}
	if lo < 50 || hi > 549 {
		t.Errorf("views ranged over [%d, %d], want within [50, 549]", lo, hi)
	}
}

func TestPublishFailureLeavesFeed(t *testing.T) {
	store := feed.NewStore()
	_, err := NewPublisher(store).Publish(context.Background(), &fakeRenderer{err: errors.New("boom")}, meme.Request{})
	if got := meme.UserMessage(err, ""); got != msgPublishFailed {
		t.Errorf("Publish() message = %q, want %q", got, msgPublishFailed)
	}
	if store.Len() != 0 {
		t.Errorf("feed has %d posts after failed publish, want 0", store.Len())
	}
}

func TestPostQR(t *testing.T) {
	post := feed.Post{ID: "abc 123"}
	if got := PostLink("http://localhost:8080/", post); got != "http://localhost:8080/feed/abc%20123" {
		t.Errorf("PostLink() = %q", got)
	}
	data, err := PostQR(post, "http://localhost:8080", 0)
	if err != nil {
		t.Fatalf("PostQR() error = %v", err)
	}
	if cfg := decodesAsPNG(t, data); cfg.Width != DefaultQRSize {
		t.Errorf("QR width = %d, want %d", cfg.Width, DefaultQRSize)
	}
}

func TestCommandSharer(t *testing.T) {
	if (CommandSharer{}).Available() {
		t.Error("empty CommandSharer reports available")
	}
	if (CommandSharer{Command: "definitely-not-a-real-share-tool"}).Available() {
		t.Error("missing command reports available")
	}

	s := CommandSharer{Command: "cat"}
	if !s.Available() {
		t.Skip("cat not on PATH")
	}
	if err := s.Share(context.Background(), Payload{FileName: "meme.png", Data: []byte("png")}); err != nil {
		t.Errorf("Share() error = %v", err)
	}
}

func TestExecClipboard(t *testing.T) {
	none := &ExecClipboard{tools: []clipboardTool{{name: "definitely-not-a-clipboard"}}}
	if err := none.WriteImage(context.Background(), []byte("png")); err == nil {
		t.Error("WriteImage() with no tool returned nil error")
	}

	cat := &ExecClipboard{tools: []clipboardTool{{name: "definitely-not-a-clipboard"}, {name: "cat"}}}
	if err := cat.WriteImage(context.Background(), []byte("png")); err != nil {
		t.Errorf("WriteImage() via cat error = %v", err)
	}
}
