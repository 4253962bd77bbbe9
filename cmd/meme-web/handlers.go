package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fpang/meme-magic/internal/assets"
	"github.com/fpang/meme-magic/internal/export"
	"github.com/fpang/meme-magic/internal/feed"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/fpang/meme-magic/internal/studio"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds an uploaded image.
const maxUploadBytes = 20 << 20

type server struct {
	studio    *studio.Studio
	publicURL string
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) templates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": assets.Templates})
}

func (s *server) styles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"styles": assets.CaptionStyles, "default": assets.DefaultCaptionStyle})
}

func (s *server) fonts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fonts": meme.FontFamilies, "default": meme.DefaultStyle()})
}

func (s *server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) setView(c *gin.Context) {
	var req struct {
		View studio.View `json:"view"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.studio.SetView(req.View); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

// --- Image sources ---

func (s *server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		httpError(c, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	if fh.Size > maxUploadBytes {
		httpError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d MB", maxUploadBytes>>20))
		return
	}
	f, err := fh.Open()
	if err != nil {
		httpError(c, http.StatusBadRequest, "failed to read upload")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		httpError(c, http.StatusBadRequest, "failed to read upload")
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		httpError(c, http.StatusUnsupportedMediaType, "upload is not an image")
		return
	}

	if err := s.studio.SelectUpload(data, mimeType); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) selectTemplate(c *gin.Context) {
	var req struct {
		ID  int    `json:"id"`
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	uri := req.URL
	if req.ID != 0 {
		tmpl, ok := assets.LookupTemplate(req.ID)
		if !ok {
			httpError(c, http.StatusNotFound, "template not found")
			return
		}
		uri = tmpl.URL
	}
	if uri == "" {
		httpError(c, http.StatusBadRequest, "id or url is required")
		return
	}
	if !isRemoteURL(uri) {
		httpError(c, http.StatusBadRequest, "url must be an http or https address")
		return
	}

	if err := s.studio.SelectTemplate(uri); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) edit(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.studio.EditImage(c.Request.Context(), strings.TrimSpace(req.Prompt)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) watchAd(c *gin.Context) {
	if err := s.studio.WatchAd(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.studio.Snapshot())
}

// --- Captions and style ---

func (s *server) generateCaptions(c *gin.Context) {
	captions, err := s.studio.GenerateCaptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"captions": captions})
}

func (s *server) regenerateCaption(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		httpError(c, http.StatusBadRequest, "caption index must be an integer")
		return
	}
	caption, err := s.studio.RegenerateCaption(c.Request.Context(), index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": index, "caption": caption})
}

func (s *server) selectCaption(c *gin.Context) {
	var req struct {
		Caption string `json:"caption"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	s.studio.SelectCaption(req.Caption)
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) setStyle(c *gin.Context) {
	var style meme.TextStyle
	if err := c.ShouldBindJSON(&style); err != nil {
		httpError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.studio.SetStyle(style); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) setCaptionStyle(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.studio.SetCaptionStyle(req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

// --- Export ---

func (s *server) preview(c *gin.Context) {
	art, err := s.studio.Preview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := art.PNG()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, meme.PNGMIMEType, data)
}

func (s *server) download(c *gin.Context) {
	data, err := s.studio.DownloadBytes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DownloadFileName))
	c.Data(http.StatusOK, meme.PNGMIMEType, data)
}

func (s *server) share(c *gin.Context) {
	res, err := s.studio.Share(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *server) publish(c *gin.Context) {
	post, err := s.studio.Publish(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post, "notification": export.NoticePublished})
}

// --- Feed ---

// feedItem is a post with its display age.
type feedItem struct {
	feed.Post
	Age string `json:"age"`
}

func (s *server) feed(c *gin.Context) {
	now := time.Now()
	posts := s.studio.Feed()
	items := make([]feedItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, feedItem{Post: p, Age: feed.FormatAge(p.Timestamp, now)})
	}
	c.JSON(http.StatusOK, gin.H{"posts": items})
}

func (s *server) toggleLike(c *gin.Context) {
	post, err := s.studio.ToggleLike(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *server) postQR(c *gin.Context) {
	post, err := s.studio.Post(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	size := export.DefaultQRSize
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 && v <= 1024 {
		size = v
	}
	png, err := export.PostQR(post, s.publicURL, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// isRemoteURL reports whether uri is an absolute http(s) URL. Local file
// paths are only accepted from the CLI and MCP front ends.
func isRemoteURL(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
