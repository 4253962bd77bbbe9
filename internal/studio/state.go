// Package studio holds the meme editor's application state as one explicit
// value with named transitions, and orchestrates the slow operations
// (caption generation, AI edits, exports) around it.
//
// Every asynchronous operation is split into a Begin transition, which
// returns a Stamp, and a Complete transition, which discards the result when
// the stamp no longer matches the state.
package studio

import (
	"errors"
	"slices"
	"time"

	"github.com/fpang/meme-magic/internal/assets"
	"github.com/fpang/meme-magic/internal/meme"
)

// NoticeTTL is how long a notice or error banner stays visible.
const NoticeTTL = 3 * time.Second

// User-facing messages owned by the studio.
const (
	msgCaptionsFailed    = "Failed to generate captions. Please try again."
	msgRegenerateFailed  = "Could not regenerate specific caption."
	msgEditFailed        = "Failed to edit the image. Please try again."
	msgEditNoBase        = "Cannot edit: No base image selected."
	msgEditPromptMissing = "Please describe how to edit the image."
	msgWatermarkRemoved  = "Watermark removed! Thanks for supporting us."
)

var (
	// ErrAlreadyPending rejects a regeneration for an index already in flight.
	ErrAlreadyPending = errors.New("caption regeneration already in progress for this index")
	// ErrBusy rejects an operation whose previous run has not completed.
	ErrBusy = errors.New("operation already in progress")
	// ErrStale reports a completion discarded because the image or caption
	// list changed while it was in flight.
	ErrStale = errors.New("result discarded: the image or captions changed while it was in flight")
	// ErrIndexOutOfRange rejects a caption index outside the current list.
	ErrIndexOutOfRange = errors.New("caption index out of range")
)

// View is the active top-level screen.
type View string

const (
	ViewCreate View = "create"
	ViewFeed   View = "feed"
)

// Loading flags one in-flight operation of each kind.
type Loading struct {
	Captions   bool `json:"captions"`
	Editing    bool `json:"editing"`
	Publishing bool `json:"publishing"`
	WatchingAd bool `json:"watchingAd"`
}

// Stamp identifies the state an operation was launched against.
type Stamp struct {
	generation uint64
	captionSet uint64
}

// banner is an auto-clearing message.
type banner struct {
	text    string
	expires time.Time
}

func (b banner) at(now time.Time) string {
	if b.text == "" || !now.Before(b.expires) {
		return ""
	}
	return b.text
}

// State is the whole editor state. The zero value is not ready; use NewState.
type State struct {
	base   meme.ImageSource // SourceUploaded, SourceTemplate or SourceNone
	edited *meme.ImageSource

	captions []string
	selected *string
	pending  map[int]bool

	style        meme.TextStyle
	captionStyle string

	watermarkRemoved bool
	loading          Loading
	view             View

	notice banner
	err    banner

	// generation changes whenever the base image changes.
	generation uint64
	// captionSet changes whenever the caption list is replaced wholesale.
	captionSet uint64
}

// NewState returns an empty editor on the create view with default styles.
func NewState() *State {
	return &State{
		pending:      make(map[int]bool),
		style:        meme.DefaultStyle(),
		captionStyle: assets.DefaultCaptionStyle,
		view:         ViewCreate,
	}
}

func (s *State) stamp() Stamp {
	return Stamp{generation: s.generation, captionSet: s.captionSet}
}

// Current resolves the active image: Edited > Uploaded > Template.
func (s *State) Current() meme.ImageSource {
	var uploaded, template *meme.ImageSource
	switch s.base.Kind {
	case meme.SourceUploaded:
		uploaded = &s.base
	case meme.SourceTemplate:
		template = &s.base
	}
	return meme.Resolve(uploaded, template, s.edited)
}

// Base returns the uploaded or template image that captions and edits are
// computed from.
func (s *State) Base() meme.ImageSource {
	return s.base
}

// SelectUpload makes uploaded bytes the base image.
// Touches: base, edited, captions, selected, pending, watermarkRemoved,
// loading.captions, loading.editing, loading.watchingAd, notice, error,
// generation.
func (s *State) SelectUpload(data []byte, mimeType string) {
	s.selectBase(meme.Uploaded(data, mimeType))
}

// SelectTemplate makes a template URI the base image.
// Touches the same fields as SelectUpload.
func (s *State) SelectTemplate(uri string) {
	s.selectBase(meme.Template(uri))
}

func (s *State) selectBase(src meme.ImageSource) {
	s.base = src
	s.edited = nil
	s.captions = nil
	s.selected = nil
	s.pending = make(map[int]bool)
	s.watermarkRemoved = false
	s.loading.Captions = false
	s.loading.Editing = false
	s.loading.WatchingAd = false
	s.notice = banner{}
	s.err = banner{}
	s.generation++
	s.captionSet++
}

// BeginCaptions starts a batch generation, clearing the current list.
// Touches: loading.captions, captions, selected, pending, error, captionSet.
func (s *State) BeginCaptions(now time.Time) (Stamp, error) {
	if s.base.IsNone() {
		s.Fail(meme.ErrNoImage.Message, now)
		return Stamp{}, meme.ErrNoImage
	}
	if s.loading.Captions {
		return Stamp{}, ErrBusy
	}
	s.loading.Captions = true
	s.err = banner{}
	s.captions = nil
	s.selected = nil
	s.pending = make(map[int]bool)
	s.captionSet++
	return s.stamp(), nil
}

// CompleteCaptions applies a batch result. It reports false, touching
// nothing, when st is stale.
// Touches: loading.captions, captions or error.
func (s *State) CompleteCaptions(st Stamp, captions []string, err error, now time.Time) bool {
	if st != s.stamp() {
		return false
	}
	s.loading.Captions = false
	if err != nil {
		s.Fail(meme.UserMessage(err, msgCaptionsFailed), now)
		return true
	}
	s.captions = slices.Clone(captions)
	return true
}

// BeginRegenerate marks caption i as pending.
// Touches: pending[i], error.
func (s *State) BeginRegenerate(i int, now time.Time) (Stamp, error) {
	if s.base.IsNone() {
		s.Fail(meme.ErrNoImage.Message, now)
		return Stamp{}, meme.ErrNoImage
	}
	if i < 0 || i >= len(s.captions) {
		return Stamp{}, ErrIndexOutOfRange
	}
	if s.pending[i] {
		return Stamp{}, ErrAlreadyPending
	}
	s.pending[i] = true
	return s.stamp(), nil
}

// CompleteRegenerate replaces caption i, moving the selection along if the
// old text was selected. Other slots are untouched. It reports false when st
// is stale.
// Touches: captions[i], selected, pending[i], error.
func (s *State) CompleteRegenerate(st Stamp, i int, text string, err error, now time.Time) bool {
	if st != s.stamp() || !s.pending[i] {
		return false
	}
	delete(s.pending, i)
	if err != nil {
		s.Fail(meme.UserMessage(err, msgRegenerateFailed), now)
		return true
	}
	old := s.captions[i]
	s.captions[i] = text
	if s.selected != nil && *s.selected == old {
		s.selected = &text
	}
	return true
}

// BeginEdit starts an AI edit of the base image.
// Touches: loading.editing, error.
func (s *State) BeginEdit(prompt string, now time.Time) (Stamp, error) {
	if s.base.IsNone() {
		s.Fail(msgEditNoBase, now)
		return Stamp{}, meme.NewError(meme.KindValidation, msgEditNoBase, nil)
	}
	if prompt == "" {
		return Stamp{}, meme.NewError(meme.KindValidation, msgEditPromptMissing, nil)
	}
	if s.loading.Editing {
		return Stamp{}, ErrBusy
	}
	s.loading.Editing = true
	s.err = banner{}
	return Stamp{generation: s.generation}, nil
}

// CompleteEdit stores the edited image. Edits are not tied to the caption
// list, so only the image generation is checked.
// Touches: loading.editing, edited or error.
func (s *State) CompleteEdit(st Stamp, data []byte, mimeType string, err error, now time.Time) bool {
	if st.generation != s.generation {
		return false
	}
	s.loading.Editing = false
	if err != nil {
		s.Fail(meme.UserMessage(err, msgEditFailed), now)
		return true
	}
	edited := meme.Edited(data, mimeType)
	s.edited = &edited
	return true
}

// SelectCaption picks the caption to render. Empty text clears the selection.
// Touches: selected.
func (s *State) SelectCaption(text string) {
	if text == "" {
		s.selected = nil
		return
	}
	s.selected = &text
}

// SetStyle replaces the text style.
// Touches: style.
func (s *State) SetStyle(style meme.TextStyle) error {
	if err := style.Validate(); err != nil {
		return meme.NewError(meme.KindValidation, "Invalid text style.", err)
	}
	s.style = style
	return nil
}

// SetCaptionStyle picks the tone preset for generation.
// Touches: captionStyle.
func (s *State) SetCaptionStyle(id string) error {
	if _, ok := assets.LookupCaptionStyle(id); !ok {
		return meme.NewError(meme.KindValidation, "Unknown caption style.", errors.New(id))
	}
	s.captionStyle = id
	return nil
}

// BeginAd starts the simulated rewarded ad.
// Touches: loading.watchingAd.
func (s *State) BeginAd(now time.Time) (Stamp, error) {
	if s.Current().IsNone() {
		s.Fail(meme.ErrNoImage.Message, now)
		return Stamp{}, meme.ErrNoImage
	}
	if s.loading.WatchingAd {
		return Stamp{}, ErrBusy
	}
	s.loading.WatchingAd = true
	return Stamp{generation: s.generation}, nil
}

// CompleteAd removes the watermark if the image is unchanged since BeginAd.
// Touches: loading.watchingAd, watermarkRemoved, notice.
func (s *State) CompleteAd(st Stamp, now time.Time) bool {
	if st.generation != s.generation || !s.loading.WatchingAd {
		return false
	}
	s.loading.WatchingAd = false
	s.RemoveWatermark(now)
	return true
}

// RemoveWatermark hides the watermark until the base image changes.
// Touches: watermarkRemoved, notice.
func (s *State) RemoveWatermark(now time.Time) {
	s.watermarkRemoved = true
	s.Notify(msgWatermarkRemoved, now)
}

// SetPublishing flags an in-flight publish.
// Touches: loading.publishing.
func (s *State) SetPublishing(on bool) {
	s.loading.Publishing = on
}

// SetView switches the top-level screen.
// Touches: view.
func (s *State) SetView(v View) error {
	if v != ViewCreate && v != ViewFeed {
		return meme.NewError(meme.KindValidation, "Unknown view.", errors.New(string(v)))
	}
	s.view = v
	return nil
}

// Notify shows a success message until now+NoticeTTL.
// Touches: notice.
func (s *State) Notify(msg string, now time.Time) {
	s.notice = banner{text: msg, expires: now.Add(NoticeTTL)}
}

// Fail shows an error message until now+NoticeTTL.
// Touches: error.
func (s *State) Fail(msg string, now time.Time) {
	s.err = banner{text: msg, expires: now.Add(NoticeTTL)}
}

// Request is the compose request for the current state.
func (s *State) Request() (meme.Request, error) {
	src := s.Current()
	if src.IsNone() {
		return meme.Request{}, meme.ErrNoImage
	}
	req := meme.Request{
		Source:           src,
		Style:            s.style,
		WatermarkRemoved: s.watermarkRemoved,
	}
	if s.selected != nil {
		caption := *s.selected
		req.Caption = &caption
	}
	return req, nil
}

// Snapshot is a read-only, JSON-friendly copy of the state.
type Snapshot struct {
	Source           string         `json:"source"`
	TemplateURL      string         `json:"templateUrl,omitempty"`
	HasEdit          bool           `json:"hasEdit"`
	Captions         []string       `json:"captions"`
	Selected         *string        `json:"selectedCaption"`
	Pending          []int          `json:"pendingCaptions"`
	Style            meme.TextStyle `json:"textStyle"`
	CaptionStyle     string         `json:"captionStyle"`
	WatermarkRemoved bool           `json:"watermarkRemoved"`
	Loading          Loading        `json:"loading"`
	View             View           `json:"view"`
	Notice           string         `json:"notification,omitempty"`
	Error            string         `json:"error,omitempty"`
	Generation       uint64         `json:"generation"`
}

// Snapshot copies the state as seen at now; expired banners are omitted.
func (s *State) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Source:           s.Current().Kind.String(),
		HasEdit:          s.edited != nil,
		Captions:         slices.Clone(s.captions),
		Style:            s.style,
		CaptionStyle:     s.captionStyle,
		WatermarkRemoved: s.watermarkRemoved,
		Loading:          s.loading,
		View:             s.view,
		Notice:           s.notice.at(now),
		Error:            s.err.at(now),
		Generation:       s.generation,
		Pending:          []int{},
	}
	if snap.Captions == nil {
		snap.Captions = []string{}
	}
	if s.base.Kind == meme.SourceTemplate {
		snap.TemplateURL = s.base.URI
	}
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	for i := range s.pending {
		snap.Pending = append(snap.Pending, i)
	}
	slices.Sort(snap.Pending)
	return snap
}
