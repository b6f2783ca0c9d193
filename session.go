// seehuhn.de/go/pageedit - a page review and redaction editor
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package pageedit implements the editing core of a page review tool.
//
// A [Session] holds one loaded page image and the edits on top of it: a
// raster layer for brush and eraser strokes, and a layer of text labels.
// Edits are recorded in an undo history and are saved through a
// [persist.Store] as a flattened JPEG.
//
// A Session is driven by a single event loop and is not safe for
// concurrent use, with two exceptions: Hint may be called at any time,
// and a second call to Save while one is running fails with
// ErrSaveInProgress.
package pageedit

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync/atomic"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pageedit/composite"
	"seehuhn.de/go/pageedit/coord"
	"seehuhn.de/go/pageedit/history"
	"seehuhn.de/go/pageedit/mode"
	"seehuhn.de/go/pageedit/overlay"
	"seehuhn.de/go/pageedit/persist"
	"seehuhn.de/go/pageedit/raster"
)

// Pointer is a pointer event.
type Pointer struct {
	// Pos is the pointer position in display space.
	Pos vec.Vec2

	// Display is the on-screen box of the image, in display space.
	Display rect.Rect

	// Target is the ID of the text element under the pointer, if any.
	Target string
}

// Session is an editing session for one page at a time.
type Session struct {
	cfg   *Config
	store persist.Store
	log   *slog.Logger
	comp  *composite.Compositor

	confirm func() bool

	id       persist.FileID
	original image.Image
	raster   *raster.Layer
	text     *overlay.Layer
	hist     *history.History

	// rasterVersion is the raster version stored in hist.Current().
	rasterVersion uint64

	ctl  *mode.Controller
	mods mode.Modifiers

	textColor color.NRGBA
	fontSize  float64

	selected string
	editing  string
	newText  bool // editing an element which is not yet in the history

	dragging   string
	dragOffset vec.Vec2 // element position minus pointer, in percent

	pointer    vec.Vec2 // last pointer position, in percent
	hasPointer bool

	saving atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithConfirm sets the function which is asked before unsaved changes
// are abandoned by leaving a drawing mode. Without it, the answer is yes.
func WithConfirm(confirm func() bool) Option {
	return func(s *Session) {
		s.confirm = confirm
	}
}

// WithCompositor replaces the compositor built from the configuration.
func WithCompositor(c *composite.Compositor) Option {
	return func(s *Session) {
		s.comp = c
	}
}

// New returns a session without an image. A nil cfg means DefaultConfig().
func New(store persist.Store, cfg *Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	textColor, _ := overlay.ParseColor(cfg.Text.Color)

	s := &Session{
		cfg:       cfg,
		store:     store,
		log:       cfg.logger(),
		textColor: textColor,
		fontSize:  cfg.Text.FontSize,
		ctl: mode.NewController(cfg.Brush.Size, cfg.Brush.Opacity,
			cfg.Brush.Step, cfg.Brush.RepeatInterval),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.comp == nil {
		comp, err := composite.New(cfg.compositorOptions()...)
		if err != nil {
			return nil, fmt.Errorf("compositor: %w", err)
		}
		s.comp = comp
	}
	return s, nil
}

// Close stops background work. The session must not be used afterwards.
func (s *Session) Close() {
	s.ctl.Close()
}

// Load fetches a page from the store and makes it the current image.
// On failure the session is left unchanged.
func (s *Session) Load(ctx context.Context, id persist.FileID) error {
	img, err := s.store.Original(ctx, id)
	if err != nil {
		s.log.Error("load failed", "file", id, "error", err)
		return fmt.Errorf("load %s: %w", id, err)
	}
	return s.LoadImage(id, img)
}

// LoadImage makes img the current image. All edits, the history and the
// selection are discarded. Mode and brush settings are kept.
func (s *Session) LoadImage(id persist.FileID, img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return ErrNoImage
	}
	b := img.Bounds()

	s.id = id
	s.original = img
	s.raster = raster.NewLayer(b.Dx(), b.Dy())
	s.text = overlay.New()
	s.resetHistory()
	s.resetTransient()

	s.log.Info("page loaded", "file", id, "width", b.Dx(), "height", b.Dy())
	return nil
}

func (s *Session) resetHistory() {
	baseline := history.State{Raster: s.raster.Snapshot(), Text: s.text.Snapshot()}
	if s.hist == nil {
		s.hist = history.New(baseline)
	} else {
		s.hist.Reset(baseline)
	}
	s.rasterVersion = s.raster.Version()
}

func (s *Session) resetTransient() {
	s.selected = ""
	s.editing = ""
	s.newText = false
	s.dragging = ""
	s.ctl.Hint.EndDrag()
}

// Loaded reports whether an image is loaded.
func (s *Session) Loaded() bool {
	return s.original != nil
}

// FileID returns the ID of the current page.
func (s *Session) FileID() persist.FileID {
	return s.id
}

// Original returns the current page image, or nil.
func (s *Session) Original() image.Image {
	return s.original
}

// Raster gives read access to the raster layer. The image must not be
// modified or kept across events.
func (s *Session) Raster() *image.RGBA {
	if s.raster == nil {
		return nil
	}
	return s.raster.Image()
}

// HasContent reports whether anything has been painted.
func (s *Session) HasContent() bool {
	return s.raster != nil && s.raster.HasContent()
}

// commit records the current content as a new history state. The raster
// snapshot of the previous state is reused if the pixels did not change.
func (s *Session) commit() {
	cur := s.hist.Current()
	snap := cur.Raster
	if v := s.raster.Version(); v != s.rasterVersion {
		snap = s.raster.Snapshot()
		s.rasterVersion = v
	}
	s.hist.Push(history.State{Raster: snap, Text: s.text.Snapshot()})
}

// apply replaces the content by a history state.
func (s *Session) apply(st history.State) {
	if err := s.raster.Restore(st.Raster); err != nil {
		// history states always come from this layer
		panic(err)
	}
	s.rasterVersion = s.raster.Version()
	s.text.Restore(st.Text)

	s.editing = ""
	s.newText = false
	s.dragging = ""
	s.ctl.Hint.EndDrag()
	if _, ok := s.text.Get(s.selected); !ok {
		s.selected = ""
	}
}

// finishStroke ends a stroke in progress and records it.
func (s *Session) finishStroke() {
	if s.raster != nil && s.raster.EndStroke() {
		s.commit()
	}
}

// Undo steps back in the history. It reports whether anything changed.
func (s *Session) Undo() bool {
	if !s.Loaded() {
		return false
	}
	s.finishEditing()
	s.finishStroke()
	st, ok := s.hist.Undo()
	if !ok {
		return false
	}
	s.apply(st)
	return true
}

// Redo steps forward in the history. It reports whether anything changed.
func (s *Session) Redo() bool {
	if !s.Loaded() {
		return false
	}
	s.finishEditing()
	s.finishStroke()
	st, ok := s.hist.Redo()
	if !ok {
		return false
	}
	s.apply(st)
	return true
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	return s.Loaded() && s.hist.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	return s.Loaded() && s.hist.CanRedo()
}

// Clear erases the raster layer. Text elements are kept. A history state
// is recorded if there was anything to erase.
func (s *Session) Clear() {
	if !s.Loaded() {
		return
	}
	s.finishStroke()
	if !s.raster.HasContent() {
		return
	}
	s.raster.Clear()
	s.commit()
}

// HasUnsavedChanges reports whether the content differs from the last
// save (or load).
func (s *Session) HasUnsavedChanges() bool {
	return s.Loaded() && (s.hist.Dirty() || s.raster.Stroking())
}

// Save flattens the page and stores it. If there is nothing on top of
// the original, no data is sent and the content counts as saved.
func (s *Session) Save(ctx context.Context) error {
	if !s.Loaded() {
		return ErrNoImage
	}
	if !s.saving.CompareAndSwap(false, true) {
		return ErrSaveInProgress
	}
	defer s.saving.Store(false)

	s.finishStroke()

	if !s.raster.HasContent() && s.text.Len() == 0 {
		s.log.Debug("nothing to save", "file", s.id)
		s.hist.MarkSaved()
		return nil
	}

	blob, err := s.comp.Composite(s.original, s.raster.Image(), s.text.Elements())
	if err != nil {
		return fmt.Errorf("save %s: %w", s.id, err)
	}
	if err := s.store.Save(ctx, s.id, blob); err != nil {
		s.log.Error("save failed", "file", s.id, "error", err)
		return fmt.Errorf("save %s: %w", s.id, err)
	}
	s.hist.MarkSaved()
	s.log.Info("page saved", "file", s.id, "bytes", len(blob), "texts", s.text.Len())
	return nil
}

// Saving reports whether a save is in progress.
func (s *Session) Saving() bool {
	return s.saving.Load()
}

// Reset deletes the saved edits in the store and discards all edits in
// the session. The original is fetched again, since a store may serve the
// edited copy while one exists.
func (s *Session) Reset(ctx context.Context) error {
	if !s.Loaded() {
		return ErrNoImage
	}
	if err := s.store.Reset(ctx, s.id); err != nil {
		s.log.Error("reset failed", "file", s.id, "error", err)
		return fmt.Errorf("reset %s: %w", s.id, err)
	}

	img, err := s.store.Original(ctx, s.id)
	switch {
	case err != nil:
		s.log.Warn("reload after reset failed", "file", s.id, "error", err)
	case img.Bounds().Size() != s.original.Bounds().Size():
		s.original = img
		b := img.Bounds()
		s.raster = raster.NewLayer(b.Dx(), b.Dy())
	default:
		s.original = img
	}

	s.raster.Clear()
	s.text.Restore(nil)
	s.resetHistory()
	s.resetTransient()
	s.log.Info("page reset", "file", s.id)
	return nil
}

// Preview renders the page as it would be saved.
func (s *Session) Preview() (*image.RGBA, error) {
	if !s.Loaded() {
		return nil, ErrNoImage
	}
	return s.comp.Render(s.original, s.raster.Image(), s.text.Elements())
}

// PointerDown handles a pointer press.
func (s *Session) PointerDown(p Pointer) {
	if !s.Loaded() {
		return
	}
	s.trackPointer(p)

	if s.ctl.Drawing() {
		s.finishEditing()
		s.finishStroke()
		params := s.ctl.Params()
		tool := raster.Brush
		if params.Mode == mode.Eraser {
			tool = raster.Eraser
		}
		b := s.raster.Bounds()
		s.raster.BeginStroke(coord.ToBufferSpace(p.Pos, p.Display, b.Dx(), b.Dy()),
			tool, params.BrushSize, params.Opacity)
		return
	}

	el, ok := s.text.Get(p.Target)
	if !ok {
		s.finishEditing()
		s.selected = ""
		return
	}
	if s.editing != "" && s.editing != el.ID {
		s.finishEditing()
	}
	s.selected = el.ID
	s.dragging = el.ID
	pos := vec.Vec2{X: el.X, Y: el.Y}
	s.dragOffset = pos.Sub(s.pointer)
	s.ctl.Hint.SetDrag(el.ID, pos)
}

// PointerMove handles pointer motion. Strokes are drawn right away; text
// drags only update the live hint until the pointer is released.
func (s *Session) PointerMove(p Pointer) {
	if !s.Loaded() {
		return
	}
	s.trackPointer(p)

	if s.raster.Stroking() {
		b := s.raster.Bounds()
		s.raster.ContinueStroke(coord.ToBufferSpace(p.Pos, p.Display, b.Dx(), b.Dy()))
		return
	}
	if s.dragging != "" {
		s.ctl.Hint.SetDrag(s.dragging, coord.ClampPercent(s.pointer.Add(s.dragOffset)))
	}
}

// PointerUp handles a pointer release. A finished stroke or drag is
// recorded in the history.
func (s *Session) PointerUp(p Pointer) {
	if !s.Loaded() {
		return
	}
	s.PointerMove(p)

	if s.raster.Stroking() {
		s.finishStroke()
		return
	}
	if s.dragging == "" {
		return
	}
	s.dragging = ""
	id, pos := s.ctl.Hint.EndDrag()
	el, ok := s.text.Get(id)
	if !ok || (el.X == pos.X && el.Y == pos.Y) {
		return
	}
	s.text.Move(id, pos.X, pos.Y)
	s.commit()
}

// PointerLeave handles the pointer leaving the image. A stroke in
// progress is finished.
func (s *Session) PointerLeave() {
	s.finishStroke()
}

func (s *Session) trackPointer(p Pointer) {
	s.ctl.Hint.SetCursor(p.Pos)
	s.pointer = coord.ToPercentSpace(p.Pos, p.Display)
	s.hasPointer = true
}

// Hint returns the live preview values. It is safe to call from any
// goroutine.
func (s *Session) Hint() mode.Hint {
	return s.ctl.Hint.Get()
}

// CursorSize returns the diameter of the brush cursor preview in display
// units, for a page shown in the display rectangle.
func (s *Session) CursorSize(display rect.Rect) float64 {
	if !s.Loaded() {
		return 0
	}
	return coord.BufferToDisplayLength(s.Hint().BrushSize, display, s.original.Bounds().Dx())
}

// Mode returns the active mode.
func (s *Session) Mode() mode.Mode {
	return s.ctl.Mode()
}

// Params returns the committed mode and brush settings.
func (s *Session) Params() mode.Params {
	return s.ctl.Params()
}

// SetMode selects a mode. A stroke in progress is finished first.
func (s *Session) SetMode(m mode.Mode) {
	s.finishStroke()
	s.ctl.Set(m)
}

// SetBrushSize sets the brush diameter in image pixels.
func (s *Session) SetBrushSize(size float64) {
	s.ctl.SetBrushSize(size)
}

// SetOpacity sets the brush opacity in percent.
func (s *Session) SetOpacity(opacity int) {
	s.ctl.SetOpacity(opacity)
}

// Status summarises the session for display.
type Status struct {
	FileID       persist.FileID
	Loaded       bool
	Mode         mode.Mode
	BrushSize    float64
	Opacity      int
	TextColor    color.NRGBA
	Texts        int
	Selected     string
	Editing      string
	HistoryIndex int
	HistoryLen   int
	Unsaved      bool
	Saving       bool
}

// Status returns the current status.
func (s *Session) Status() Status {
	params := s.ctl.Params()
	st := Status{
		FileID:    s.id,
		Loaded:    s.Loaded(),
		Mode:      params.Mode,
		BrushSize: params.BrushSize,
		Opacity:   params.Opacity,
		TextColor: s.textColor,
		Selected:  s.selected,
		Editing:   s.editing,
		Unsaved:   s.HasUnsavedChanges(),
		Saving:    s.Saving(),
	}
	if s.Loaded() {
		st.Texts = s.text.Len()
		st.HistoryIndex = s.hist.Index()
		st.HistoryLen = s.hist.Len()
	}
	return st
}
