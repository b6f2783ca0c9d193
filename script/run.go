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

package script

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pageedit"
	"seehuhn.de/go/pageedit/mode"
	"seehuhn.de/go/pageedit/overlay"
	"seehuhn.de/go/pageedit/persist"
)

// StepError reports a failed step.
type StepError struct {
	Script string
	Step   int // 1-based
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %d: %v", e.Script, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Register stores the page images of the given scripts in m, so that
// a session backed by m can load, save and reset them.
func Register(m *persist.Memory, scripts ...*Script) error {
	for _, sc := range scripts {
		img, err := sc.Image()
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		m.Put(sc.Page.ID, img)
	}
	return nil
}

// Run replays a script. Unless the session already shows the script's
// page, the page image is loaded first.
func Run(ctx context.Context, s *pageedit.Session, sc *Script) error {
	if !s.Loaded() || s.FileID() != sc.Page.ID {
		img, err := sc.Image()
		if err != nil {
			return err
		}
		if err := s.LoadImage(sc.Page.ID, img); err != nil {
			return err
		}
	}

	for i := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runStep(ctx, s, sc, &sc.Steps[i]); err != nil {
			return &StepError{Script: sc.Name, Step: i + 1, Err: err}
		}
	}
	return nil
}

func runStep(ctx context.Context, s *pageedit.Session, sc *Script, st *Step) error {
	display := sc.DisplayRect(s.Original().Bounds().Size())
	pointer := func(p []float64, target string) pageedit.Pointer {
		return pageedit.Pointer{Pos: vec.Vec2{X: p[0], Y: p[1]}, Display: display, Target: target}
	}

	switch {
	case st.Mode != "":
		m, err := mode.Parse(st.Mode)
		if err != nil {
			return err
		}
		s.SetMode(m)

	case st.Brush != nil:
		if st.Brush.Size != 0 {
			s.SetBrushSize(st.Brush.Size)
		}
		if st.Brush.Opacity != 0 {
			s.SetOpacity(st.Brush.Opacity)
		}

	case st.Stroke != nil:
		if m := s.Mode(); m != mode.Brush && m != mode.Eraser {
			return errors.New("stroke outside brush or eraser mode")
		}
		pts := st.Stroke
		s.PointerDown(pointer(pts[0], ""))
		for _, p := range pts[1:] {
			s.PointerMove(pointer(p, ""))
		}
		s.PointerUp(pointer(pts[len(pts)-1], ""))

	case st.Text != nil:
		if st.Text.FontSize != 0 || st.Text.Color != "" {
			c := s.TextColor()
			if st.Text.Color != "" {
				var err error
				if c, err = overlay.ParseColor(st.Text.Color); err != nil {
					return err
				}
			}
			s.SetTextStyle(st.Text.FontSize, c)
		}
		s.AddTextAt(st.Text.At[0], st.Text.At[1], st.Text.Text)

	case st.Edit != nil:
		id := st.Edit.ID
		if id == "" {
			id = s.Editing()
		}
		if id == "" {
			return errors.New("no text element is being edited")
		}
		if s.Editing() != id && !s.BeginEdit(id) {
			return fmt.Errorf("unknown text element %q", id)
		}
		if st.Edit.Cancel {
			s.CancelEdit()
		} else {
			s.CommitEdit(st.Edit.Text)
		}

	case st.Drag != nil:
		s.PointerDown(pointer(st.Drag.From, st.Drag.ID))
		s.PointerMove(pointer(st.Drag.To, ""))
		s.PointerUp(pointer(st.Drag.To, ""))

	case st.Delete != "":
		if !s.DeleteText(st.Delete) {
			return fmt.Errorf("unknown text element %q", st.Delete)
		}

	case st.Key != "":
		k, err := pageedit.ParseKey(st.Key)
		if err != nil {
			return err
		}
		action := s.KeyDown(k)
		s.KeyUp(k)
		if action == pageedit.ActionSave {
			return s.Save(ctx)
		}

	case st.Undo > 0:
		for range st.Undo {
			s.Undo()
		}

	case st.Redo > 0:
		for range st.Redo {
			s.Redo()
		}

	case st.Clear:
		s.Clear()

	case st.Save:
		return s.Save(ctx)

	case st.Reset:
		return s.Reset(ctx)

	case st.Expect != nil:
		return st.Expect.check(s)
	}
	return nil
}

func (e *Expect) check(s *pageedit.Session) error {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	status := s.Status()

	if e.HasContent != nil && s.HasContent() != *e.HasContent {
		fail("has_content = %t, want %t", !*e.HasContent, *e.HasContent)
	}
	if e.TextCount != nil && status.Texts != *e.TextCount {
		fail("text_count = %d, want %d", status.Texts, *e.TextCount)
	}
	if e.Texts != nil {
		var got []string
		for _, el := range s.Texts() {
			got = append(got, el.Text)
		}
		if !slices.Equal(got, e.Texts) {
			fail("texts = %q, want %q", got, e.Texts)
		}
	}
	if e.Mode != "" && status.Mode.String() != e.Mode {
		fail("mode = %s, want %s", status.Mode, e.Mode)
	}
	if e.BrushSize != 0 && math.Abs(status.BrushSize-e.BrushSize) > 1e-9 {
		fail("brush_size = %g, want %g", status.BrushSize, e.BrushSize)
	}
	if e.HistoryIndex != nil && status.HistoryIndex != *e.HistoryIndex {
		fail("history_index = %d, want %d", status.HistoryIndex, *e.HistoryIndex)
	}
	if e.HistoryLen != nil && status.HistoryLen != *e.HistoryLen {
		fail("history_len = %d, want %d", status.HistoryLen, *e.HistoryLen)
	}
	if e.Unsaved != nil && status.Unsaved != *e.Unsaved {
		fail("unsaved = %t, want %t", status.Unsaved, *e.Unsaved)
	}
	if e.CanUndo != nil && s.CanUndo() != *e.CanUndo {
		fail("can_undo = %t, want %t", s.CanUndo(), *e.CanUndo)
	}
	if e.CanRedo != nil && s.CanRedo() != *e.CanRedo {
		fail("can_redo = %t, want %t", s.CanRedo(), *e.CanRedo)
	}

	if problems != nil {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
