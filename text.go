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

package pageedit

import (
	"image/color"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pageedit/coord"
	"seehuhn.de/go/pageedit/mode"
	"seehuhn.de/go/pageedit/overlay"
)

// Texts returns a copy of the text elements in drawing order.
func (s *Session) Texts() []overlay.Element {
	if !s.Loaded() {
		return nil
	}
	return s.text.Snapshot()
}

// Selected returns the ID of the selected text element, or "".
func (s *Session) Selected() string {
	return s.selected
}

// Editing returns the ID of the text element being edited, or "".
func (s *Session) Editing() string {
	return s.editing
}

// Select selects a text element. An unknown id clears the selection.
func (s *Session) Select(id string) bool {
	if !s.Loaded() {
		return false
	}
	if _, ok := s.text.Get(id); !ok {
		s.selected = ""
		return false
	}
	s.selected = id
	return true
}

// TextColor returns the colour for new text elements.
func (s *Session) TextColor() color.NRGBA {
	return s.textColor
}

// SetTextStyle sets the font size and colour for new text elements.
// Existing elements are not changed. A non-positive size is ignored.
func (s *Session) SetTextStyle(fontSize float64, c color.NRGBA) {
	if fontSize > 0 {
		s.fontSize = fontSize
	}
	s.textColor = c
}

// AddText places a new, empty text element under the pointer and starts
// editing it. It returns the ID of the new element.
func (s *Session) AddText(p Pointer) string {
	if !s.Loaded() {
		return ""
	}
	s.trackPointer(p)
	return s.AddTextAt(s.pointer.X, s.pointer.Y, "")
}

// AddTextAt places a new text element at a percentage position and
// switches to mouse mode. With an empty prefill the element is opened
// for editing and enters the history only once non-empty text is
// committed. It returns the ID of the new element.
func (s *Session) AddTextAt(x, y float64, prefill string) string {
	if !s.Loaded() {
		return ""
	}
	s.finishStroke()
	s.finishEditing()
	s.ctl.Set(mode.Mouse)

	el := s.text.Add(x, y, s.fontSize, s.textColor, prefill)
	s.selected = el.ID
	if prefill == "" {
		s.editing = el.ID
		s.newText = true
		return el.ID
	}
	s.commit()
	return el.ID
}

// BeginEdit opens an existing text element for editing.
func (s *Session) BeginEdit(id string) bool {
	if !s.Loaded() {
		return false
	}
	if _, ok := s.text.Get(id); !ok {
		return false
	}
	if s.editing != id {
		s.finishEditing()
	}
	s.editing = id
	s.selected = id
	return true
}

// CommitEdit sets the text of the element being edited. Text consisting
// only of white space removes the element.
func (s *Session) CommitEdit(text string) {
	if s.editing == "" {
		return
	}
	id, isNew := s.editing, s.newText
	s.editing = ""
	s.newText = false

	before, _ := s.text.Get(id)
	removed, ok := s.text.Edit(id, text)
	if !ok {
		return
	}
	if removed && s.selected == id {
		s.selected = ""
	}

	switch {
	case isNew && removed:
		// never recorded, nothing to undo
	case isNew, removed:
		s.commit()
	default:
		if after, _ := s.text.Get(id); after.Text != before.Text {
			s.commit()
		}
	}
}

// CancelEdit leaves edit mode without changing the text. A new element
// which never received any text is removed again.
func (s *Session) CancelEdit() {
	if s.editing == "" {
		return
	}
	id := s.editing
	if s.newText {
		s.text.Remove(id)
		if s.selected == id {
			s.selected = ""
		}
	}
	s.editing = ""
	s.newText = false
}

func (s *Session) finishEditing() {
	s.CancelEdit()
}

// DeleteText removes a text element.
func (s *Session) DeleteText(id string) bool {
	if !s.Loaded() {
		return false
	}
	if s.editing == id {
		s.CancelEdit()
		if _, ok := s.text.Get(id); !ok {
			return true
		}
	}
	if !s.text.Remove(id) {
		return false
	}
	if s.selected == id {
		s.selected = ""
	}
	s.commit()
	return true
}

// CycleTextColor moves to the next palette colour. The new colour is
// used for new elements and applied to all existing ones.
func (s *Session) CycleTextColor() color.NRGBA {
	s.textColor = overlay.NextColor(s.textColor)
	if s.Loaded() && s.text.RecolorAll(s.textColor) {
		s.commit()
	}
	return s.textColor
}

// MoveText moves a text element to a percentage position.
func (s *Session) MoveText(id string, x, y float64) bool {
	if !s.Loaded() {
		return false
	}
	p := coord.ClampPercent(vec.Vec2{X: x, Y: y})
	el, ok := s.text.Get(id)
	if !ok {
		return false
	}
	if el.X == p.X && el.Y == p.Y {
		return true
	}
	s.text.Move(id, p.X, p.Y)
	s.commit()
	return true
}
