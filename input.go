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
	"strings"

	"seehuhn.de/go/pageedit/mode"
)

// size keys
const (
	keySmaller = "["
	keyLarger  = "]"
)

// KeyDown handles a key press. While a text element is being edited,
// only Escape is handled; all other keys belong to the text input.
//
// The shortcuts are:
//
//	ctrl+z           undo
//	ctrl+shift+z     redo
//	ctrl+y           redo
//	ctrl+s           save (returns ActionSave)
//	b, e, m          brush, eraser, mouse mode
//	t                new text element at the pointer
//	c                next text colour
//	[ and ]          brush size, repeating while held
//	Delete/Backspace remove the selected text element
//	Escape           cancel editing, leave drawing mode, or deselect
//
// On macOS the meta key acts as ctrl.
func (s *Session) KeyDown(k Key) Action {
	name := strings.ToLower(k.Name)

	if s.editing != "" {
		if name == "escape" {
			s.CancelEdit()
			return ActionHandled
		}
		return ActionNone
	}

	if k.command() {
		switch name {
		case "z":
			if k.Shift {
				s.Redo()
			} else {
				s.Undo()
			}
			return ActionHandled
		case "y":
			s.Redo()
			return ActionHandled
		case "s":
			return ActionSave
		}
		return ActionNone
	}
	if k.Alt {
		return ActionNone
	}

	switch name {
	case "b":
		s.SetMode(mode.Brush)
	case "e":
		s.SetMode(mode.Eraser)
	case "m":
		s.SetMode(mode.Mouse)
	case "t":
		if !s.Loaded() {
			return ActionNone
		}
		x, y := 50.0, 50.0
		if s.hasPointer {
			x, y = s.pointer.X, s.pointer.Y
		}
		s.AddTextAt(x, y, "")
	case "c":
		s.CycleTextColor()
	case keySmaller:
		s.ctl.BeginAdjust(&s.mods, keySmaller, -1)
	case keyLarger:
		s.ctl.BeginAdjust(&s.mods, keyLarger, 1)
	case "delete", "backspace":
		if s.selected == "" {
			return ActionNone
		}
		s.DeleteText(s.selected)
	case "escape":
		switch {
		case s.ctl.Drawing():
			s.finishStroke()
			s.ctl.Escape(s.HasUnsavedChanges(), s.confirm)
		case s.selected != "":
			s.selected = ""
		default:
			return ActionNone
		}
	default:
		return ActionNone
	}
	return ActionHandled
}

// KeyUp handles a key release.
func (s *Session) KeyUp(k Key) Action {
	switch k.Name {
	case keySmaller, keyLarger:
		s.ctl.EndAdjust(&s.mods, k.Name)
		return ActionHandled
	}
	return ActionNone
}

// Blur handles the editor losing keyboard focus. Held keys are
// forgotten, so that no key repeat outlives the focus.
func (s *Session) Blur() {
	for _, key := range []string{keySmaller, keyLarger} {
		if s.mods.Held(key) {
			s.ctl.EndAdjust(&s.mods, key)
		}
	}
	s.mods.Reset()
}
