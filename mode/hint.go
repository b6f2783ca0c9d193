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

package mode

import (
	"sync"

	"seehuhn.de/go/geom/vec"
)

// Hint is a copy of the live preview values.
type Hint struct {
	// Cursor is the last pointer position in display space.
	Cursor    vec.Vec2
	HasCursor bool

	// BrushSize is the preview diameter, which differs from the committed
	// size while a size key is held.
	BrushSize float64

	// DragID is the text element being dragged, if any, and DragPos its
	// current percentage position.
	DragID  string
	DragPos vec.Vec2
}

// LiveHint stores the high-frequency preview state. It is written from
// pointer handlers and from the key repeat timer, and is safe for
// concurrent use.
type LiveHint struct {
	mu sync.Mutex
	h  Hint
}

// Get returns a copy of the current values.
func (l *LiveHint) Get() Hint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.h
}

// SetCursor records the pointer position.
func (l *LiveHint) SetCursor(p vec.Vec2) {
	l.mu.Lock()
	l.h.Cursor = p
	l.h.HasCursor = true
	l.mu.Unlock()
}

// SetBrushSize sets the preview brush size.
func (l *LiveHint) SetBrushSize(size float64) {
	l.mu.Lock()
	l.h.BrushSize = clampSize(size)
	l.mu.Unlock()
}

// AdjustBrushSize changes the preview brush size by delta, clamped.
func (l *LiveHint) AdjustBrushSize(delta float64) {
	l.mu.Lock()
	l.h.BrushSize = clampSize(l.h.BrushSize + delta)
	l.mu.Unlock()
}

// SetDrag records the position of a text element being dragged.
func (l *LiveHint) SetDrag(id string, pos vec.Vec2) {
	l.mu.Lock()
	l.h.DragID = id
	l.h.DragPos = pos
	l.mu.Unlock()
}

// EndDrag forgets the drag and returns its last values.
func (l *LiveHint) EndDrag() (id string, pos vec.Vec2) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, pos = l.h.DragID, l.h.DragPos
	l.h.DragID = ""
	l.h.DragPos = vec.Vec2{}
	return id, pos
}
