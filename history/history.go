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

// Package history implements a linear undo/redo history of editor states.
//
// The history is a list S[0..n-1] of states with a cursor c. Pushing a
// state after one or more undo steps discards the redo branch. The list
// is never empty: S[0] is the baseline of the loaded page.
//
// Memory use grows with every pushed state. This is acceptable because a
// history only ever covers a single page.
package history

import (
	"image"

	"seehuhn.de/go/pageedit/overlay"
)

// State is a snapshot of the editable content of a page.
//
// States are treated as immutable once pushed. Consecutive states may
// share the same Raster image when the pixels did not change in between.
type State struct {
	Raster *image.RGBA
	Text   []overlay.Element
}

// History is a branch-discarding undo/redo stack.
type History struct {
	states []*State
	cur    int
	saved  *State // the state current at the last save, nil if none
}

// New returns a history containing only the baseline. The baseline counts
// as saved.
func New(baseline State) *History {
	h := &History{}
	h.Reset(baseline)
	return h
}

// Reset discards all states and starts over with a new baseline.
func (h *History) Reset(baseline State) {
	b := &baseline
	clear(h.states)
	h.states = append(h.states[:0], b)
	h.cur = 0
	h.saved = b
}

// Push records a new state after the current one. Any states after the
// cursor are discarded. The history takes ownership of s; the caller must
// not modify the image or the slice afterwards.
func (h *History) Push(s State) {
	clear(h.states[h.cur+1:])
	h.states = append(h.states[:h.cur+1], &s)
	h.cur++
}

// Undo moves the cursor back by one and returns the state to restore.
// At the start of the history, ok is false and nothing changes.
func (h *History) Undo() (s State, ok bool) {
	if h.cur == 0 {
		return State{}, false
	}
	h.cur--
	return *h.states[h.cur], true
}

// Redo moves the cursor forward by one and returns the state to restore.
// At the end of the history, ok is false and nothing changes.
func (h *History) Redo() (s State, ok bool) {
	if h.cur >= len(h.states)-1 {
		return State{}, false
	}
	h.cur++
	return *h.states[h.cur], true
}

// Current returns the state at the cursor.
func (h *History) Current() State {
	return *h.states[h.cur]
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool {
	return h.cur > 0
}

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool {
	return h.cur < len(h.states)-1
}

// Len returns the number of states, including the baseline.
func (h *History) Len() int {
	return len(h.states)
}

// Index returns the cursor position.
func (h *History) Index() int {
	return h.cur
}

// MarkSaved records the current state as the saved one.
func (h *History) MarkSaved() {
	h.saved = h.states[h.cur]
}

// Dirty reports whether the current state differs from the one current at
// the last call to MarkSaved (or from the baseline, if there was none).
// Undoing back to the saved state makes the history clean again; once the
// saved state has been discarded from a redo branch, the history stays
// dirty until the next save.
func (h *History) Dirty() bool {
	return h.saved != h.states[h.cur]
}
