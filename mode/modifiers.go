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

// Modifiers is the set of keys currently held down. It is passed to the
// controller explicitly instead of living in global state.
type Modifiers struct {
	held map[string]bool
}

// Press records a key press. It returns false if the key was already
// held, which is the case for auto-repeated key events.
func (m *Modifiers) Press(key string) bool {
	if m.held == nil {
		m.held = make(map[string]bool)
	}
	if m.held[key] {
		return false
	}
	m.held[key] = true
	return true
}

// Release records a key release.
func (m *Modifiers) Release(key string) {
	delete(m.held, key)
}

// Held reports whether a key is held down.
func (m *Modifiers) Held(key string) bool {
	return m.held[key]
}

// Reset forgets all held keys, for example when the window loses focus.
func (m *Modifiers) Reset() {
	clear(m.held)
}
