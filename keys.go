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
	"fmt"
	"strings"
)

// Key is a keyboard event. Name is the key name as reported by the UI,
// for example "b", "[", "Escape" or "Delete".
type Key struct {
	Name  string
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

// ParseKey parses key descriptions like "b", "ctrl+z" or "ctrl+shift+z".
// Modifier names are case-insensitive; "cmd" is an alias for "meta".
func ParseKey(s string) (Key, error) {
	var k Key
	mods, name := "", s
	if strings.HasSuffix(s, "++") {
		mods, name = s[:len(s)-2], "+"
	} else if i := strings.LastIndex(s, "+"); i >= 0 {
		mods, name = s[:i], s[i+1:]
	}
	if name == "" {
		return Key{}, fmt.Errorf("invalid key %q", s)
	}
	k.Name = name
	if mods == "" {
		return k, nil
	}
	for _, m := range strings.Split(mods, "+") {
		switch strings.ToLower(m) {
		case "ctrl", "control":
			k.Ctrl = true
		case "shift":
			k.Shift = true
		case "alt":
			k.Alt = true
		case "meta", "cmd":
			k.Meta = true
		default:
			return Key{}, fmt.Errorf("invalid modifier %q in key %q", m, s)
		}
	}
	return k, nil
}

func (k Key) String() string {
	var b strings.Builder
	if k.Ctrl {
		b.WriteString("ctrl+")
	}
	if k.Meta {
		b.WriteString("meta+")
	}
	if k.Alt {
		b.WriteString("alt+")
	}
	if k.Shift {
		b.WriteString("shift+")
	}
	b.WriteString(k.Name)
	return b.String()
}

// command returns true if the platform command modifier is held.
func (k Key) command() bool {
	return k.Ctrl || k.Meta
}

// Action tells the UI what to do after a key press.
type Action int

const (
	// ActionNone means the key was not handled by the editor.
	ActionNone Action = iota

	// ActionHandled means the editor consumed the key.
	ActionHandled

	// ActionSave asks the UI to call Save, which may block.
	ActionSave
)
