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

// Package overlay holds the text elements placed on top of a page.
//
// Positions are percentages of the rendered container, so that an element
// keeps its relative place whatever the zoom level or display size. Pixel
// positions are only computed when the page is composited.
package overlay

import (
	"image/color"
	"slices"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pageedit/coord"
)

// Element is a single text overlay.
type Element struct {
	ID       string
	Text     string
	X, Y     float64 // percent of the container, in [0, 100]
	FontSize float64 // at the reference width, see package composite
	Color    color.NRGBA
}

// Layer is an ordered collection of text elements. Elements are kept in
// insertion order, which is also the order in which they are drawn.
//
// A Layer is not safe for concurrent use.
type Layer struct {
	elems []Element
	next  int
}

// New returns an empty text layer.
func New() *Layer {
	return &Layer{}
}

// Add creates a new element at the percentage position (x, y) and returns
// a copy of it. The position is clamped to [0, 100].
//
// If prefill is empty, the caller is expected to start editing the new
// element right away, so that it does not stay blank.
func (l *Layer) Add(x, y, fontSize float64, c color.NRGBA, prefill string) Element {
	l.next++
	p := coord.ClampPercent(vec.Vec2{X: x, Y: y})
	e := Element{
		ID:       "text-" + strconv.Itoa(l.next),
		Text:     prefill,
		X:        p.X,
		Y:        p.Y,
		FontSize: fontSize,
		Color:    c,
	}
	l.elems = append(l.elems, e)
	return e
}

// Edit sets the text of an element. If the new text is empty after
// trimming white space, the element is removed instead.
// The ok result is false if there is no element with the given id.
func (l *Layer) Edit(id, text string) (removed, ok bool) {
	i := l.index(id)
	if i < 0 {
		return false, false
	}
	if strings.TrimSpace(text) == "" {
		l.elems = slices.Delete(l.elems, i, i+1)
		return true, true
	}
	l.elems[i].Text = text
	return false, true
}

// Move sets the position of an element, clamped to [0, 100].
func (l *Layer) Move(id string, x, y float64) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	p := coord.ClampPercent(vec.Vec2{X: x, Y: y})
	l.elems[i].X, l.elems[i].Y = p.X, p.Y
	return true
}

// Remove deletes an element.
func (l *Layer) Remove(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.elems = slices.Delete(l.elems, i, i+1)
	return true
}

// RecolorAll sets the colour of every element. It reports whether any
// element changed.
func (l *Layer) RecolorAll(c color.NRGBA) bool {
	changed := false
	for i := range l.elems {
		if l.elems[i].Color != c {
			l.elems[i].Color = c
			changed = true
		}
	}
	return changed
}

// Get returns the element with the given id.
func (l *Layer) Get(id string) (Element, bool) {
	i := l.index(id)
	if i < 0 {
		return Element{}, false
	}
	return l.elems[i], true
}

// Elements returns a copy of all elements, in insertion order.
func (l *Layer) Elements() []Element {
	return slices.Clone(l.elems)
}

// Len returns the number of elements.
func (l *Layer) Len() int {
	return len(l.elems)
}

// Snapshot returns an independent copy of the elements.
// Elements contain no references, so a shallow slice copy is deep.
func (l *Layer) Snapshot() []Element {
	return slices.Clone(l.elems)
}

// Restore replaces all elements by a copy of snap. The id counter is not
// rewound, so that ids stay unique for the lifetime of the layer.
func (l *Layer) Restore(snap []Element) {
	l.elems = append(l.elems[:0], snap...)
}

func (l *Layer) index(id string) int {
	return slices.IndexFunc(l.elems, func(e Element) bool { return e.ID == id })
}
