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

// Package coord converts between the three coordinate systems of the
// editor: display space (pointer positions relative to the viewport),
// buffer space (natural image pixels, used by the raster layer) and
// percent space (0–100 of the rendered container, used by text overlays).
//
// All functions are pure. Scale factors are derived from the rectangles
// passed in on every call, so results stay correct while the container is
// being resized.
package coord

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// ToBufferSpace maps a pointer position in display space to buffer space.
// The display rectangle is the on-screen box of the image; bufW and bufH
// are the natural image dimensions.
//
// Points outside the display rectangle map to points outside the buffer.
// They are not clamped, since strokes may legitimately leave the image.
func ToBufferSpace(pointer vec.Vec2, display rect.Rect, bufW, bufH int) vec.Vec2 {
	x, y := DisplayToBuffer(display, bufW, bufH).Apply(pointer.X, pointer.Y)
	return vec.Vec2{X: x, Y: y}
}

// ToPercentSpace maps a pointer position in display space to percent
// space of the container. The result is clamped to [0, 100].
func ToPercentSpace(pointer vec.Vec2, container rect.Rect) vec.Vec2 {
	w := container.URx - container.LLx
	h := container.URy - container.LLy
	var p vec.Vec2
	if w > 0 {
		p.X = (pointer.X - container.LLx) / w * 100
	}
	if h > 0 {
		p.Y = (pointer.Y - container.LLy) / h * 100
	}
	return ClampPercent(p)
}

// ClampPercent clamps both components of p to [0, 100].
func ClampPercent(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: clamp(p.X, 0, 100), Y: clamp(p.Y, 0, 100)}
}

// PercentToPixel maps a percent-space position to the pixel grid of an
// image with the given dimensions.
func PercentToPixel(p vec.Vec2, width, height int) vec.Vec2 {
	return vec.Vec2{
		X: p.X / 100 * float64(width),
		Y: p.Y / 100 * float64(height),
	}
}

// DisplayToBuffer returns the affine map from display space to buffer
// space, in the [a b c d e f] layout used by seehuhn.de/go/geom/matrix:
// x' = a*x + c*y + e, y' = b*x + d*y + f.
func DisplayToBuffer(display rect.Rect, bufW, bufH int) matrix.Matrix {
	sx, sy := bufferScale(display, bufW, bufH)
	return matrix.Matrix{sx, 0, 0, sy, -display.LLx * sx, -display.LLy * sy}
}

// BufferToDisplayLength converts a length in buffer units (for example a
// brush diameter) to display units, using the horizontal scale.
// It is used to size the brush cursor preview.
func BufferToDisplayLength(l float64, display rect.Rect, bufW int) float64 {
	if bufW <= 0 {
		return 0
	}
	return l * (display.URx - display.LLx) / float64(bufW)
}

// bufferScale returns the display-to-buffer scale factors. A degenerate
// display rectangle yields zero factors, so that every pointer maps to
// the buffer origin instead of producing Inf or NaN.
func bufferScale(display rect.Rect, bufW, bufH int) (sx, sy float64) {
	w := display.URx - display.LLx
	h := display.URy - display.LLy
	if w > 0 {
		sx = float64(bufW) / w
	}
	if h > 0 {
		sy = float64(bufH) / h
	}
	return sx, sy
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
