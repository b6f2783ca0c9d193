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

package composite

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pageedit/overlay"
)

// Shadow describes the drop shadow behind text. Lengths are in pixels at
// the reference width and are scaled like font sizes.
type Shadow struct {
	Dx, Dy  float64 // offset
	Radius  float64 // blur radius
	Opacity float64 // in [0, 1]; 0 disables the shadow
	Color   color.NRGBA
}

// DefaultShadow returns a soft black shadow, offset down and to the right.
func DefaultShadow() Shadow {
	return Shadow{Dx: 2, Dy: 2, Radius: 3, Opacity: 0.8, Color: color.NRGBA{A: 255}}
}

func (s Shadow) normalize() Shadow {
	s.Radius = max(s.Radius, 0)
	s.Opacity = min(max(s.Opacity, 0), 1)
	return s
}

func (s Shadow) scaled(f float64) Shadow {
	s.Dx *= f
	s.Dy *= f
	s.Radius *= f
	return s
}

// offset returns the shadow offset rounded to whole pixels.
func (s Shadow) offset() image.Point {
	return image.Pt(int(math.Round(s.Dx)), int(math.Round(s.Dy)))
}

// blur returns a blurred copy of mask with the same bounds. The blur
// scales the mask down by the radius and back up again with a bilinear
// kernel, which is close enough to a Gaussian for a text shadow.
func blur(mask *image.Alpha, radius float64) *image.Alpha {
	if radius < 1 {
		return mask
	}
	r := mask.Rect
	small := image.NewAlpha(image.Rect(0, 0,
		max(1, int(float64(r.Dx())/radius)),
		max(1, int(float64(r.Dy())/radius))))
	draw.BiLinear.Scale(small, small.Rect, mask, r, draw.Src, nil)

	out := image.NewAlpha(r)
	draw.BiLinear.Scale(out, r, small, small.Rect, draw.Src, nil)
	return out
}

func vecOf(el overlay.Element) vec.Vec2 {
	return vec.Vec2{X: el.X, Y: el.Y}
}
