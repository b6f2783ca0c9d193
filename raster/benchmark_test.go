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

package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// BenchmarkRasterizerO fills an "O" shape (outer circle counter-clockwise,
// inner circle clockwise) with the nonzero rule.
func BenchmarkRasterizerO(b *testing.B) {
	for _, size := range []int{20, 200, 2000} {
		b.Run(fmt.Sprintf("%dx%d", size, size), func(b *testing.B) {
			clip := rect.Rect{URx: float64(size), URy: float64(size)}
			r := NewRasterizer(clip)
			dst := image.NewAlpha(image.Rect(0, 0, size, size))

			c := float64(size) / 2
			p := &Builder{}
			addCircle(p, c, c, float64(size)*0.45, false)
			addCircle(p, c, c, float64(size)*0.30, true)

			b.ReportAllocs()
			for b.Loop() {
				r.FillNonZero(p.Path(), alphaEmitter(dst))
			}
		})
	}
}

// BenchmarkVectorO draws the same shape with golang.org/x/image/vector.
func BenchmarkVectorO(b *testing.B) {
	for _, size := range []int{20, 200, 2000} {
		b.Run(fmt.Sprintf("%dx%d", size, size), func(b *testing.B) {
			r := vector.NewRasterizer(size, size)
			dst := image.NewAlpha(image.Rect(0, 0, size, size))
			src := image.NewUniform(color.Alpha{A: 255})

			c := float32(size) / 2
			b.ReportAllocs()
			for b.Loop() {
				r.Reset(size, size)
				addCircleToVector(r, c, c, float32(size)*0.45, false)
				addCircleToVector(r, c, c, float32(size)*0.30, true)
				r.Draw(dst, dst.Bounds(), src, image.Point{})
			}
		})
	}
}

// BenchmarkLayerStroke measures pointer-rate painting: a wavy stroke made
// of short segments, composited one segment at a time.
func BenchmarkLayerStroke(b *testing.B) {
	for _, size := range []float64{5, 50, 200} {
		b.Run(fmt.Sprintf("brush%g", size), func(b *testing.B) {
			l := NewLayer(2000, 1000)
			pts := make([]vec.Vec2, 500)
			for i := range pts {
				x := 100 + 3.6*float64(i)
				pts[i] = vec.Vec2{X: x, Y: 500 + 300*math.Sin(x/150)}
			}

			b.ReportAllocs()
			for b.Loop() {
				l.BeginStroke(pts[0], Brush, size, 60)
				for _, p := range pts[1:] {
					l.ContinueStroke(p)
				}
				l.EndStroke()
			}
		})
	}
}

// addCircle appends a circle made of four cubic Bézier curves.
func addCircle(p *Builder, cx, cy, r float64, clockwise bool) {
	const k = 0.5522847498
	kr := k * r
	s := 1.0
	if clockwise {
		s = -1
	}
	pt := func(x, y float64) vec.Vec2 { return vec.Vec2{X: cx + s*x, Y: cy + y} }

	p.MoveTo(pt(0, -r))
	p.CubeTo(pt(kr, -r), pt(r, -kr), pt(r, 0))
	p.CubeTo(pt(r, kr), pt(kr, r), pt(0, r))
	p.CubeTo(pt(-kr, r), pt(-r, kr), pt(-r, 0))
	p.CubeTo(pt(-r, -kr), pt(-kr, -r), pt(0, -r))
	p.Close()
}

// addCircleToVector adds a circle to a vector.Rasterizer using cubic Bézier curves.
func addCircleToVector(r *vector.Rasterizer, cx, cy, radius float32, clockwise bool) {
	const k = float32(0.5522847498)
	kr := k * radius
	s := float32(1)
	if clockwise {
		s = -1
	}

	r.MoveTo(cx, cy-radius)
	r.CubeTo(cx+s*kr, cy-radius, cx+s*radius, cy-kr, cx+s*radius, cy)
	r.CubeTo(cx+s*radius, cy+kr, cx+s*kr, cy+radius, cx, cy+radius)
	r.CubeTo(cx-s*kr, cy+radius, cx-s*radius, cy+kr, cx-s*radius, cy)
	r.CubeTo(cx-s*radius, cy-kr, cx-s*kr, cy-radius, cx, cy-radius)
	r.ClosePath()
}
