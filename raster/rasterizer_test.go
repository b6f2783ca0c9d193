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
	"seehuhn.de/go/pdf/graphics"
)

// approaches lists the small-path thresholds which force the 2D buffers
// (A) and the active edge list (B) respectively.
var approaches = []struct {
	name      string
	threshold int
}{
	{"A", 1 << 30},
	{"B", 0},
}

// TestTriangleCoverage verifies exact coverage values for a simple triangle.
// The triangle (0,0)→(10,0)→(10,1)→close has a diagonal edge y = x/10.
// Each pixel X should have coverage (2X+1)/20: 0.05, 0.15, ..., 0.95.
func TestTriangleCoverage(t *testing.T) {
	trianglePath := (&Builder{}).
		MoveTo(vec.Vec2{X: 0, Y: 0}).
		LineTo(vec.Vec2{X: 10, Y: 0}).
		LineTo(vec.Vec2{X: 10, Y: 1}).
		Close()

	for _, approach := range approaches {
		t.Run(approach.name, func(t *testing.T) {
			clip := rect.Rect{LLx: 0, LLy: 0, URx: 10, URy: 1}
			r := NewRasterizer(clip)
			r.smallPathThreshold = approach.threshold

			coverage := make([]float32, 10)
			r.FillNonZero(trianglePath.Path(), func(y, xMin int, cov []float32) {
				if y == 0 {
					for i, c := range cov {
						coverage[xMin+i] = c
					}
				}
			})

			const epsilon = 1e-6
			for x := range 10 {
				expected := float32(2*x+1) / 20.0
				if math.Abs(float64(coverage[x]-expected)) > epsilon {
					t.Errorf("pixel %d: expected coverage %.4f, got %.4f", x, expected, coverage[x])
				}
			}
		})
	}
}

// TestFillExactArea compares the fill of a star polygon with the exact
// area of the polygon inside each pixel.
func TestFillExactArea(t *testing.T) {
	const size = 64
	pts := starPoints(size/2, size/2, size*0.45, size*0.2, 7)
	p := polygonPath(pts)

	for _, approach := range approaches {
		t.Run(approach.name, func(t *testing.T) {
			r := NewRasterizer(rect.Rect{URx: size, URy: size})
			r.smallPathThreshold = approach.threshold
			got := image.NewAlpha(image.Rect(0, 0, size, size))
			r.FillNonZero(p.Path(), alphaEmitter(got))

			for y := range size {
				for x := range size {
					cell := rect.Rect{LLx: float64(x), LLy: float64(y), URx: float64(x + 1), URy: float64(y + 1)}
					want := int(polygonArea(clipPolygon(pts, cell))*255 + 0.5)
					d := int(got.AlphaAt(x, y).A) - want
					if d < -1 || d > 1 {
						t.Fatalf("pixel (%d,%d): coverage %d, want %d", x, y, got.AlphaAt(x, y).A, want)
					}
				}
			}
		})
	}
}

// TestFillAgainstVector compares the fill of a star polygon with the
// output of golang.org/x/image/vector.
func TestFillAgainstVector(t *testing.T) {
	const size = 64
	pts := starPoints(size/2, size/2, size*0.45, size*0.2, 7)
	p := polygonPath(pts)

	v := vector.NewRasterizer(size, size)
	v.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, q := range pts[1:] {
		v.LineTo(float32(q.X), float32(q.Y))
	}
	v.ClosePath()
	ref := image.NewAlpha(image.Rect(0, 0, size, size))
	v.Draw(ref, ref.Bounds(), image.NewUniform(color.Alpha{A: 255}), image.Point{})

	for _, approach := range approaches {
		t.Run(approach.name, func(t *testing.T) {
			r := NewRasterizer(rect.Rect{URx: size, URy: size})
			r.smallPathThreshold = approach.threshold
			got := image.NewAlpha(ref.Rect)
			r.FillNonZero(p.Path(), alphaEmitter(got))

			// x/image/vector is up to 8 levels below the exact coverage
			// along the steep edges of the star.
			worst := 0
			for i := range got.Pix {
				d := int(got.Pix[i]) - int(ref.Pix[i])
				worst = max(worst, d, -d)
			}
			if worst > 8 {
				t.Errorf("max difference to x/image/vector is %d", worst)
			}
		})
	}
}

func TestStrokeArea(t *testing.T) {
	type testCase struct {
		cap  graphics.LineCapStyle
		want float64
	}
	// a horizontal segment of length 60, stroked with width 10
	cases := []testCase{
		{graphics.LineCapButt, 600},
		{graphics.LineCapSquare, 700},
		{graphics.LineCapRound, 600 + math.Pi*25},
	}
	for _, c := range cases {
		for _, approach := range approaches {
			t.Run(fmt.Sprintf("%s_%s", c.cap, approach.name), func(t *testing.T) {
				r := NewRasterizer(rect.Rect{URx: 100, URy: 100})
				r.smallPathThreshold = approach.threshold
				r.Width = 10
				r.Cap = c.cap

				p := (&Builder{}).
					MoveTo(vec.Vec2{X: 20, Y: 50}).
					LineTo(vec.Vec2{X: 80, Y: 50})
				area := 0.0
				r.Stroke(p.Path(), func(y, xMin int, coverage []float32) {
					for _, v := range coverage {
						area += float64(v)
					}
				})
				if math.Abs(area-c.want) > 0.02*c.want {
					t.Errorf("area %.1f, want %.1f", area, c.want)
				}
			})
		}
	}
}

// TestStrokeFreehand checks that a dense, jittery polyline, as produced
// by pointer input, covers its whole neighbourhood without holes.
func TestStrokeFreehand(t *testing.T) {
	r := NewRasterizer(rect.Rect{URx: 200, URy: 100})
	r.Width = 20

	p := &Builder{}
	p.MoveTo(vec.Vec2{X: 20, Y: 50})
	for i := 1; i <= 160; i++ {
		jitter := 1.5 * math.Sin(float64(i)*2.1)
		p.LineTo(vec.Vec2{X: 20 + float64(i), Y: 50 + jitter})
	}

	img := image.NewAlpha(image.Rect(0, 0, 200, 100))
	r.Stroke(p.Path(), alphaEmitter(img))

	for x := 20; x <= 180; x++ {
		for y := 45; y < 55; y++ {
			if a := img.AlphaAt(x, y).A; a != 255 {
				t.Fatalf("pixel (%d,%d) has coverage %d, want 255", x, y, a)
			}
		}
	}
	if a := img.AlphaAt(100, 10).A; a != 0 {
		t.Errorf("pixel far from the stroke has coverage %d", a)
	}
}

func TestStrokeDot(t *testing.T) {
	r := NewRasterizer(rect.Rect{URx: 40, URy: 40})
	r.Width = 10

	p := (&Builder{}).MoveTo(vec.Vec2{X: 20, Y: 20}).LineTo(vec.Vec2{X: 20, Y: 20})
	img := image.NewAlpha(image.Rect(0, 0, 40, 40))
	r.Stroke(p.Path(), alphaEmitter(img))
	if a := img.AlphaAt(20, 20).A; a != 255 {
		t.Errorf("centre coverage %d, want 255", a)
	}

	// butt caps draw nothing for a zero-length subpath
	r.Cap = graphics.LineCapButt
	called := false
	r.Stroke(p.Path(), func(int, int, []float32) { called = true })
	if called {
		t.Error("butt-capped dot produced output")
	}
}

func TestClip(t *testing.T) {
	r := NewRasterizer(rect.Rect{LLx: 10, LLy: 10, URx: 20, URy: 20})
	p := (&Builder{}).
		MoveTo(vec.Vec2{X: 0, Y: 0}).
		LineTo(vec.Vec2{X: 30, Y: 0}).
		LineTo(vec.Vec2{X: 30, Y: 30}).
		LineTo(vec.Vec2{X: 0, Y: 30}).
		Close()
	r.FillNonZero(p.Path(), func(y, xMin int, coverage []float32) {
		if y < 10 || y >= 20 || xMin < 10 || xMin+len(coverage) > 20 {
			t.Errorf("row %d [%d,%d) outside the clip", y, xMin, xMin+len(coverage))
		}
	})
}

func alphaEmitter(dst *image.Alpha) EmitFunc {
	return func(y, xMin int, coverage []float32) {
		row := dst.Pix[dst.PixOffset(xMin, y):]
		for i, c := range coverage {
			row[i] = uint8(min(max(c, 0), 1)*255 + 0.5)
		}
	}
}

func starPoints(cx, cy, outer, inner float64, n int) []vec.Vec2 {
	var pts []vec.Vec2
	for i := range 2 * n {
		rad := outer
		if i%2 == 1 {
			rad = inner
		}
		phi := float64(i) * math.Pi / float64(n)
		pts = append(pts, vec.Vec2{X: cx + rad*math.Sin(phi), Y: cy - rad*math.Cos(phi)})
	}
	return pts
}

func polygonPath(pts []vec.Vec2) *Builder {
	p := &Builder{}
	p.MoveTo(pts[0])
	for _, q := range pts[1:] {
		p.LineTo(q)
	}
	return p.Close()
}

// clipPolygon clips a polygon to an axis-parallel rectangle
// (Sutherland-Hodgman).
func clipPolygon(poly []vec.Vec2, r rect.Rect) []vec.Vec2 {
	type edge struct {
		inside func(vec.Vec2) bool
		cross  func(a, b vec.Vec2) vec.Vec2
	}
	atX := func(x float64) func(a, b vec.Vec2) vec.Vec2 {
		return func(a, b vec.Vec2) vec.Vec2 {
			t := (x - a.X) / (b.X - a.X)
			return vec.Vec2{X: x, Y: a.Y + t*(b.Y-a.Y)}
		}
	}
	atY := func(y float64) func(a, b vec.Vec2) vec.Vec2 {
		return func(a, b vec.Vec2) vec.Vec2 {
			t := (y - a.Y) / (b.Y - a.Y)
			return vec.Vec2{X: a.X + t*(b.X-a.X), Y: y}
		}
	}
	edges := []edge{
		{func(p vec.Vec2) bool { return p.X >= r.LLx }, atX(r.LLx)},
		{func(p vec.Vec2) bool { return p.X <= r.URx }, atX(r.URx)},
		{func(p vec.Vec2) bool { return p.Y >= r.LLy }, atY(r.LLy)},
		{func(p vec.Vec2) bool { return p.Y <= r.URy }, atY(r.URy)},
	}
	for _, e := range edges {
		if len(poly) == 0 {
			break
		}
		var out []vec.Vec2
		prev := poly[len(poly)-1]
		for _, cur := range poly {
			switch {
			case e.inside(cur):
				if !e.inside(prev) {
					out = append(out, e.cross(prev, cur))
				}
				out = append(out, cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
		poly = out
	}
	return poly
}

func polygonArea(poly []vec.Vec2) float64 {
	return math.Abs(signedArea(poly)) / 2
}
