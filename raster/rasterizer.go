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
	"cmp"
	"math"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// An EmitFunc receives the coverage of one pixel row. Coverage values are
// in [0, 1]; coverage[i] belongs to pixel (xMin+i, y). The slice is only
// valid during the call.
type EmitFunc func(y, xMin int, coverage []float32)

// edge is a non-horizontal line segment in device coordinates.
type edge struct {
	x0, y0 float64
	x1, y1 float64
	dxdy   float64 // (x1-x0)/(y1-y0)
}

func (e *edge) yRange() (lo, hi float64) {
	return min(e.y0, e.y1), max(e.y0, e.y1)
}

// Rasterizer turns paths into anti-aliased pixel coverage. It fills with
// the nonzero winding rule and strokes with configurable caps and joins.
//
// Internal buffers grow as needed and are reused between calls, so a
// long-lived Rasterizer does not allocate in steady state.
// A Rasterizer is not safe for concurrent use.
type Rasterizer struct {
	// CTM maps user space to device (pixel) space.
	CTM matrix.Matrix

	// Clip restricts output to an integer-aligned device rectangle.
	Clip rect.Rect

	// Flatness is the maximal deviation, in device pixels, allowed when
	// approximating curves and arcs by line segments.
	Flatness float64

	// Width is the stroke width in user-space units.
	Width float64

	// Cap and Join select the stroke end and corner styles.
	Cap  graphics.LineCapStyle
	Join graphics.LineJoinStyle

	// MiterLimit bounds the length of miter joins. Must be at least 1.
	MiterLimit float64

	// smallPathThreshold is the bounding box area, in pixels, below which
	// the 2D accumulation buffers are used instead of an active edge list.
	smallPathThreshold int

	cover   []float32 // signed vertical extent per pixel, reused as output
	area    []float32 // position-weighted extent per pixel
	edges   []edge
	active  []int  // indices into edges, for the active edge list
	rowUsed []bool // per-row flag for the 2D buffers

	segs       []segment  // flattened stroke segments of all subpaths
	subpaths   []subpath  // ranges into segs
	dots       []vec.Vec2 // subpaths without any extent
	pieces     []vec.Vec2 // stroke pieces, polygons stored back to back
	pieceStart []int      // start index of each polygon in pieces

	bboxEmpty          bool
	bboxXMin, bboxXMax float64
	bboxYMin, bboxYMax float64
}

// NewRasterizer returns a Rasterizer for the given clip rectangle, with an
// identity CTM, unit line width, round caps and round joins.
func NewRasterizer(clip rect.Rect) *Rasterizer {
	r := &Rasterizer{smallPathThreshold: smallPathThreshold}
	r.Reset(clip)
	return r
}

// Reset restores the default parameters and sets a new clip rectangle.
// Buffer capacity is kept.
func (r *Rasterizer) Reset(clip rect.Rect) {
	r.CTM = matrix.Identity
	r.Clip = clip
	r.Flatness = defaultFlatness
	r.Width = 1
	r.Cap = graphics.LineCapRound
	r.Join = graphics.LineJoinRound
	r.MiterLimit = defaultMiterLimit

	r.edges = r.edges[:0]
	r.active = r.active[:0]
	r.segs = r.segs[:0]
	r.subpaths = r.subpaths[:0]
	r.dots = r.dots[:0]
	r.pieces = r.pieces[:0]
	r.pieceStart = r.pieceStart[:0]
}

// FillNonZero fills p using the nonzero winding rule. Open subpaths are
// closed implicitly.
func (r *Rasterizer) FillNonZero(p path.Path, emit EmitFunc) {
	r.beginEdges()

	var cur, start vec.Vec2
	open := false
	for cmd, pts := range p {
		switch cmd {
		case path.CmdMoveTo:
			if open && cur != start {
				r.addEdge(cur, start)
			}
			cur = pts[0]
			start = cur
			open = true
		case path.CmdLineTo:
			r.addEdge(cur, pts[0])
			cur = pts[0]
		case path.CmdQuadTo:
			r.flattenQuadratic(cur, pts[0], pts[1], r.addEdge)
			cur = pts[1]
		case path.CmdCubeTo:
			r.flattenCubic(cur, pts[0], pts[1], pts[2], r.addEdge)
			cur = pts[2]
		case path.CmdClose:
			if cur != start {
				r.addEdge(cur, start)
			}
			cur = start
		}
	}
	if open && cur != start {
		r.addEdge(cur, start)
	}

	r.rasterizeEdges(emit)
}

// beginEdges empties the edge list and its bounding box.
func (r *Rasterizer) beginEdges() {
	r.edges = r.edges[:0]
	r.bboxEmpty = true
}

// addEdge transforms a user-space segment to device space and adds it to
// the edge list. Horizontal segments do not contribute and are dropped.
func (r *Rasterizer) addEdge(p0, p1 vec.Vec2) {
	m := r.CTM
	x0 := m[0]*p0.X + m[2]*p0.Y + m[4]
	y0 := m[1]*p0.X + m[3]*p0.Y + m[5]
	x1 := m[0]*p1.X + m[2]*p1.Y + m[4]
	y1 := m[1]*p1.X + m[3]*p1.Y + m[5]

	dy := y1 - y0
	if math.Abs(dy) < horizontalEdgeThreshold {
		return
	}
	r.edges = append(r.edges, edge{x0: x0, y0: y0, x1: x1, y1: y1, dxdy: (x1 - x0) / dy})

	if r.bboxEmpty {
		r.bboxXMin, r.bboxXMax = min(x0, x1), max(x0, x1)
		r.bboxYMin, r.bboxYMax = min(y0, y1), max(y0, y1)
		r.bboxEmpty = false
		return
	}
	r.bboxXMin = min(r.bboxXMin, x0, x1)
	r.bboxXMax = max(r.bboxXMax, x0, x1)
	r.bboxYMin = min(r.bboxYMin, y0, y1)
	r.bboxYMax = max(r.bboxYMax, y0, y1)
}

// rasterizeEdges fills the current edge list with the nonzero rule.
func (r *Rasterizer) rasterizeEdges(emit EmitFunc) {
	if len(r.edges) == 0 {
		return
	}
	xMin := max(int(math.Floor(r.bboxXMin)), int(r.Clip.LLx))
	xMax := min(int(math.Floor(r.bboxXMax))+1, int(r.Clip.URx))
	yMin := max(int(math.Floor(r.bboxYMin)), int(r.Clip.LLy))
	yMax := min(int(math.Floor(r.bboxYMax))+1, int(r.Clip.URy))
	if xMin >= xMax || yMin >= yMax {
		return
	}

	if (xMax-xMin)*(yMax-yMin) < r.smallPathThreshold {
		r.fillSmall(xMin, xMax, yMin, yMax, emit)
	} else {
		r.fillLarge(xMin, xMax, yMin, yMax, emit)
	}
}

// transformLinear applies the linear part of the CTM.
func (r *Rasterizer) transformLinear(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: r.CTM[0]*v.X + r.CTM[2]*v.Y,
		Y: r.CTM[1]*v.X + r.CTM[3]*v.Y,
	}
}

// flattenQuadratic approximates a quadratic Bézier by line segments whose
// device-space error is at most Flatness.
func (r *Rasterizer) flattenQuadratic(p0, p1, p2 vec.Vec2, emit func(a, b vec.Vec2)) {
	dev := r.transformLinear(p0.Sub(p1.Mul(2)).Add(p2).Mul(0.25)).Length()
	n := 1
	if dev > r.Flatness {
		n = int(math.Ceil(math.Sqrt(dev / r.Flatness)))
	}
	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		s := 1 - t
		pt := p0.Mul(s * s).Add(p1.Mul(2 * s * t)).Add(p2.Mul(t * t))
		emit(prev, pt)
		prev = pt
	}
}

// flattenCubic approximates a cubic Bézier by line segments, choosing the
// segment count with Wang's formula.
func (r *Rasterizer) flattenCubic(p0, p1, p2, p3 vec.Vec2, emit func(a, b vec.Vec2)) {
	d1 := r.transformLinear(p0.Sub(p1.Mul(2)).Add(p2)).Length()
	d2 := r.transformLinear(p1.Sub(p2.Mul(2)).Add(p3)).Length()
	n := 1
	if m := max(d1, d2); m > 0 {
		n = max(1, int(math.Ceil(math.Sqrt(3*m/(4*r.Flatness)))))
	}
	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		s := 1 - t
		pt := p0.Mul(s * s * s).Add(p1.Mul(3 * s * s * t)).Add(p2.Mul(3 * s * t * t)).Add(p3.Mul(t * t * t))
		emit(prev, pt)
		prev = pt
	}
}

// Coverage accumulation.
//
// Every edge crossing pixel (x, y) adds two numbers:
//
//	cover[x] += sign * dy
//	area[x]  += sign * dy * (1 - xFrac)
//
// where dy is the vertical extent of the edge inside the pixel, sign is +1
// for downward and -1 for upward edges, and xFrac is the horizontal
// position of the crossing within the pixel. Scanning a row from left to
// right, the signed area covered in pixel x is the running sum of cover
// over all pixels left of x, plus area[x]. Its absolute value, clamped to
// 1, is the nonzero coverage.

// accumulate adds the contribution of e to row y. cover and area are
// indexed relative to x0; contributions left of x0 are folded into
// index 0, contributions right of x1 are dropped.
func accumulate(e *edge, y int, cover, area []float32, x0, x1 int) {
	lo, hi := e.yRange()
	top := max(float64(y), lo)
	bot := min(float64(y+1), hi)
	if bot <= top {
		return
	}

	sign := float32(1)
	if e.y1 < e.y0 {
		sign = -1
	}

	xa := e.x0 + e.dxdy*(top-e.y0)
	xb := e.x0 + e.dxdy*(bot-e.y0)
	left := int(math.Floor(min(xa, xb)))
	right := int(math.Floor(max(xa, xb)))

	switch {
	case right < x0:
		c := sign * float32(bot-top)
		cover[0] += c
		area[0] += c
		return
	case left >= x1:
		return
	case left == right:
		addCrossing(e, top, bot, sign, left, cover, area, x0, x1)
		return
	}

	// The edge crosses several columns: split it at the column boundaries.
	dydx := 1 / e.dxdy
	for pix := left; pix <= right; pix++ {
		ya := e.y0 + dydx*(float64(pix)-e.x0)
		yb := e.y0 + dydx*(float64(pix+1)-e.x0)
		segTop := max(min(ya, yb), top)
		segBot := min(max(ya, yb), bot)
		if segBot <= segTop {
			continue
		}
		addCrossing(e, segTop, segBot, sign, pix, cover, area, x0, x1)
	}
}

// addCrossing records the part of e between top and bot, which lies in
// pixel column pix.
func addCrossing(e *edge, top, bot float64, sign float32, pix int, cover, area []float32, x0, x1 int) {
	c := sign * float32(bot-top)
	if pix < x0 {
		cover[0] += c
		area[0] += c
		return
	}
	if pix >= x1 {
		return
	}
	xMid := e.x0 + e.dxdy*((top+bot)/2-e.y0)
	frac := xMid - float64(pix)
	i := pix - x0
	cover[i] += c
	area[i] += c * float32(1-frac)
}

// integrateRow turns one row of accumulated cover/area values into nonzero
// coverage. The result overwrites cover.
func integrateRow(cover, area []float32) {
	var acc float32
	for i := range cover {
		v := acc + area[i]
		acc += cover[i]
		if v < 0 {
			v = -v
		}
		cover[i] = min(v, 1)
	}
}

// trimZeros strips zero coverage from both ends of a row.
func trimZeros(cov []float32) ([]float32, int) {
	lo, hi := 0, len(cov)
	for lo < hi && cov[lo] == 0 {
		lo++
	}
	for hi > lo && cov[hi-1] == 0 {
		hi--
	}
	if lo == hi {
		return nil, 0
	}
	return cov[lo:hi], lo
}

// fillSmall accumulates all edges into a 2D buffer covering the bounding
// box and emits the rows afterwards.
func (r *Rasterizer) fillSmall(xMin, xMax, yMin, yMax int, emit EmitFunc) {
	w, h := xMax-xMin, yMax-yMin
	n := w * h
	r.cover = slices.Grow(r.cover[:0], n)[:n]
	r.area = slices.Grow(r.area[:0], n)[:n]
	clear(r.cover)
	clear(r.area)
	r.rowUsed = slices.Grow(r.rowUsed[:0], h)[:h]
	clear(r.rowUsed)

	for i := range r.edges {
		e := &r.edges[i]
		lo, hi := e.yRange()
		first := max(int(math.Floor(lo)), yMin)
		last := min(int(math.Floor(hi))+1, yMax)
		for y := first; y < last; y++ {
			row := (y - yMin) * w
			accumulate(e, y, r.cover[row:row+w], r.area[row:row+w], xMin, xMax)
			r.rowUsed[y-yMin] = true
		}
	}

	for j := range h {
		if !r.rowUsed[j] {
			continue
		}
		row := j * w
		cov := r.cover[row : row+w]
		integrateRow(cov, r.area[row:row+w])
		if t, off := trimZeros(cov); t != nil {
			emit(yMin+j, xMin+off, t)
		}
	}
}

// fillLarge walks the scanlines with an active edge list and a single row
// of accumulation buffers.
func (r *Rasterizer) fillLarge(xMin, xMax, yMin, yMax int, emit EmitFunc) {
	w := xMax - xMin
	r.cover = slices.Grow(r.cover[:0], w)[:w]
	r.area = slices.Grow(r.area[:0], w)[:w]

	slices.SortFunc(r.edges, func(a, b edge) int {
		return cmp.Compare(min(a.y0, a.y1), min(b.y0, b.y1))
	})

	r.active = r.active[:0]
	next := 0
	for y := yMin; y < yMax; y++ {
		top, bot := float64(y), float64(y+1)
		for next < len(r.edges) && min(r.edges[next].y0, r.edges[next].y1) < bot {
			r.active = append(r.active, next)
			next++
		}
		if len(r.active) == 0 {
			continue
		}

		clear(r.cover)
		clear(r.area)
		touched := false
		for i := 0; i < len(r.active); {
			e := &r.edges[r.active[i]]
			if _, hi := e.yRange(); hi <= top {
				r.active[i] = r.active[len(r.active)-1]
				r.active = r.active[:len(r.active)-1]
				continue
			}
			accumulate(e, y, r.cover, r.area, xMin, xMax)
			touched = true
			i++
		}
		if !touched {
			continue
		}

		integrateRow(r.cover, r.area)
		if t, off := trimZeros(r.cover); t != nil {
			emit(y, xMin+off, t)
		}
	}
}

// Default values for rasterizer parameters.
const (
	// defaultFlatness is the curve and arc tolerance in device pixels.
	// 0.25 is below what can be seen.
	defaultFlatness = 0.25

	// defaultMiterLimit matches PDF/PostScript.
	defaultMiterLimit = 10.0
)

// Numerical tolerances.
const (
	// horizontalEdgeThreshold is the minimal vertical extent of an edge.
	horizontalEdgeThreshold = 1e-10

	// smallPathThreshold is the bounding box area (pixels) up to which
	// the 2D accumulation buffers are used.
	// TODO: tune this threshold based on profiling
	smallPathThreshold = 65536

	// zeroLengthThreshold is the minimal length of a stroke segment.
	zeroLengthThreshold = 1e-10

	// collinearityThreshold is the |sin| below which two consecutive
	// segments are treated as collinear and get no join.
	collinearityThreshold = 1e-6
)
