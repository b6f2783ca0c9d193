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
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// segment is a flattened stroke segment in user space.
type segment struct {
	A, B vec.Vec2 // end points
	T    vec.Vec2 // unit tangent, A→B
	N    vec.Vec2 // unit normal, 90° counter-clockwise from T
}

// subpath is a range [start, end) of segments.
type subpath struct {
	start, end int
	closed     bool
}

// Stroke renders the outline of p using Width, Cap, Join and MiterLimit.
//
// The stroke is decomposed into convex pieces: one quadrilateral per
// segment, plus cap and join geometry. All pieces are oriented the same
// way and filled together with the nonzero rule, which yields their union.
// Unlike a single offset outline, this stays correct for freehand input
// where segments are much shorter than the stroke width.
func (r *Rasterizer) Stroke(p path.Path, emit EmitFunc) {
	r.flatten(p)
	if len(r.subpaths) == 0 && len(r.dots) == 0 {
		return
	}

	r.pieces = r.pieces[:0]
	r.pieceStart = r.pieceStart[:0]
	d := r.Width / 2

	if r.Cap == graphics.LineCapRound {
		for _, pt := range r.dots {
			r.addDisc(pt, d)
		}
	}

	for _, sp := range r.subpaths {
		segs := r.segs[sp.start:sp.end]
		for i := range segs {
			r.addSegmentPiece(&segs[i], d)
			if i > 0 {
				r.addJoinPiece(&segs[i-1], &segs[i], d)
			}
		}
		if sp.closed {
			if len(segs) > 1 {
				r.addJoinPiece(&segs[len(segs)-1], &segs[0], d)
			}
			continue
		}
		first, last := &segs[0], &segs[len(segs)-1]
		r.addCapPiece(first.A, first.T.Mul(-1), d)
		r.addCapPiece(last.B, last.T, d)
	}

	r.fillPieces(emit)
}

// flatten walks p and stores its subpaths as segments. Subpaths which
// contain drawing commands but have no extent are collected in r.dots.
func (r *Rasterizer) flatten(p path.Path) {
	r.segs = r.segs[:0]
	r.subpaths = r.subpaths[:0]
	r.dots = r.dots[:0]

	var cur, start vec.Vec2
	first := 0
	inSubpath, drawn := false, false

	finish := func(closed bool) {
		if !inSubpath || !drawn {
			return
		}
		if len(r.segs) == first {
			r.dots = append(r.dots, start)
			return
		}
		r.subpaths = append(r.subpaths, subpath{start: first, end: len(r.segs), closed: closed})
	}

	for cmd, pts := range p {
		switch cmd {
		case path.CmdMoveTo:
			finish(false)
			cur = pts[0]
			start = cur
			first = len(r.segs)
			inSubpath, drawn = true, false
		case path.CmdLineTo:
			if inSubpath {
				r.addSegment(cur, pts[0])
				cur = pts[0]
				drawn = true
			}
		case path.CmdQuadTo:
			if inSubpath {
				r.flattenQuadratic(cur, pts[0], pts[1], r.addSegment)
				cur = pts[1]
				drawn = true
			}
		case path.CmdCubeTo:
			if inSubpath {
				r.flattenCubic(cur, pts[0], pts[1], pts[2], r.addSegment)
				cur = pts[2]
				drawn = true
			}
		case path.CmdClose:
			if inSubpath {
				if cur != start {
					r.addSegment(cur, start)
				}
				drawn = true
				finish(true)
				cur = start
				first = len(r.segs)
				inSubpath, drawn = false, false
			}
		}
	}
	finish(false)
}

// addSegment appends the segment a→b, skipping degenerate ones.
func (r *Rasterizer) addSegment(a, b vec.Vec2) {
	d := b.Sub(a)
	l := d.Length()
	if l < zeroLengthThreshold {
		return
	}
	t := d.Mul(1 / l)
	r.segs = append(r.segs, segment{A: a, B: b, T: t, N: vec.Vec2{X: -t.Y, Y: t.X}})
}

// addSegmentPiece adds the rectangle swept by a segment.
func (r *Rasterizer) addSegmentPiece(s *segment, d float64) {
	off := s.N.Mul(d)
	r.beginPiece()
	r.pieces = append(r.pieces, s.A.Add(off), s.B.Add(off), s.B.Sub(off), s.A.Sub(off))
}

// addCapPiece adds the cap at the end point P of an open subpath.
// T points away from the stroke.
func (r *Rasterizer) addCapPiece(P, T vec.Vec2, d float64) {
	switch r.Cap {
	case graphics.LineCapRound:
		r.addDisc(P, d)
	case graphics.LineCapSquare:
		N := vec.Vec2{X: -T.Y, Y: T.X}
		ext := P.Add(T.Mul(d))
		r.beginPiece()
		r.pieces = append(r.pieces, P.Add(N.Mul(d)), ext.Add(N.Mul(d)), ext.Sub(N.Mul(d)), P.Sub(N.Mul(d)))
	}
}

// addJoinPiece adds the join geometry at the corner between s1 and s2.
// Only the outer side of the corner needs filling; the inner side is
// already covered by the two segment rectangles.
func (r *Rasterizer) addJoinPiece(s1, s2 *segment, d float64) {
	P := s1.B
	sin := s1.T.X*s2.T.Y - s1.T.Y*s2.T.X
	if math.Abs(sin) < collinearityThreshold && s1.T.Dot(s2.T) > 0 {
		return
	}

	if r.Join == graphics.LineJoinRound {
		r.addDisc(P, d)
		return
	}

	// For sin > 0 the path turns towards +N, so the outer side is -N.
	n1, n2 := s1.N.Mul(d), s2.N.Mul(d)
	if sin > 0 {
		n1, n2 = n1.Mul(-1), n2.Mul(-1)
	}
	o1, o2 := P.Add(n1), P.Add(n2)

	if r.Join == graphics.LineJoinMiter {
		cos := s1.T.Dot(s2.T)
		// Half the interior angle φ satisfies sin(φ/2) = cos(θ/2).
		sinHalf := math.Sqrt((1 + cos) / 2)
		if sinHalf > 0 && 1/sinHalf <= r.MiterLimit+1e-10 {
			bis := n1.Add(n2)
			if l := bis.Length(); l > zeroLengthThreshold {
				tip := P.Add(bis.Mul(d / sinHalf / l))
				r.beginPiece()
				r.pieces = append(r.pieces, P, o1, tip, o2)
				return
			}
		}
	}

	// bevel, or miter beyond the limit
	r.beginPiece()
	r.pieces = append(r.pieces, P, o1, o2)
}

// addDisc adds a full circle of radius d around center.
func (r *Rasterizer) addDisc(center vec.Vec2, d float64) {
	r.beginPiece()
	r.addArc(center, d, vec.Vec2{X: 1, Y: 0}, 2*math.Pi, false)
}

// addArc appends arc vertices to the current piece. The number of
// vertices is chosen so that the chord error in device space stays below
// Flatness. If includeEnd is false, the final vertex (which coincides with
// the start for full circles) is omitted.
func (r *Rasterizer) addArc(center vec.Vec2, radius float64, startDir vec.Vec2, sweep float64, includeEnd bool) {
	devRadius := max(
		r.transformLinear(vec.Vec2{X: radius}).Length(),
		r.transformLinear(vec.Vec2{Y: radius}).Length(),
	)

	n := 4
	if devRadius > r.Flatness {
		// A chord spanning angle θ deviates from the circle by
		// r(1 - cos(θ/2)); solve for the largest θ within tolerance.
		step := 2 * math.Acos(1-r.Flatness/devRadius)
		if step > 0 && !math.IsNaN(step) {
			n = max(n, int(math.Ceil(math.Abs(sweep)/step)))
		}
	}

	last := n - 1
	if includeEnd {
		last = n
	}
	dt := sweep / float64(n)
	for i := 0; i <= last; i++ {
		sin, cos := math.Sincos(float64(i) * dt)
		dir := vec.Vec2{
			X: startDir.X*cos - startDir.Y*sin,
			Y: startDir.X*sin + startDir.Y*cos,
		}
		r.pieces = append(r.pieces, center.Add(dir.Mul(radius)))
	}
}

// beginPiece starts a new polygon in r.pieces.
func (r *Rasterizer) beginPiece() {
	r.pieceStart = append(r.pieceStart, len(r.pieces))
}

// fillPieces turns all pieces into edges, each polygon oriented with
// positive signed area, and fills them as one nonzero path.
func (r *Rasterizer) fillPieces(emit EmitFunc) {
	r.beginEdges()
	for i, start := range r.pieceStart {
		end := len(r.pieces)
		if i+1 < len(r.pieceStart) {
			end = r.pieceStart[i+1]
		}
		poly := r.pieces[start:end]
		if len(poly) < 3 {
			continue
		}

		if signedArea(poly) >= 0 {
			for j := range poly {
				r.addEdge(poly[j], poly[(j+1)%len(poly)])
			}
		} else {
			for j := len(poly) - 1; j >= 0; j-- {
				r.addEdge(poly[(j+1)%len(poly)], poly[j])
			}
		}
	}
	r.rasterizeEdges(emit)
}

// signedArea returns twice the signed area of a polygon (shoelace formula).
func signedArea(poly []vec.Vec2) float64 {
	var a float64
	for i := range poly {
		p, q := poly[i], poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a
}
