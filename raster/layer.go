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
	"errors"
	"image"
	"image/color"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// Tool selects how a stroke is applied to the layer.
type Tool int

const (
	// Brush paints with source-over blending.
	Brush Tool = iota

	// Eraser removes paint (destination-out blending). Opacity is ignored.
	Eraser
)

func (t Tool) String() string {
	switch t {
	case Brush:
		return "brush"
	case Eraser:
		return "eraser"
	default:
		return "unknown"
	}
}

// Limits for the brush diameter, in buffer pixels.
const (
	MinBrushSize = 1
	MaxBrushSize = 200
)

// DefaultPaint is the colour used by the brush: white, to cover content
// on scanned pages.
var DefaultPaint = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// ErrSizeMismatch is returned by Restore when the snapshot does not have
// the dimensions of the layer.
var ErrSizeMismatch = errors.New("raster: snapshot size does not match layer")

// ClampBrushSize clamps a brush diameter to [MinBrushSize, MaxBrushSize].
func ClampBrushSize(size float64) float64 {
	return min(max(size, MinBrushSize), MaxBrushSize)
}

// Layer is the paint/erase pixel buffer drawn on top of the original
// image. Its dimensions equal the natural size of the image and never
// change. A pixel with alpha 0 is untouched.
//
// Strokes are composited incrementally: every call to ContinueStroke
// rasterizes only the newest segment, with round caps at both ends, so
// that the union of all segments is the round-joined stroke. A per-stroke
// mask remembers the coverage each pixel has already received, which
// keeps overlapping segments of one stroke from applying the opacity
// twice.
type Layer struct {
	// Paint is the brush colour.
	Paint color.NRGBA

	img *image.RGBA
	r   *Rasterizer
	seg Builder

	mask  *image.Alpha    // coverage received during the current stroke
	dirty image.Rectangle // part of mask touched by the current stroke

	stroking bool
	tool     Tool
	alpha    float64 // brush opacity in [0, 1]
	last     vec.Vec2
	drawn    bool

	version uint64
}

// NewLayer allocates a fully transparent layer of the given size.
func NewLayer(width, height int) *Layer {
	bounds := rect.Rect{URx: float64(width), URy: float64(height)}
	return &Layer{
		Paint: DefaultPaint,
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		r:     NewRasterizer(bounds),
	}
}

// Bounds returns the pixel rectangle of the layer.
func (l *Layer) Bounds() image.Rectangle {
	return l.img.Rect
}

// Image gives read access to the live pixel buffer. Callers must not
// modify it and must not keep it across mutations; use Snapshot for that.
func (l *Layer) Image() *image.RGBA {
	return l.img
}

// Version changes whenever the pixels of the layer change.
func (l *Layer) Version() uint64 {
	return l.version
}

// Stroking reports whether a stroke is in progress.
func (l *Layer) Stroking() bool {
	return l.stroking
}

// BeginStroke starts a stroke at p (buffer space). The brush diameter is
// clamped to [MinBrushSize, MaxBrushSize]; opacity is a percentage and
// only used by the brush. Nothing is drawn until ContinueStroke is called.
//
// A stroke which is still in progress is ended first.
func (l *Layer) BeginStroke(p vec.Vec2, tool Tool, size float64, opacity int) {
	if l.stroking {
		l.EndStroke()
	}
	if l.mask == nil {
		l.mask = image.NewAlpha(l.img.Rect)
	}

	l.r.Reset(l.r.Clip)
	l.r.Width = ClampBrushSize(size)
	l.r.Cap = graphics.LineCapRound
	l.r.Join = graphics.LineJoinRound

	l.stroking = true
	l.tool = tool
	l.alpha = float64(min(max(opacity, 0), 100)) / 100
	l.last = p
	l.drawn = false
	l.dirty = image.Rectangle{}
}

// ContinueStroke extends the current stroke to p (buffer space).
// Points outside the layer are accepted; the rasterizer clips.
// Without an active stroke, this is a no-op.
func (l *Layer) ContinueStroke(p vec.Vec2) {
	if !l.stroking {
		return
	}

	l.seg.Reset()
	l.seg.MoveTo(l.last).LineTo(p)
	l.last = p

	changed := false
	l.r.Stroke(l.seg.Path(), func(y, xMin int, coverage []float32) {
		if l.applyRow(y, xMin, coverage) {
			changed = true
		}
	})
	if changed {
		l.drawn = true
		l.version++
	}
}

// EndStroke finishes the current stroke. It reports whether the stroke
// changed the layer; callers record a history state only in that case.
func (l *Layer) EndStroke() bool {
	if !l.stroking {
		return false
	}
	l.stroking = false

	// reset the mask for the next stroke
	d := l.dirty.Intersect(l.mask.Rect)
	for y := d.Min.Y; y < d.Max.Y; y++ {
		row := l.mask.Pix[l.mask.PixOffset(d.Min.X, y):l.mask.PixOffset(d.Max.X, y)]
		clear(row)
	}
	l.dirty = image.Rectangle{}

	return l.drawn
}

// applyRow composites one row of stroke coverage into the layer.
func (l *Layer) applyRow(y, xMin int, coverage []float32) bool {
	maskRow := l.mask.Pix[l.mask.PixOffset(xMin, y):]
	pix := l.img.Pix[l.img.PixOffset(xMin, y):]

	paint := [3]float64{float64(l.Paint.R), float64(l.Paint.G), float64(l.Paint.B)}

	changed := false
	for i, c := range coverage {
		m1 := uint8(c*255 + 0.5)
		m0 := maskRow[i]
		if m1 <= m0 {
			continue
		}
		maskRow[i] = m1
		p := pix[4*i : 4*i+4 : 4*i+4]

		switch l.tool {
		case Eraser:
			// destination-out: alpha(after) = alpha(base) * (1 - m1).
			// The pixel already holds base * (1 - m0).
			e0, e1 := float64(m0)/255, float64(m1)/255
			f := (1 - e1) / (1 - e0)
			for j := range p {
				p[j] = uint8(float64(p[j])*f + 0.5)
			}
		default:
			// source-over with source alpha a = alpha*m. The pixel holds
			// the result for a0, the target is the result for a1; this is
			// one more source-over step with alpha k.
			a0, a1 := l.alpha*float64(m0)/255, l.alpha*float64(m1)/255
			if a0 >= 1 {
				continue
			}
			k := 1 - (1-a1)/(1-a0)
			if k <= 0 {
				continue
			}
			for j := range 3 {
				p[j] = uint8(paint[j]*k + float64(p[j])*(1-k) + 0.5)
			}
			p[3] = uint8(255*k + float64(p[3])*(1-k) + 0.5)
		}
		changed = true
	}

	if len(coverage) > 0 {
		l.dirty = l.dirty.Union(image.Rect(xMin, y, xMin+len(coverage), y+1))
	}
	return changed
}

// Clear makes the whole layer transparent. An active stroke is abandoned.
func (l *Layer) Clear() {
	if l.stroking {
		l.EndStroke()
	}
	clear(l.img.Pix)
	l.version++
}

// HasContent reports whether any pixel is non-zero. This scans the whole
// buffer and is meant to be called once per save, not per frame.
func (l *Layer) HasContent() bool {
	for _, b := range l.img.Pix {
		if b != 0 {
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy of the pixel buffer.
func (l *Layer) Snapshot() *image.RGBA {
	c := image.NewRGBA(l.img.Rect)
	copy(c.Pix, l.img.Pix)
	return c
}

// Restore copies a snapshot back into the layer. The snapshot itself is
// not retained. An active stroke is abandoned.
func (l *Layer) Restore(snap *image.RGBA) error {
	if snap == nil || snap.Rect != l.img.Rect {
		return ErrSizeMismatch
	}
	if l.stroking {
		l.EndStroke()
	}
	for y := snap.Rect.Min.Y; y < snap.Rect.Max.Y; y++ {
		src := snap.Pix[snap.PixOffset(snap.Rect.Min.X, y):snap.PixOffset(snap.Rect.Max.X, y)]
		copy(l.img.Pix[l.img.PixOffset(l.img.Rect.Min.X, y):], src)
	}
	l.version++
	return nil
}
