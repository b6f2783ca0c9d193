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
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// Builder records a path. The zero value is an empty path, ready to use.
type Builder struct {
	cmds []path.Command
	pts  []vec.Vec2
}

// MoveTo starts a new subpath at p.
func (b *Builder) MoveTo(p vec.Vec2) *Builder {
	b.cmds = append(b.cmds, path.CmdMoveTo)
	b.pts = append(b.pts, p)
	return b
}

// LineTo appends a straight line to p.
func (b *Builder) LineTo(p vec.Vec2) *Builder {
	b.cmds = append(b.cmds, path.CmdLineTo)
	b.pts = append(b.pts, p)
	return b
}

// QuadTo appends a quadratic Bézier curve.
func (b *Builder) QuadTo(c, p vec.Vec2) *Builder {
	b.cmds = append(b.cmds, path.CmdQuadTo)
	b.pts = append(b.pts, c, p)
	return b
}

// CubeTo appends a cubic Bézier curve.
func (b *Builder) CubeTo(c1, c2, p vec.Vec2) *Builder {
	b.cmds = append(b.cmds, path.CmdCubeTo)
	b.pts = append(b.pts, c1, c2, p)
	return b
}

// Close closes the current subpath.
func (b *Builder) Close() *Builder {
	b.cmds = append(b.cmds, path.CmdClose)
	return b
}

// Reset empties the path, keeping its capacity.
func (b *Builder) Reset() {
	b.cmds = b.cmds[:0]
	b.pts = b.pts[:0]
}

// Path returns an iterator over the recorded segments. The iterator
// reads the builder at the time of iteration.
func (b *Builder) Path() path.Path {
	return func(yield func(path.Command, []vec.Vec2) bool) {
		k := 0
		for _, cmd := range b.cmds {
			n := numPoints(cmd)
			if !yield(cmd, b.pts[k:k+n]) {
				return
			}
			k += n
		}
	}
}

func numPoints(cmd path.Command) int {
	switch cmd {
	case path.CmdMoveTo, path.CmdLineTo:
		return 1
	case path.CmdQuadTo:
		return 2
	case path.CmdCubeTo:
		return 3
	default:
		return 0
	}
}
