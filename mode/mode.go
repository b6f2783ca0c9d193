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

// Package mode tracks which tool receives pointer input and the brush
// parameters.
//
// State is split in two categories. Params holds the committed values
// which the editor acts on. LiveHint holds high-frequency preview values
// (cursor position, brush size while a size key is held, drag position)
// which are only used for rendering and never recorded in the history.
package mode

import (
	"fmt"
	"time"
)

// Mode is the active editing tool.
type Mode int

const (
	// Mouse selects and drags text elements.
	Mouse Mode = iota

	// Brush paints on the raster layer.
	Brush

	// Eraser removes paint from the raster layer.
	Eraser
)

func (m Mode) String() string {
	switch m {
	case Mouse:
		return "mouse"
	case Brush:
		return "brush"
	case Eraser:
		return "eraser"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Parse converts the output of Mode.String back to a Mode.
func Parse(s string) (Mode, error) {
	switch s {
	case "mouse":
		return Mouse, nil
	case "brush":
		return Brush, nil
	case "eraser":
		return Eraser, nil
	}
	return Mouse, fmt.Errorf("unknown mode %q", s)
}

// Limits for the committed brush parameters.
const (
	MinBrushSize = 1
	MaxBrushSize = 200
	MinOpacity   = 1
	MaxOpacity   = 100
)

// Params are the committed tool parameters.
type Params struct {
	Mode      Mode
	BrushSize float64 // diameter in image pixels
	Opacity   int     // percent, brush only
}

// Controller is the mode state machine. Explicit selection moves between
// any two modes.
//
// Apart from the LiveHint, a Controller is not safe for concurrent use.
type Controller struct {
	params Params
	step   float64

	// Hint holds the live preview values.
	Hint *LiveHint

	rep *Repeater
}

// NewController returns a controller in Mouse mode. The brush size is
// changed by step for every press (or repeat) of a size key, repeats
// happen every interval while the key is held.
func NewController(brushSize float64, opacity int, step float64, interval time.Duration) *Controller {
	c := &Controller{
		step: step,
		Hint: &LiveHint{},
		rep:  NewRepeater(interval),
	}
	c.SetBrushSize(brushSize)
	c.SetOpacity(opacity)
	return c
}

// Params returns the committed parameters.
func (c *Controller) Params() Params {
	return c.params
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return c.params.Mode
}

// Drawing reports whether pointer input goes to the raster layer.
func (c *Controller) Drawing() bool {
	return c.params.Mode == Brush || c.params.Mode == Eraser
}

// Set selects a mode.
func (c *Controller) Set(m Mode) {
	c.params.Mode = m
}

// SetBrushSize sets the committed brush size, clamped to
// [MinBrushSize, MaxBrushSize]. The live preview follows.
func (c *Controller) SetBrushSize(size float64) {
	size = clampSize(size)
	c.params.BrushSize = size
	c.Hint.SetBrushSize(size)
}

// SetOpacity sets the brush opacity, clamped to [MinOpacity, MaxOpacity].
func (c *Controller) SetOpacity(opacity int) {
	c.params.Opacity = min(max(opacity, MinOpacity), MaxOpacity)
}

// Escape leaves brush or eraser mode. If there are unsaved changes, the
// confirm function is asked first; a nil confirm counts as consent.
// Escape reports whether the mode changed.
func (c *Controller) Escape(unsaved bool, confirm func() bool) bool {
	if !c.Drawing() {
		return false
	}
	if unsaved && confirm != nil && !confirm() {
		return false
	}
	c.params.Mode = Mouse
	return true
}

// BeginAdjust handles a key press of a brush size key. The live size
// changes by dir*step right away and then on every repeat until EndAdjust
// is called for the same key. Auto-repeated key presses, as reported by
// mods, are ignored.
func (c *Controller) BeginAdjust(mods *Modifiers, key string, dir float64) {
	if !mods.Press(key) {
		return
	}
	delta := dir * c.step
	c.Hint.AdjustBrushSize(delta)
	c.rep.Start(key, func() {
		c.Hint.AdjustBrushSize(delta)
	})
}

// EndAdjust handles the release of a brush size key: the repeat stops and,
// once no size key is held any more, the live size is committed.
func (c *Controller) EndAdjust(mods *Modifiers, key string) {
	mods.Release(key)
	if !c.rep.Stop(key) || c.rep.Len() > 0 {
		return
	}
	c.params.BrushSize = c.Hint.Get().BrushSize
}

// Close stops all key repeats. Live sizes of keys still held are
// discarded.
func (c *Controller) Close() {
	c.rep.Close()
	c.Hint.SetBrushSize(c.params.BrushSize)
}

func clampSize(size float64) float64 {
	return min(max(size, MinBrushSize), MaxBrushSize)
}
