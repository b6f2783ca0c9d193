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

// Package composite flattens a page and its edits into a single image.
//
// The original image is drawn first, then the raster layer on top at the
// same scale, then the text elements in insertion order. Text positions
// are given in percent of the page; font sizes refer to a page which is
// ReferenceWidth pixels wide and are scaled with the actual image width,
// so that text keeps its visual size whatever the image resolution.
package composite

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"seehuhn.de/go/pageedit/coord"
	"seehuhn.de/go/pageedit/overlay"
)

// Defaults for the compositor options.
const (
	DefaultQuality        = 95
	DefaultReferenceWidth = 800
)

var (
	// ErrNoImage is returned when the original image is missing or empty.
	ErrNoImage = errors.New("composite: no original image")

	// ErrSizeMismatch is returned when the raster layer does not have the
	// dimensions of the original image.
	ErrSizeMismatch = errors.New("composite: raster size does not match image")
)

// Compositor renders and encodes edited pages.
// A Compositor can be used concurrently.
type Compositor struct {
	quality  int
	refWidth float64
	font     *opentype.Font
	shadow   Shadow
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithQuality sets the JPEG quality, clamped to [1, 100].
func WithQuality(q int) Option {
	return func(c *Compositor) { c.quality = min(max(q, 1), 100) }
}

// WithReferenceWidth sets the image width at which font sizes are used
// unscaled. Non-positive values are ignored.
func WithReferenceWidth(w float64) Option {
	return func(c *Compositor) {
		if w > 0 {
			c.refWidth = w
		}
	}
}

// WithFont sets the font used for text elements. The default is Go Bold.
func WithFont(f *opentype.Font) Option {
	return func(c *Compositor) { c.font = f }
}

// WithShadow sets the drop shadow drawn behind text elements.
func WithShadow(s Shadow) Option {
	return func(c *Compositor) { c.shadow = s.normalize() }
}

// New returns a Compositor with the given options applied.
func New(opts ...Option) (*Compositor, error) {
	c := &Compositor{
		quality:  DefaultQuality,
		refWidth: DefaultReferenceWidth,
		shadow:   DefaultShadow(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.font == nil {
		f, err := opentype.Parse(gobold.TTF)
		if err != nil {
			return nil, fmt.Errorf("composite: loading default font: %w", err)
		}
		c.font = f
	}
	return c, nil
}

// Composite renders the page and encodes it as JPEG.
// On error, no data is returned.
func (c *Compositor) Composite(original image.Image, raster *image.RGBA, texts []overlay.Element) ([]byte, error) {
	img, err := c.Render(original, raster, texts)
	if err != nil {
		return nil, err
	}
	return c.Encode(img)
}

// Render draws the original image, the raster layer and the text elements
// into a new image of the original's size, with origin (0, 0).
// The raster may be nil.
func (c *Compositor) Render(original image.Image, raster *image.RGBA, texts []overlay.Element) (*image.RGBA, error) {
	if original == nil || original.Bounds().Empty() {
		return nil, ErrNoImage
	}
	b := original.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, original, b.Min, draw.Src)

	if raster != nil {
		if raster.Rect.Dx() != b.Dx() || raster.Rect.Dy() != b.Dy() {
			return nil, fmt.Errorf("%w: raster %dx%d, image %dx%d", ErrSizeMismatch,
				raster.Rect.Dx(), raster.Rect.Dy(), b.Dx(), b.Dy())
		}
		draw.Draw(dst, dst.Rect, raster, raster.Rect.Min, draw.Over)
	}

	if len(texts) == 0 {
		return dst, nil
	}

	faces := make(map[float64]font.Face)
	defer func() {
		for _, f := range faces {
			f.Close()
		}
	}()

	scale := float64(b.Dx()) / c.refWidth
	for _, el := range texts {
		size := max(el.FontSize*scale, 1)
		face, ok := faces[size]
		if !ok {
			var err error
			face, err = opentype.NewFace(c.font, &opentype.FaceOptions{
				Size:    size,
				DPI:     72,
				Hinting: font.HintingNone,
			})
			if err != nil {
				return nil, fmt.Errorf("composite: font face for %s: %w", el.ID, err)
			}
			faces[size] = face
		}
		c.drawText(dst, face, el, scale)
	}
	return dst, nil
}

// Encode writes img as JPEG at the configured quality.
func (c *Compositor) Encode(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := jpeg.Encode(buf, img, &jpeg.Options{Quality: c.quality})
	if err != nil {
		return nil, fmt.Errorf("composite: encoding: %w", err)
	}
	return buf.Bytes(), nil
}

// drawText draws one text element, with its ink box centred on the anchor
// point in both directions.
func (c *Compositor) drawText(dst *image.RGBA, face font.Face, el overlay.Element, scale float64) {
	ink, _ := font.BoundString(face, el.Text)
	if ink.Empty() {
		return
	}

	anchor := coord.PercentToPixel(vecOf(el), dst.Rect.Dx(), dst.Rect.Dy())
	dot := fixed.Point26_6{
		X: fixed.Int26_6(anchor.X*64) - (ink.Min.X+ink.Max.X)/2,
		Y: fixed.Int26_6(anchor.Y*64) - (ink.Min.Y+ink.Max.Y)/2,
	}

	sh := c.shadow.scaled(scale)
	pad := int(sh.Radius) + 2
	box := image.Rect(
		(dot.X + ink.Min.X).Floor(), (dot.Y + ink.Min.Y).Floor(),
		(dot.X + ink.Max.X).Ceil(), (dot.Y + ink.Max.Y).Ceil(),
	).Inset(-pad)

	mask := image.NewAlpha(box)
	d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: dot}
	d.DrawString(el.Text)

	if sh.Opacity > 0 {
		blurred := blur(mask, sh.Radius)
		off := sh.offset()
		shadowColor := color.NRGBA{
			R: sh.Color.R, G: sh.Color.G, B: sh.Color.B,
			A: uint8(sh.Opacity*255 + 0.5),
		}
		draw.DrawMask(dst, blurred.Rect.Add(off), image.NewUniform(shadowColor), image.Point{},
			blurred, blurred.Rect.Min, draw.Over)
	}

	draw.DrawMask(dst, mask.Rect, image.NewUniform(el.Color), image.Point{},
		mask, mask.Rect.Min, draw.Over)
}
