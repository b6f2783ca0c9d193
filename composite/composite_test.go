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
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"

	"seehuhn.de/go/pageedit/overlay"
)

var red = color.NRGBA{R: 255, A: 255}

func whitePage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.White, image.Point{}, draw.Src)
	return img
}

// inkBox returns the bounding box of all pixels for which isInk is true.
func inkBox(img image.Image, isInk func(r, g, b uint8) bool) image.Rectangle {
	var box image.Rectangle
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if isInk(c.R, c.G, c.B) {
				box = box.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return box
}

func centre(r image.Rectangle) (float64, float64) {
	return float64(r.Min.X+r.Max.X) / 2, float64(r.Min.Y+r.Max.Y) / 2
}

func absDiff(a, b uint8) int {
	return max(int(a)-int(b), int(b)-int(a))
}

func isRed(r, g, b uint8) bool {
	return r > 180 && g < 90 && b < 90
}

// TestRedactedLabel places a red label at (10%, 10%) of an 800x600 page.
func TestRedactedLabel(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	texts := []overlay.Element{
		{ID: "text-1", Text: "REDACTED", X: 10, Y: 10, FontSize: 14, Color: red},
	}

	img, err := c.Render(whitePage(800, 600), nil, texts)
	if err != nil {
		t.Fatal(err)
	}
	box := inkBox(img, isRed)
	if box.Empty() {
		t.Fatal("no red pixels")
	}
	x, y := centre(box)
	if math.Abs(x-80) > 3 || math.Abs(y-60) > 3 {
		t.Errorf("text centred at (%.1f, %.1f), want (80, 60)", x, y)
	}

	// the shadow darkens pixels just outside the red glyphs
	shadow := inkBox(img, func(r, g, b uint8) bool {
		return r < 230 && absDiff(r, g) < 10 && absDiff(g, b) < 10
	})
	if shadow.Empty() {
		t.Error("no shadow pixels")
	}

	// the same checks after a JPEG round trip
	data, err := c.Composite(whitePage(800, 600), nil, texts)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if dec.Bounds() != image.Rect(0, 0, 800, 600) {
		t.Fatalf("decoded size %v", dec.Bounds())
	}
	box = inkBox(dec, func(r, g, b uint8) bool { return r > 150 && g < 100 && b < 100 })
	x, y = centre(box)
	if math.Abs(x-80) > 4 || math.Abs(y-60) > 4 {
		t.Errorf("decoded text centred at (%.1f, %.1f), want (80, 60)", x, y)
	}
}

// TestCentreIsResolutionIndependent checks that (50%, 50%) lands in the
// exact centre, and that text scales with the image width.
func TestCentreIsResolutionIndependent(t *testing.T) {
	c, err := New(WithShadow(Shadow{}))
	if err != nil {
		t.Fatal(err)
	}
	texts := []overlay.Element{{ID: "t", Text: "HOLD", X: 50, Y: 50, FontSize: 20, Color: red}}

	var widths []int
	for _, size := range []image.Point{{400, 300}, {1600, 1200}} {
		img, err := c.Render(whitePage(size.X, size.Y), nil, texts)
		if err != nil {
			t.Fatal(err)
		}
		box := inkBox(img, isRed)
		x, y := centre(box)
		if math.Abs(x-float64(size.X)/2) > 2 || math.Abs(y-float64(size.Y)/2) > 2 {
			t.Errorf("%v: centred at (%.1f, %.1f)", size, x, y)
		}
		widths = append(widths, box.Dx())
	}
	ratio := float64(widths[1]) / float64(widths[0])
	if ratio < 3.5 || ratio > 4.5 {
		t.Errorf("text width ratio %.2f, want about 4", ratio)
	}
}

func TestShadowOffset(t *testing.T) {
	cases := []struct {
		dx, dy float64
		want   image.Point
	}{
		{2, 2, image.Pt(2, 2)},
		{2.5, 0.4, image.Pt(3, 0)},
		{-0.7, -2.5, image.Pt(-1, -3)},
		{-0.3, 0, image.Pt(0, 0)},
	}
	for _, c := range cases {
		if got := (Shadow{Dx: c.dx, Dy: c.dy}).offset(); got != c.want {
			t.Errorf("offset(%g, %g) = %v, want %v", c.dx, c.dy, got, c.want)
		}
	}
}

// TestShadowLeft checks that a negative offset puts the shadow on the
// left of the text.
func TestShadowLeft(t *testing.T) {
	c, err := New(WithShadow(Shadow{Dx: -6, Opacity: 1, Color: color.NRGBA{A: 255}}))
	if err != nil {
		t.Fatal(err)
	}
	texts := []overlay.Element{{ID: "t", Text: "I", X: 50, Y: 50, FontSize: 40, Color: red}}
	img, err := c.Render(whitePage(800, 600), nil, texts)
	if err != nil {
		t.Fatal(err)
	}
	text := inkBox(img, isRed)
	dark := inkBox(img, func(r, g, b uint8) bool { return r < 60 && g < 60 && b < 60 })
	if text.Empty() || dark.Empty() {
		t.Fatalf("text %v, shadow %v", text, dark)
	}
	if dark.Min.X >= text.Min.X || dark.Max.X >= text.Max.X {
		t.Errorf("shadow %v is not left of the text %v", dark, text)
	}
}

func TestWithFont(t *testing.T) {
	mono, err := opentype.Parse(gomono.TTF)
	if err != nil {
		t.Fatal(err)
	}
	texts := []overlay.Element{{ID: "t", Text: "iiii", X: 50, Y: 50, FontSize: 30, Color: red}}

	var widths []int
	for _, opts := range [][]Option{nil, {WithFont(mono)}} {
		c, err := New(append(opts, WithShadow(Shadow{}))...)
		if err != nil {
			t.Fatal(err)
		}
		img, err := c.Render(whitePage(800, 600), nil, texts)
		if err != nil {
			t.Fatal(err)
		}
		widths = append(widths, inkBox(img, isRed).Dx())
	}
	// the narrow "i" takes a full cell in the monospaced font
	if widths[1] <= widths[0] {
		t.Errorf("monospaced text width %d, proportional %d", widths[1], widths[0])
	}
}

func TestRasterOnTop(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	orig := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(orig, orig.Rect, image.NewUniform(color.RGBA{R: 50, G: 60, B: 70, A: 255}), image.Point{}, draw.Src)

	raster := image.NewRGBA(orig.Rect)
	raster.SetRGBA(3, 4, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	raster.SetRGBA(5, 5, color.RGBA{R: 128, G: 128, B: 128, A: 128}) // half-transparent white

	img, err := c.Render(orig, raster, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(3, 4); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("painted pixel %v", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 50, G: 60, B: 70, A: 255}) {
		t.Errorf("untouched pixel %v", got)
	}
	if got := img.RGBAAt(5, 5); got.R < 150 || got.R > 155 {
		t.Errorf("blended pixel %v", got)
	}

	// the original is unchanged
	if got := orig.RGBAAt(3, 4); got.R != 50 {
		t.Error("Render modified the original")
	}
}

func TestOriginIsNormalised(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	big := whitePage(30, 30)
	big.SetRGBA(10, 10, color.RGBA{A: 255})
	sub := big.SubImage(image.Rect(10, 10, 30, 30))

	img, err := c.Render(sub, image.NewRGBA(image.Rect(0, 0, 20, 20)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect != image.Rect(0, 0, 20, 20) {
		t.Errorf("bounds %v", img.Rect)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("pixel (0,0) = %v, want black", got)
	}
}

func TestErrors(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Composite(nil, nil, nil); !errors.Is(err, ErrNoImage) {
		t.Errorf("nil image: %v", err)
	}
	if _, err := c.Composite(image.NewRGBA(image.Rectangle{}), nil, nil); !errors.Is(err, ErrNoImage) {
		t.Errorf("empty image: %v", err)
	}
	data, err := c.Composite(whitePage(10, 10), image.NewRGBA(image.Rect(0, 0, 5, 5)), nil)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("size mismatch: %v", err)
	}
	if data != nil {
		t.Error("partial output returned on error")
	}
}

func TestQuality(t *testing.T) {
	noisy := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := range noisy.Pix {
		noisy.Pix[i] = uint8(i * 7919 % 251)
	}

	lo, err := New(WithQuality(10))
	if err != nil {
		t.Fatal(err)
	}
	hi, err := New()
	if err != nil {
		t.Fatal(err)
	}
	a, err := lo.Encode(noisy)
	if err != nil {
		t.Fatal(err)
	}
	b, err := hi.Encode(noisy)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) >= len(b) {
		t.Errorf("quality 10 gave %d bytes, quality 95 gave %d", len(a), len(b))
	}
}
