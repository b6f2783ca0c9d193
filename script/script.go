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

// Package script describes editing sessions as YAML files and replays
// them against a [pageedit.Session].
//
// A script names a page image, the on-screen box it is shown in, and a
// list of steps. Each step sets exactly one field. Pointer coordinates
// are in display space, text positions in percent of the image.
package script

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pageedit/overlay"
	"seehuhn.de/go/pageedit/persist"
)

// Script is one recorded editing session.
type Script struct {
	Name    string    `yaml:"name"` // lowercase a-z, 0-9 and _ only
	Page    Page      `yaml:"page"`
	Display []float64 `yaml:"display,omitempty"` // x, y, width, height
	Steps   []Step    `yaml:"steps"`

	dir string // for resolving Page.File
}

// Page describes the image being edited. Either File is set, or the page
// is a blank Width×Height image filled with Fill.
type Page struct {
	ID     persist.FileID `yaml:"id"`
	File   string         `yaml:"file,omitempty"`
	Width  int            `yaml:"width,omitempty"`
	Height int            `yaml:"height,omitempty"`
	Fill   string         `yaml:"fill,omitempty"`
}

// Step is one action, or one check of the session state.
type Step struct {
	Mode    string      `yaml:"mode,omitempty"`
	Brush   *BrushStep  `yaml:"brush,omitempty"`
	Stroke  [][]float64 `yaml:"stroke,omitempty"`
	Text    *TextStep   `yaml:"text,omitempty"`
	Edit    *EditStep   `yaml:"edit,omitempty"`
	Drag    *DragStep   `yaml:"drag,omitempty"`
	Delete  string      `yaml:"delete,omitempty"`
	Key     string      `yaml:"key,omitempty"`
	Undo    int         `yaml:"undo,omitempty"`
	Redo    int         `yaml:"redo,omitempty"`
	Clear   bool        `yaml:"clear,omitempty"`
	Save    bool        `yaml:"save,omitempty"`
	Reset   bool        `yaml:"reset,omitempty"`
	Expect  *Expect     `yaml:"expect,omitempty"`
}

// BrushStep changes the brush settings. Zero values are left alone.
type BrushStep struct {
	Size    float64 `yaml:"size,omitempty"`
	Opacity int     `yaml:"opacity,omitempty"`
}

// TextStep adds a text element. With empty Text, the element is left
// open for editing.
type TextStep struct {
	At       []float64 `yaml:"at"` // percent
	Text     string    `yaml:"text,omitempty"`
	FontSize float64   `yaml:"font_size,omitempty"`
	Color    string    `yaml:"color,omitempty"`
}

// EditStep edits a text element. An empty ID means the element currently
// being edited.
type EditStep struct {
	ID     string `yaml:"id,omitempty"`
	Text   string `yaml:"text,omitempty"`
	Cancel bool   `yaml:"cancel,omitempty"`
}

// DragStep drags a text element with the pointer, in display space.
type DragStep struct {
	ID   string    `yaml:"id"`
	From []float64 `yaml:"from"`
	To   []float64 `yaml:"to"`
}

// Expect checks the session state. Unset fields are not checked.
type Expect struct {
	HasContent   *bool    `yaml:"has_content,omitempty"`
	Texts        []string `yaml:"texts,omitempty"` // element texts, in order
	TextCount    *int     `yaml:"text_count,omitempty"`
	Mode         string   `yaml:"mode,omitempty"`
	BrushSize    float64  `yaml:"brush_size,omitempty"`
	HistoryIndex *int     `yaml:"history_index,omitempty"`
	HistoryLen   *int     `yaml:"history_len,omitempty"`
	Unsaved      *bool    `yaml:"unsaved,omitempty"`
	CanUndo      *bool    `yaml:"can_undo,omitempty"`
	CanRedo      *bool    `yaml:"can_redo,omitempty"`
}

// Parse decodes a script. Relative page files are resolved against dir.
func Parse(data []byte, dir string) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	sc := &Script{}
	if err := dec.Decode(sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	sc.dir = dir
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// ReadFile reads a script from disk.
func ReadFile(name string) (*Script, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data, filepath.Dir(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return sc, nil
}

func (sc *Script) validate() error {
	if sc.Name == "" || strings.Trim(sc.Name, "abcdefghijklmnopqrstuvwxyz0123456789_") != "" {
		return fmt.Errorf("invalid script name %q", sc.Name)
	}
	if sc.Page.File == "" && (sc.Page.Width <= 0 || sc.Page.Height <= 0) {
		return fmt.Errorf("%s: page needs a file or a size", sc.Name)
	}
	if sc.Display != nil && len(sc.Display) != 4 {
		return fmt.Errorf("%s: display needs x, y, width and height", sc.Name)
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("%s: step %d: %w", sc.Name, i+1, err)
		}
	}
	return nil
}

func (st *Step) validate() error {
	n := 0
	count := func(set bool) {
		if set {
			n++
		}
	}
	count(st.Mode != "")
	count(st.Brush != nil)
	count(st.Stroke != nil)
	count(st.Text != nil)
	count(st.Edit != nil)
	count(st.Drag != nil)
	count(st.Delete != "")
	count(st.Key != "")
	count(st.Undo > 0)
	count(st.Redo > 0)
	count(st.Clear)
	count(st.Save)
	count(st.Reset)
	count(st.Expect != nil)
	if n != 1 {
		return fmt.Errorf("expected exactly one action, got %d", n)
	}

	for _, p := range st.Stroke {
		if len(p) != 2 {
			return fmt.Errorf("stroke point %v is not a pair", p)
		}
	}
	if st.Text != nil && len(st.Text.At) != 2 {
		return fmt.Errorf("text position %v is not a pair", st.Text.At)
	}
	if st.Drag != nil && (len(st.Drag.From) != 2 || len(st.Drag.To) != 2) {
		return fmt.Errorf("drag needs from and to pairs")
	}
	return nil
}

// Image returns the page image.
func (sc *Script) Image() (image.Image, error) {
	if sc.Page.File != "" {
		name := sc.Page.File
		if !filepath.IsAbs(name) {
			name = filepath.Join(sc.dir, name)
		}
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := persist.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return img, nil
	}

	fill := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if sc.Page.Fill != "" {
		c, err := overlay.ParseColor(sc.Page.Fill)
		if err != nil {
			return nil, fmt.Errorf("%s: page fill: %w", sc.Name, err)
		}
		fill = c
	}
	img := image.NewRGBA(image.Rect(0, 0, sc.Page.Width, sc.Page.Height))
	draw.Draw(img, img.Rect, image.NewUniform(fill), image.Point{}, draw.Src)
	return img, nil
}

// DisplayRect returns the on-screen box of an image of the given size.
// Without an explicit display the image is shown at its natural size.
func (sc *Script) DisplayRect(size image.Point) rect.Rect {
	if sc.Display == nil {
		return rect.Rect{URx: float64(size.X), URy: float64(size.Y)}
	}
	d := sc.Display
	return rect.Rect{LLx: d[0], LLy: d[1], URx: d[0] + d[2], URy: d[1] + d[3]}
}

//go:embed scenarios/*.yaml
var builtin embed.FS

// All contains the built-in scripts, by name.
var All = mustLoadBuiltin()

// Names returns the names of the built-in scripts in sorted order.
func Names() []string {
	names := make([]string, 0, len(All))
	for name := range All {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func mustLoadBuiltin() map[string]*Script {
	files, err := fs.Glob(builtin, "scenarios/*.yaml")
	if err != nil {
		panic(err)
	}
	all := make(map[string]*Script, len(files))
	for _, name := range files {
		data, err := builtin.ReadFile(name)
		if err != nil {
			panic(err)
		}
		sc, err := Parse(data, path.Dir(name))
		if err != nil {
			panic(fmt.Errorf("%s: %w", name, err))
		}
		if _, dup := all[sc.Name]; dup {
			panic("duplicate script name " + sc.Name)
		}
		all[sc.Name] = sc
	}
	return all
}
