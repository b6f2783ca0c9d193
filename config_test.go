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

package pageedit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "pageedit.yaml")
	src := `
brush:
  size: 40
  repeat_interval: 50ms
text:
  color: "#0000ff"
store:
  url: http://localhost:8080/
  token: secret
`
	if err := os.WriteFile(name, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(name)
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.Brush.Size = 40
	want.Brush.RepeatInterval = 50 * time.Millisecond
	want.Text.Color = "#0000ff"
	want.Store.URL = "http://localhost:8080/"
	want.Store.Token = "secret"
	if d := cmp.Diff(want, cfg); d != "" {
		t.Errorf("config (-want +got):\n%s", d)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"brush size":   func(c *Config) { c.Brush.Size = 0 },
		"large brush":  func(c *Config) { c.Brush.Size = 201 },
		"opacity":      func(c *Config) { c.Brush.Opacity = 101 },
		"step":         func(c *Config) { c.Brush.Step = 0 },
		"interval":     func(c *Config) { c.Brush.RepeatInterval = 0 },
		"font size":    func(c *Config) { c.Text.FontSize = -1 },
		"color":        func(c *Config) { c.Text.Color = "red" },
		"quality":      func(c *Config) { c.Composite.Quality = 0 },
		"ref width":    func(c *Config) { c.Composite.ReferenceWidth = 0 },
		"shadow alpha": func(c *Config) { c.Composite.Shadow.Opacity = 2 },
	}
	for name, modify := range cases {
		cfg := DefaultConfig()
		modify(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: no error")
	}
	name := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(name, []byte("brush: [1, 2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(name); err == nil {
		t.Error("bad yaml: no error")
	}
}

func TestParseKey(t *testing.T) {
	cases := map[string]Key{
		"b":            {Name: "b"},
		"ctrl+z":       {Name: "z", Ctrl: true},
		"Ctrl+Shift+Z": {Name: "Z", Ctrl: true, Shift: true},
		"cmd+s":        {Name: "s", Meta: true},
		"ctrl++":       {Name: "+", Ctrl: true},
		"[":            {Name: "["},
	}
	for in, want := range cases {
		got, err := ParseKey(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q: got %+v, want %+v", in, got, want)
		}
	}
	for _, bad := range []string{"", "hyper+x", "ctrl+"} {
		if _, err := ParseKey(bad); err == nil {
			t.Errorf("%q: no error", bad)
		}
	}
}
