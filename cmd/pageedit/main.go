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

// Command pageedit replays editing scripts.
//
// Usage:
//
//	pageedit [-config pageedit.yaml] [-store URL] [-out dir] [script...]
//	pageedit -list
//
// Each argument is either the name of a built-in script or a YAML file.
// Without arguments, all built-in scripts are run. Scripts run against an
// in-memory store unless a store URL is given, either with -store or in
// the config file; then pages are fetched from and saved to that
// service. With -out, the final state of each page is written as a PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"seehuhn.de/go/pageedit"
	"seehuhn.de/go/pageedit/persist"
	"seehuhn.de/go/pageedit/script"
)

func main() {
	configPath := flag.String("config", "", "config file")
	storeURL := flag.String("store", "", "file service URL (overrides the config)")
	outDir := flag.String("out", "", "write the final pages as PNG files to this directory")
	list := flag.Bool("list", false, "list the built-in scripts and exit")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Parse()

	if *list {
		for _, name := range script.Names() {
			fmt.Println(name)
		}
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := pageedit.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = pageedit.LoadConfig(*configPath)
		if err != nil {
			logger.Error("config", "error", err)
			os.Exit(1)
		}
	}
	cfg.Logger = logger
	if *storeURL != "" {
		cfg.Store.URL = *storeURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *outDir, flag.Args()); err != nil {
		logger.Error("pageedit failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *pageedit.Config, outDir string, args []string) error {
	scripts, err := loadScripts(args)
	if err != nil {
		return err
	}

	remote := cfg.Store.URL != ""
	var store persist.Store
	if remote {
		store, err = persist.NewClient(cfg.Store.URL,
			persist.WithToken(cfg.Store.Token),
			persist.WithHTTPClient(&http.Client{Timeout: cfg.Store.Timeout}))
		if err != nil {
			return err
		}
	} else {
		mem := persist.NewMemory()
		if err := script.Register(mem, scripts...); err != nil {
			return err
		}
		store = mem
	}

	s, err := pageedit.New(store, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, sc := range scripts {
		if remote {
			if err := s.Load(ctx, sc.Page.ID); err != nil {
				return err
			}
		}
		if err := script.Run(ctx, s, sc); err != nil {
			return err
		}
		cfg.Logger.Info("script done", "script", sc.Name, "file", sc.Page.ID,
			"unsaved", s.HasUnsavedChanges())

		if outDir != "" {
			if err := writePreview(s, filepath.Join(outDir, sc.Name+".png")); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadScripts(args []string) ([]*script.Script, error) {
	if len(args) == 0 {
		args = script.Names()
	}
	var res []*script.Script
	for _, arg := range args {
		if sc, ok := script.All[arg]; ok {
			res = append(res, sc)
			continue
		}
		if !strings.HasSuffix(arg, ".yaml") && !strings.HasSuffix(arg, ".yml") {
			return nil, fmt.Errorf("unknown script %q", arg)
		}
		sc, err := script.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		res = append(res, sc)
	}
	return res, nil
}

func writePreview(s *pageedit.Session, name string) error {
	img, err := s.Preview()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
