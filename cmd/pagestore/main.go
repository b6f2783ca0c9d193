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

// Command pagestore serves page images to the editor.
//
// Usage:
//
//	pagestore [-addr :8080] [-db pages.db] [-root pages] [-token T]
//	pagestore -import [-db pages.db] [-root pages] file...
//
// With -import, the given image files are copied into the store and their
// IDs are printed; no server is started.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"seehuhn.de/go/pageedit/pagestore"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "pages.db", "database file")
	root := flag.String("root", "pages", "storage directory")
	token := flag.String("token", os.Getenv("PAGESTORE_TOKEN"), "bearer token (default $PAGESTORE_TOKEN)")
	doImport := flag.Bool("import", false, "import the named image files and exit")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(logger, *addr, *dbPath, *root, *token, *doImport, flag.Args()); err != nil {
		logger.Error("pagestore failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath, root, token string, doImport bool, files []string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	db, err := pagestore.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := pagestore.New(db, root,
		pagestore.WithLogger(logger),
		pagestore.WithToken(token))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if doImport {
		return importFiles(ctx, srv, files)
	}
	if token == "" {
		logger.Warn("no token set, requests are not authenticated")
	}

	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "root", root)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func importFiles(ctx context.Context, srv *pagestore.Server, files []string) error {
	if len(files) == 0 {
		return errors.New("no files to import")
	}
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		id, err := srv.Import(ctx, filepath.Base(name), f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Printf("%s\t%s\n", id, name)
	}
	return nil
}
