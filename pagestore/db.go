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

// Package pagestore is a small file service implementing the three routes
// the editor needs: page preview, saving an edited composite and
// discarding it again.
//
// Originals live in <root>/raw/<id>-<name>, edited composites in
// <root>/raw_temp/<id>-<name>. File metadata is kept in an SQLite table.
// The preview route serves the edited copy when there is one.
package pagestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"seehuhn.de/go/pageedit/persist"
)

// ErrNotFound is returned for unknown file ids. It is the same error the
// HTTP client matches for 404 responses.
var ErrNotFound = persist.ErrNotFound

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id           INTEGER PRIMARY KEY,
	storage_path TEXT    NOT NULL,
	mime_type    TEXT    NOT NULL DEFAULT '',
	has_edited   INTEGER NOT NULL DEFAULT 0,
	edited_path  TEXT,
	updated_at   INTEGER NOT NULL DEFAULT 0
)`

// OpenDB opens (or creates) the metadata database at path and applies
// the schema. Use ":memory:" for a throw-away database.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("pagestore: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pagestore: open: %w", err)
	}
	if path == ":memory:" {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, schema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pagestore: %w", err)
		}
	}
	return db, nil
}

// File is a row of the files table.
type File struct {
	ID          persist.FileID
	StoragePath string // relative to the root directory
	MimeType    string
	HasEdited   bool
	EditedPath  string // relative to the root directory, empty if none
	UpdatedAt   time.Time
}

func (s *Server) lookup(ctx context.Context, id persist.FileID) (*File, error) {
	f := &File{ID: id}
	var edited sql.NullString
	var updated int64
	err := s.db.QueryRowContext(ctx, `
		SELECT storage_path, mime_type, has_edited, edited_path, updated_at
		FROM files WHERE id = ?`, int64(id)).
		Scan(&f.StoragePath, &f.MimeType, &f.HasEdited, &edited, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", id, err)
	}
	f.EditedPath = edited.String
	f.UpdatedAt = time.Unix(updated, 0)
	return f, nil
}

func (s *Server) markEdited(ctx context.Context, id persist.FileID, editedPath string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE files SET has_edited = 1, edited_path = ?, updated_at = ?
		WHERE id = ?`, editedPath, s.now().Unix(), int64(id))
	return err
}

func (s *Server) clearEdited(ctx context.Context, id persist.FileID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE files SET has_edited = 0, edited_path = NULL, updated_at = ?
		WHERE id = ?`, s.now().Unix(), int64(id))
	return err
}

// File returns the metadata of a file.
func (s *Server) File(ctx context.Context, id persist.FileID) (*File, error) {
	return s.lookup(ctx, id)
}
