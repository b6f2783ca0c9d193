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

package pagestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"seehuhn.de/go/pageedit/persist"
)

// maxUpload limits the size of an uploaded composite.
const maxUpload = 64 << 20

// Server serves page images from a root directory.
type Server struct {
	db     *sql.DB
	root   string
	token  string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// WithToken requires "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option { return func(s *Server) { s.token = token } }

// New returns a server for the files below root, with metadata in db.
func New(db *sql.DB, root string, opts ...Option) *Server {
	s := &Server{
		db:     db,
		root:   root,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import copies an original into <root>/raw/<id>-<name> and registers
// it. Only the base name of name is used.
func (s *Server) Import(ctx context.Context, name string, r io.Reader) (persist.FileID, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return 0, fmt.Errorf("pagestore: invalid file name %q", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	mimeType := mime.TypeByExtension(filepath.Ext(name))
	res, err := tx.ExecContext(ctx, `
		INSERT INTO files (storage_path, mime_type, updated_at) VALUES ('', ?, ?)`,
		mimeType, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("pagestore: register %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	rel := filepath.ToSlash(filepath.Join("raw", fmt.Sprintf("%d-%s", id, name)))
	if err := s.writeFile(rel, r); err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `UPDATE files SET storage_path = ? WHERE id = ?`, rel, id)
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		os.Remove(s.abs(rel))
		return 0, fmt.Errorf("pagestore: register %s: %w", name, err)
	}
	s.logger.Info("file imported", "id", id, "path", rel)
	return persist.FileID(id), nil
}

// Handler returns the HTTP handler with all routes mounted at the root.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts the routes on r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/files/{id}/preview", s.handlePreview)
		r.Post("/files/{id}/save-edited", s.handleSaveEdited)
		r.Delete("/files/{id}/reset-edited", s.handleResetEdited)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			h := r.Header.Get("Authorization")
			if tok, ok := strings.CutPrefix(h, "Bearer "); !ok || tok != s.token {
				writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// handlePreview serves the edited copy if there is one, else the original.
// GET /files/{id}/preview
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fileParam(w, r)
	if !ok {
		return
	}
	rel, mimeType := f.StoragePath, f.MimeType
	if f.HasEdited && f.EditedPath != "" {
		rel, mimeType = f.EditedPath, "image/jpeg"
	}

	fd, err := os.Open(s.abs(rel))
	if err != nil {
		s.logger.Error("preview", "id", f.ID, "error", err)
		writeError(w, http.StatusNotFound, fmt.Errorf("file %s: image missing", f.ID))
		return
	}
	defer fd.Close()

	if mimeType != "" {
		w.Header().Set("Content-Type", mimeType)
	}
	w.Header().Set("Cache-Control", "no-store")
	io.Copy(w, fd)
}

// handleSaveEdited stores an edited composite.
// POST /files/{id}/save-edited, multipart fields "file" and "fileId".
func (s *Server) handleSaveEdited(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fileParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}
	if v := r.FormValue("fileId"); v != "" && v != f.ID.String() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("fileId %q does not match %s", v, f.ID))
		return
	}
	part, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("file is required"))
		return
	}
	defer part.Close()

	rel := filepath.ToSlash(filepath.Join("raw_temp", filepath.Base(f.StoragePath)))
	if err := s.writeFile(rel, part); err != nil {
		s.logger.Error("save edited", "id", f.ID, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("storing file failed"))
		return
	}
	if err := s.markEdited(r.Context(), f.ID, rel); err != nil {
		s.logger.Error("save edited", "id", f.ID, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("updating file failed"))
		return
	}

	s.logger.Info("edited image saved", "id", f.ID, "path", rel)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "editedPath": rel})
}

// handleResetEdited discards the edited composite.
// DELETE /files/{id}/reset-edited
func (s *Server) handleResetEdited(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fileParam(w, r)
	if !ok {
		return
	}
	if f.HasEdited && f.EditedPath != "" {
		err := os.Remove(s.abs(f.EditedPath))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("reset edited: removing file", "id", f.ID, "error", err)
		}
	}
	if err := s.clearEdited(r.Context(), f.ID); err != nil {
		s.logger.Error("reset edited", "id", f.ID, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("updating file failed"))
		return
	}

	s.logger.Info("edited image reset", "id", f.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// fileParam resolves the {id} URL parameter. On failure, the error
// response has been written and ok is false.
func (s *Server) fileParam(w http.ResponseWriter, r *http.Request) (*File, bool) {
	id, err := persist.ParseFileID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	f, err := s.lookup(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		s.logger.Error("lookup", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("lookup failed"))
		return nil, false
	}
	return f, true
}

// writeFile stores the contents of r at the given root-relative path,
// replacing any existing file atomically.
func (s *Server) writeFile(rel string, r io.Reader) error {
	dst := s.abs(rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return err
	}
	_, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("pagestore: writing %s: %w", rel, err)
	}
	return nil
}

func (s *Server) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
