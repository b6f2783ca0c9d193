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

// Package persist is the boundary between the editor and the file service.
//
// The editor fetches the original page image, stores an edited composite
// for a file, and discards the edited composite again. Store abstracts
// these three calls; Client implements them over HTTP and Memory keeps
// everything in memory.
package persist

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"

	// decoders for the formats found in scanned page uploads
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FileID identifies a file of the pipeline.
type FileID int64

func (id FileID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseFileID parses the decimal form of a file id.
func ParseFileID(s string) (FileID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid file id %q", s)
	}
	return FileID(v), nil
}

// Store is the persistence boundary of the editor.
type Store interface {
	// Original returns the page image for a file. If an edited composite
	// has been saved, the service may return that instead.
	Original(ctx context.Context, id FileID) (image.Image, error)

	// Save stores an encoded composite for a file, replacing any earlier
	// one.
	Save(ctx context.Context, id FileID, blob []byte) error

	// Reset discards the stored composite, so that the untouched original
	// is served again.
	Reset(ctx context.Context, id FileID) error
}

// ErrNotFound is matched by errors for unknown files.
var ErrNotFound = errors.New("file not found")

// Decode decodes an image in any of the registered formats: JPEG, PNG,
// GIF, BMP, TIFF and WebP.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}
