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

package persist

import (
	"context"
	"fmt"
	"image"
	"maps"
	"slices"
	"sync"
)

// Memory is a Store which keeps originals and saved composites in memory.
// It serves the original image even after a save, and records every call
// so that callers can inspect what was stored.
type Memory struct {
	mu        sync.Mutex
	originals map[FileID]image.Image
	edited    map[FileID][]byte
	saves     int
	resets    int

	// FailSave, if set, is returned by Save instead of storing the blob.
	FailSave error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		originals: make(map[FileID]image.Image),
		edited:    make(map[FileID][]byte),
	}
}

// Put registers an original image.
func (m *Memory) Put(id FileID, img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.originals[id] = img
}

// Original implements Store.
func (m *Memory) Original(ctx context.Context, id FileID) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.originals[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	return img, nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, id FileID, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.FailSave != nil {
		return m.FailSave
	}
	if _, ok := m.originals[id]; !ok {
		return fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	m.edited[id] = slices.Clone(blob)
	return nil
}

// Reset implements Store.
func (m *Memory) Reset(ctx context.Context, id FileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	if _, ok := m.originals[id]; !ok {
		return fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	delete(m.edited, id)
	return nil
}

// Edited returns the composite stored for a file.
func (m *Memory) Edited(id FileID) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.edited[id]
	return b, ok
}

// EditedIDs lists the files with a stored composite, in increasing order.
func (m *Memory) EditedIDs() []FileID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.edited))
}

// Calls returns the number of Save and Reset calls so far.
func (m *Memory) Calls() (saves, resets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves, m.resets
}
