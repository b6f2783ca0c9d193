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

import "errors"

var (
	// ErrNoImage is returned by operations which need a loaded page.
	ErrNoImage = errors.New("pageedit: no image loaded")

	// ErrSaveInProgress is returned by Save while an earlier save has not
	// finished.
	ErrSaveInProgress = errors.New("pageedit: save in progress")
)
