// seehuhn.de/go/printer - convert documents to printer raster streams
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

// Package pagesource turns documents into pixels.
//
// A page source provides numbered pages together with their geometry
// and can draw any of them into an image under an affine transform.
// [Document] reads PDF files, [Image] wraps a single raster image.
// Neither type is safe for concurrent use.
//
// The PDF renderer aims for robustness rather than completeness:
// malformed content streams are rendered as far as possible, and
// features outside the needs of typical print jobs (transparency
// groups, shading patterns, clipping paths, JPEG 2000 images) are
// approximated or skipped.
package pagesource
