// Copyright (C) 2024 Ksar Tools Contributors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package texture defines the external contract for turning a
// decoded Texture2D object's raw pixel data into an image file.
// Texture decoding/encoding itself is out of scope for this module;
// no production Encoder lives here.
package texture

import "fmt"

// Encoder turns raw pixel data in a platform/engine-specific format
// into an image file at outPath. format is the engine's own texture
// format enum value, preserved verbatim from the decoded object.
type Encoder interface {
	Encode(format, width, height int32, data []byte, outPath string) error
}

// NoOp is the zero-value default Encoder: it reports every call as
// unsupported rather than silently dropping texture data. A real
// implementation - e.g. a cgo binding to a platform texture library,
// or a pure-Go DXT/ETC decoder - would satisfy the same interface.
type NoOp struct{}

func (NoOp) Encode(format, width, height int32, data []byte, outPath string) error {
	return fmt.Errorf("texture: no encoder configured for format %d (%dx%d, %d bytes) -> %s", format, width, height, len(data), outPath)
}
