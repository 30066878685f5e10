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

package envelope

import "io"

// rawMagic is KsarRaw + two NUL bytes.
var rawMagic = []byte{'K', 's', 'a', 'r', 'R', 'a', 'w', 0x00, 0x00}

// rawDataOffset is the fixed absolute offset the payload starts at
// once the raw envelope's magic and header padding have been skipped.
const rawDataOffset = 0x70

// rawProbe detects the thin raw envelope: a magic followed by a fixed
// amount of header padding, then the payload verbatim.
type rawProbe struct{}

func (rawProbe) try(name string, src Source) (probeResult, error) {
	match, err := hasMagic(src, rawMagic)
	if err != nil {
		return probeResult{}, err
	}
	if !match {
		return declined()
	}
	if _, err := src.Seek(rawDataOffset, io.SeekStart); err != nil {
		return probeResult{}, err
	}
	return terminal([]InnerStream{{Name: name, Src: src, Origin: rawDataOffset}})
}
