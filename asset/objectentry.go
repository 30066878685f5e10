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

package asset

// ObjectEntry is one row of the object table: where to find an
// object's payload and which type tree to decode it against. T2 and
// Unk are preserved verbatim but not interpreted by this decoder.
type ObjectEntry struct {
	PathID   uint64
	Offset   uint32
	Size     uint32
	TypeCode uint32
	T2       uint16
	Unk      uint8
}
