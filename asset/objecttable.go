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

import (
	"fmt"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/ksarerr"
	"github.com/ksar-tools/ksarfmt/typetree"
)

// maxObjectCount bounds the object table, rejected up front before a
// single entry is read, so a crafted object_count can't drive an
// oversized allocation.
const maxObjectCount = 2048

// readObjectTable reads object_count and that many entries, each
// preceded by a 4-byte cursor alignment, from r's current cursor.
func readObjectTable(r *breader.Reader, types *typetree.TypeTable) ([]ObjectEntry, error) {
	count, err := r.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("asset: reading object_count: %w", err)
	}
	if count >= maxObjectCount {
		return nil, fmt.Errorf("%w: object_count %d >= %d", ksarerr.ErrSanityBound, count, maxObjectCount)
	}

	entries := make([]ObjectEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		if err := r.Align(4); err != nil {
			return nil, fmt.Errorf("asset: object %d: %w", i, err)
		}
		e, err := readObjectEntry(r)
		if err != nil {
			return nil, fmt.Errorf("asset: object %d: %w", i, err)
		}
		if _, ok := types.Root(e.TypeCode); !ok {
			return nil, fmt.Errorf("%w: object %d references type code %#x", ksarerr.ErrUnknownTypeCode, i, e.TypeCode)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readObjectEntry(r *breader.Reader) (ObjectEntry, error) {
	pathID, err := r.ReadU64LE()
	if err != nil {
		return ObjectEntry{}, err
	}
	offset, err := r.ReadU32LE()
	if err != nil {
		return ObjectEntry{}, err
	}
	size, err := r.ReadU32LE()
	if err != nil {
		return ObjectEntry{}, err
	}
	typeCode, err := r.ReadU32LE()
	if err != nil {
		return ObjectEntry{}, err
	}
	t2, err := r.ReadU16LE()
	if err != nil {
		return ObjectEntry{}, err
	}
	if _, err := r.ReadBytes(2); err != nil { // pad
		return ObjectEntry{}, err
	}
	unk, err := r.ReadU8()
	if err != nil {
		return ObjectEntry{}, err
	}
	return ObjectEntry{
		PathID:   pathID,
		Offset:   offset,
		Size:     size,
		TypeCode: typeCode,
		T2:       t2,
		Unk:      unk,
	}, nil
}
