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
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/typetree"
)

// Asset is one parsed inner file: its header, its type tree, and the
// (not-yet-decoded) object table exposed as Promises.
//
// An Asset holds the seekable source backing all of its Promises;
// that source must outlive every Promise derived from this Asset.
// Fulfill reads directly against the shared source and is safe to
// call from one goroutine at a time; concurrent fulfillment across
// goroutines must either be externally serialized or use
// FulfillIndependent, which snapshots its object's bytes under a lock
// before decoding them lock-free.
type Asset struct {
	TableSize      uint32
	DataEnd        uint32
	FileGeneration uint32
	DataOffset     uint32
	Version        string
	Platform       uint32

	// ID correlates log and output lines about this Asset within a run.
	// It has no wire-format meaning.
	ID uuid.UUID

	Types *typetree.TypeTable

	src         breader.Source
	origin      int64
	mu          sync.Mutex
	promiseList []Promise
}

// Parse reads one inner stream's header, type tree, and object table,
// and returns the resulting Asset. origin is the absolute offset
// within src that the inner stream's payload starts at.
func Parse(src breader.Source, origin int64) (*Asset, error) {
	r := breader.New(src)
	if err := r.Seek(origin); err != nil {
		return nil, err
	}

	tableSize, err := r.ReadU32BE()
	if err != nil {
		return nil, fmt.Errorf("asset: reading table_size: %w", err)
	}
	dataEnd, err := r.ReadU32BE()
	if err != nil {
		return nil, fmt.Errorf("asset: reading data_end: %w", err)
	}
	fileGen, err := r.ReadU32BE()
	if err != nil {
		return nil, fmt.Errorf("asset: reading file_gen: %w", err)
	}
	dataOffset, err := r.ReadU32BE()
	if err != nil {
		return nil, fmt.Errorf("asset: reading data_offset: %w", err)
	}
	if err := r.Skip(4); err != nil { // reserved
		return nil, fmt.Errorf("asset: skipping reserved header bytes: %w", err)
	}
	version, err := r.ReadCString()
	if err != nil {
		return nil, fmt.Errorf("asset: reading version: %w", err)
	}
	platform, err := r.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("asset: reading platform: %w", err)
	}

	types, err := typetree.Parse(r)
	if err != nil {
		return nil, err
	}

	entries, err := readObjectTable(r, types)
	if err != nil {
		return nil, err
	}

	a := &Asset{
		TableSize:      tableSize,
		DataEnd:        dataEnd,
		FileGeneration: fileGen,
		DataOffset:     dataOffset,
		Version:        version,
		Platform:       platform,
		ID:             uuid.New(),
		Types:          types,
		src:            src,
		origin:         origin,
	}
	a.promiseList = make([]Promise, len(entries))
	for i, e := range entries {
		a.promiseList[i] = Promise{asset: a, entry: e}
	}
	return a, nil
}

// Objects returns every object entry in this asset, in table order,
// as an unfulfilled Promise. The result is a defensive copy: callers
// are free to reorder or truncate it without corrupting Asset's own
// table.
func (a *Asset) Objects() []Promise {
	return slices.Clone(a.promiseList)
}

// baseOffset is the absolute offset of the data region: the inner
// stream's origin plus the header's data_offset field.
func (a *Asset) baseOffset() int64 {
	return a.origin + int64(a.DataOffset)
}

// snapshot reads size bytes at the data region's offset into a
// private buffer, serialized against any other snapshot reading from
// the same shared source. Fulfill does not take this lock.
func (a *Asset) snapshot(offset, size uint32) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	abs := a.baseOffset() + int64(offset)
	return breader.PeekAt(breader.New(a.src), abs, func(r *breader.Reader) ([]byte, error) {
		return r.ReadBytes(int(size))
	})
}
