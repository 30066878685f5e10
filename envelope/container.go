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

import (
	"bytes"
	"fmt"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/ksarerr"
)

// containerMagic is KsarFS padded with two NUL bytes to eight bytes,
// matching the length and role of the format it renames.
var containerMagic = []byte{'K', 's', 'a', 'r', 'F', 'S', 0, 0}

// blockRecord describes one compressed data block in the directory
// header's block table.
type blockRecord struct {
	uncompressedSize uint32
	compressedSize   uint32
	flags            uint16
}

// fileRecord describes one logical file: its offset from the start of
// the data region, where the block holding it begins.
type fileRecord struct {
	offset uint64
	size   uint64
	flags  uint32
	name   string
}

// containerProbe unwraps the compressed multi-file container
// envelope into one InnerStream per contained file.
type containerProbe struct{}

func (containerProbe) try(name string, src Source) (probeResult, error) {
	match, err := hasMagic(src, containerMagic)
	if err != nil {
		return probeResult{}, err
	}
	if !match {
		return declined()
	}

	r := breader.New(src)
	if err := r.Seek(0); err != nil {
		return probeResult{}, err
	}
	if err := r.Skip(int64(len(containerMagic))); err != nil {
		return probeResult{}, err
	}
	if err := r.Skip(9); err != nil {
		return probeResult{}, err
	}
	if _, err := r.ReadU32BE(); err != nil { // stream version, unused
		return probeResult{}, err
	}
	if _, err := r.ReadCString(); err != nil { // creator, unused
		return probeResult{}, err
	}
	if _, err := r.ReadCString(); err != nil { // revision, unused
		return probeResult{}, err
	}
	fileSize, err := r.ReadU64BE()
	if err != nil {
		return probeResult{}, err
	}
	cdhSize, err := r.ReadU32BE()
	if err != nil {
		return probeResult{}, err
	}
	dhSize, err := r.ReadU32BE()
	if err != nil {
		return probeResult{}, err
	}
	flags, err := r.ReadU32BE()
	if err != nil {
		return probeResult{}, err
	}
	headerEnd, err := r.Tell()
	if err != nil {
		return probeResult{}, err
	}

	var dirRaw []byte
	var dataStart int64
	if flags&0x80 == 0 {
		dirRaw, err = r.ReadBytes(int(cdhSize))
		if err != nil {
			return probeResult{}, err
		}
		dataStart = headerEnd + int64(cdhSize)
	} else {
		dirRaw, err = breader.PeekAt(r, int64(fileSize)-int64(cdhSize), func(r *breader.Reader) ([]byte, error) {
			return r.ReadBytes(int(cdhSize))
		})
		if err != nil {
			return probeResult{}, err
		}
		dataStart = headerEnd
	}

	dir, err := decompressBlock(uint8(flags&0x3f), dirRaw, dhSize)
	if err != nil {
		return probeResult{}, fmt.Errorf("%s: directory header: %w", name, err)
	}

	blocks, files, err := parseDirectory(dir)
	if err != nil {
		return probeResult{}, fmt.Errorf("%s: %w", name, err)
	}

	// Each file is decompressed from its own block, found by seeking
	// the outer stream to dataStart+file.offset and reading that
	// file's corresponding block (matched by index, per unityfs_unwrap):
	// files are never sliced out of one concatenated blob.
	if len(files) > len(blocks) {
		return probeResult{}, fmt.Errorf("%w: %s: %d files but only %d blocks",
			ksarerr.ErrMalformedSchema, name, len(files), len(blocks))
	}
	streams := make([]InnerStream, 0, len(files))
	for i, f := range files {
		b := blocks[i]
		if err := r.Seek(dataStart + int64(f.offset)); err != nil {
			return probeResult{}, err
		}
		raw, err := r.ReadBytes(int(b.compressedSize))
		if err != nil {
			return probeResult{}, fmt.Errorf("%s: file %q block: %w", name, f.name, err)
		}
		chunk, err := decompressBlock(uint8(b.flags&0x3f), raw, b.uncompressedSize)
		if err != nil {
			return probeResult{}, fmt.Errorf("%s: file %q: %w", name, f.name, err)
		}
		streams = append(streams, InnerStream{Name: f.name, Src: bytes.NewReader(chunk)})
	}
	return terminal(streams)
}

// parseDirectory reads the decompressed directory payload: 16
// reserved bytes, the block table, and the file table.
func parseDirectory(dir []byte) ([]blockRecord, []fileRecord, error) {
	dr := breader.New(bytes.NewReader(dir))
	if err := dr.Skip(16); err != nil {
		return nil, nil, err
	}
	blockCount, err := dr.ReadU32BE()
	if err != nil {
		return nil, nil, err
	}
	blocks := make([]blockRecord, blockCount)
	for i := range blocks {
		u, err := dr.ReadU32BE()
		if err != nil {
			return nil, nil, err
		}
		c, err := dr.ReadU32BE()
		if err != nil {
			return nil, nil, err
		}
		fl, err := dr.ReadU16BE()
		if err != nil {
			return nil, nil, err
		}
		blocks[i] = blockRecord{uncompressedSize: u, compressedSize: c, flags: fl}
	}

	fileCount, err := dr.ReadU32BE()
	if err != nil {
		return nil, nil, err
	}
	files := make([]fileRecord, fileCount)
	for i := range files {
		off, err := dr.ReadU64BE()
		if err != nil {
			return nil, nil, err
		}
		sz, err := dr.ReadU64BE()
		if err != nil {
			return nil, nil, err
		}
		fl, err := dr.ReadU32BE()
		if err != nil {
			return nil, nil, err
		}
		nm, err := dr.ReadCString()
		if err != nil {
			return nil, nil, err
		}
		files[i] = fileRecord{offset: off, size: sz, flags: fl, name: nm}
	}
	return blocks, files, nil
}
