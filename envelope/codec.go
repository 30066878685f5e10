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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"

	"github.com/ksar-tools/ksarfmt/ksarerr"
)

// maxBlockSize bounds any single decompressed block (directory header
// or data block), so a crafted uncompressed-size field can't drive an
// enormous allocation before a single byte of it has been validated.
const maxBlockSize = 1 << 30 // 1 GiB

// decompressBlock decompresses raw per compression code (the low six
// bits of a container Flags/BlockFlags field) into a buffer of
// exactly uncompressedSize bytes.
func decompressBlock(code uint8, raw []byte, uncompressedSize uint32) ([]byte, error) {
	if uncompressedSize >= maxBlockSize {
		return nil, fmt.Errorf("%w: block of %d bytes exceeds %d", ksarerr.ErrSanityBound, uncompressedSize, maxBlockSize)
	}
	switch code {
	case 0:
		if uint32(len(raw)) != uncompressedSize {
			return nil, fmt.Errorf("%w: raw block is %d bytes, want %d", ksarerr.ErrMalformedSchema, len(raw), uncompressedSize)
		}
		return raw, nil
	case 1, 2:
		return decompressLZMAAlone(raw, uncompressedSize)
	case 3:
		return decompressLZ4Block(raw, uncompressedSize)
	default:
		return nil, fmt.Errorf("%w: compression code %d", ksarerr.ErrUnsupportedCompression, code)
	}
}

// decompressLZ4Block decodes a block prefixed by its own little-endian
// u32 uncompressed size, which this format stores redundantly with
// the size already known from the directory header.
func decompressLZ4Block(raw []byte, uncompressedSize uint32) ([]byte, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: lz4 block shorter than its size prefix", ksarerr.ErrMalformedSchema)
	}
	declared := binary.LittleEndian.Uint32(raw[:4])
	if declared != uncompressedSize {
		return nil, fmt.Errorf("%w: lz4 block declares %d bytes, directory says %d", ksarerr.ErrMalformedSchema, declared, uncompressedSize)
	}
	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(raw[4:], dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if uint32(n) != uncompressedSize {
		return nil, fmt.Errorf("%w: lz4 produced %d bytes, want %d", ksarerr.ErrMalformedSchema, n, uncompressedSize)
	}
	return dst, nil
}

// lzmaUnknownSizeSentinel: the block on disk carries only the 5-byte
// LZMA-alone properties header (1 properties byte + 4-byte dictionary
// size), never the 8-byte uncompressed-size field the format expects
// next. The fix inserts 8 literal 0xFF bytes - the "size unknown"
// sentinel - between the 5-byte header and the rest of the compressed
// payload, growing the stream by 8 bytes rather than overwriting any
// of it; the reader then relies on the caller-known uncompressedSize.
func decompressLZMAAlone(raw []byte, uncompressedSize uint32) ([]byte, error) {
	if len(raw) < 5 {
		return nil, fmt.Errorf("%w: lzma header shorter than 5 bytes", ksarerr.ErrMalformedSchema)
	}
	patched := make([]byte, 0, len(raw)+8)
	patched = append(patched, raw[:5]...)
	patched = append(patched, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	patched = append(patched, raw[5:]...)
	rd, err := lzma.NewReader(bytes.NewReader(patched))
	if err != nil {
		return nil, fmt.Errorf("lzma decompress: %w", err)
	}
	dst := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(rd, dst); err != nil {
		return nil, fmt.Errorf("lzma decompress: %w", err)
	}
	return dst, nil
}
