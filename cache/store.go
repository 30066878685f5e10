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

// Package cache is an optional, on-disk decode cache: it memoizes
// Fulfill results across runs, keyed by a bundle hash and path ID.
// Nothing in package asset consults this cache; callers opt in
// explicitly.
package cache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/ksar-tools/ksarfmt/asset"
	"github.com/ksar-tools/ksarfmt/compr"
)

// Store wraps a directory of cached, compressed, encoded Values.
type Store struct {
	dir string
}

// Open returns a Store rooted at dir, creating it if necessary.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) keyPath(bundleHash, pathID string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(bundleHash))
	h.Write([]byte{0})
	h.Write([]byte(pathID))
	return filepath.Join(s.dir, hex.EncodeToString(h.Sum(nil))+".kcache")
}

// Get returns the cached Value for (bundleHash, pathID), if present.
func (s *Store) Get(bundleHash, pathID string) (asset.Value, bool, error) {
	raw, err := os.ReadFile(s.keyPath(bundleHash, pathID))
	if os.IsNotExist(err) {
		return asset.Value{}, false, nil
	}
	if err != nil {
		return asset.Value{}, false, fmt.Errorf("cache: reading entry: %w", err)
	}
	if len(raw) < 4 {
		return asset.Value{}, false, fmt.Errorf("cache: entry shorter than its length prefix")
	}
	uncompressedSize := beUint32(raw[:4])
	decompressor := compr.Decompression("zstd")
	dst := make([]byte, uncompressedSize)
	if err := decompressor.Decompress(raw[4:], dst); err != nil {
		return asset.Value{}, false, fmt.Errorf("cache: decompressing entry: %w", err)
	}
	v, err := decodeValue(dst)
	if err != nil {
		return asset.Value{}, false, fmt.Errorf("cache: decoding entry: %w", err)
	}
	return v, true, nil
}

// Put stores v under (bundleHash, pathID), overwriting any existing
// entry.
func (s *Store) Put(bundleHash, pathID string, v asset.Value) error {
	encoded := encodeValue(v)
	compressor := compr.Compression("zstd")
	compressed := compressor.Compress(encoded, nil)

	var out []byte
	out = appendBEUint32(out, uint32(len(encoded)))
	out = append(out, compressed...)

	tmp := s.keyPath(bundleHash, pathID) + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("cache: writing entry: %w", err)
	}
	return os.Rename(tmp, s.keyPath(bundleHash, pathID))
}
