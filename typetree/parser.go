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

package typetree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/dchest/siphash"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/ksarerr"
)

// maxAttrsPerRecord bounds the number of attribute records read for a
// single type record, matching the reference decoder's defensive
// assertion (attr_cnt < 2048); it guards against a crafted attr_count
// driving an oversized allocation before any bytes are validated.
// stab_len is not bounded.
const maxAttrsPerRecord = 2048

// dedup keys identity+attrs+stab blobs that hash identically across
// distinct type codes, so byte-identical schemas (common for shared
// MonoBehaviour/component layouts in real bundles) only get parsed
// into one FieldDef tree. Purely an internal memory optimization: it
// never changes what TypeTable.Root returns for a given type code.
const (
	dedupK0 = 0x61707865ac894dc2
	dedupK1 = 0x3320646e917e5f4b
)

// Parse reads the schema section (are_defs, type_count, and that many
// type records) starting at r's current cursor, and returns the
// resulting TypeTable.
func Parse(r *breader.Reader) (*TypeTable, error) {
	areDefsRaw, err := r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("typetree: reading are_defs: %w", err)
	}
	typeCount, err := r.ReadU32LE()
	if err != nil {
		return nil, fmt.Errorf("typetree: reading type_count: %w", err)
	}

	tbl := &TypeTable{
		AreDefs: areDefsRaw != 0,
		roots:   make(map[uint32]*FieldDef, typeCount),
	}
	seen := make(map[uint64]*FieldDef, typeCount)

	for i := uint32(0); i < typeCount; i++ {
		classCode, identity, attrsRaw, stab, err := readTypeRecordHeader(r)
		if err != nil {
			return nil, fmt.Errorf("typetree: type record %d: %w", i, err)
		}

		key := dedupKey(identity, attrsRaw, stab)
		if root, ok := seen[key]; ok {
			tbl.roots[classCode] = root
			continue
		}

		root, err := buildTree(attrsRaw, stab)
		if err != nil {
			return nil, fmt.Errorf("typetree: type record %d (code %#x): %w", i, classCode, err)
		}
		seen[key] = root
		tbl.roots[classCode] = root
	}
	return tbl, nil
}

func readTypeRecordHeader(r *breader.Reader) (classCode uint32, identity, attrsRaw, stab []byte, err error) {
	classCode, err = r.ReadU32LE()
	if err != nil {
		return 0, nil, nil, nil, err
	}
	identitySize := 16
	if classCode == 0xFFFFFFFF {
		identitySize = 32
	}
	identity, err = r.ReadBytes(identitySize)
	if err != nil {
		return 0, nil, nil, nil, err
	}
	attrCount, err := r.ReadU32LE()
	if err != nil {
		return 0, nil, nil, nil, err
	}
	if attrCount >= maxAttrsPerRecord {
		return 0, nil, nil, nil, fmt.Errorf("%w: attr_count %d >= %d", ksarerr.ErrSanityBound, attrCount, maxAttrsPerRecord)
	}
	stabLen, err := r.ReadU32LE()
	if err != nil {
		return 0, nil, nil, nil, err
	}
	attrsRaw, err = r.ReadBytes(int(attrCount) * 24)
	if err != nil {
		return 0, nil, nil, nil, err
	}
	stab, err = r.ReadBytes(int(stabLen))
	if err != nil {
		return 0, nil, nil, nil, err
	}
	return classCode, identity, attrsRaw, stab, nil
}

func dedupKey(identity, attrsRaw, stab []byte) uint64 {
	var buf bytes.Buffer
	buf.Write(identity)
	buf.Write(attrsRaw)
	buf.Write(stab)
	lo, _ := siphash.Hash128(dedupK0, dedupK1, buf.Bytes())
	return lo
}

type rawAttr struct {
	level        uint8
	isArrayFlag  uint8
	typeOff      uint32
	nameOff      uint32
	size         uint32
	flags        uint32
}

func parseAttr(b []byte) rawAttr {
	return rawAttr{
		level:       b[2],
		isArrayFlag: b[3],
		typeOff:     binary.LittleEndian.Uint32(b[4:8]),
		nameOff:     binary.LittleEndian.Uint32(b[8:12]),
		size:        binary.LittleEndian.Uint32(b[12:16]),
		flags:       binary.LittleEndian.Uint32(b[20:24]),
	}
}

// buildTree reconstructs a single type tree from its flat attribute
// array, using the level field to maintain a "current parent at each
// depth" stack, as described in the reference decoder.
func buildTree(attrsRaw, stab []byte) (*FieldDef, error) {
	n := len(attrsRaw) / 24
	var root *FieldDef
	// parents[d] is the most recently appended node at depth d.
	var parents []*FieldDef

	for i := 0; i < n; i++ {
		a := parseAttr(attrsRaw[i*24 : i*24+24])
		if a.level >= 32 {
			return nil, fmt.Errorf("%w: level %d out of range", ksarerr.ErrMalformedSchema, a.level)
		}
		name, err := resolveOffset(a.nameOff, stab)
		if err != nil {
			return nil, err
		}
		typeName, err := resolveOffset(a.typeOff, stab)
		if err != nil {
			return nil, err
		}
		var sizePtr *uint32
		if a.size != 0xFFFFFFFF {
			size := a.size
			sizePtr = &size
		}
		node := &FieldDef{
			Name:     name,
			TypeName: typeName,
			Size:     sizePtr,
			Flags:    a.flags,
			IsArray:  a.isArrayFlag != 0,
		}

		level := int(a.level)
		if level == 0 {
			if root != nil {
				return nil, fmt.Errorf("%w: type record has more than one root", ksarerr.ErrMalformedSchema)
			}
			root = node
			parents = []*FieldDef{node}
			continue
		}
		if level > len(parents) {
			return nil, fmt.Errorf("%w: level %d skips a parent depth", ksarerr.ErrMalformedSchema, level)
		}
		parent := parents[level-1]
		parent.Children = append(parent.Children, node)
		parents = append(parents[:level], node)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: type record has no root", ksarerr.ErrMalformedSchema)
	}
	return root, nil
}

// resolveOffset resolves a name/type offset: if the high bit is set,
// the low 31 bits index the base-string dictionary; otherwise the
// offset indexes into stab, extending to the first NUL.
func resolveOffset(off uint32, stab []byte) (string, error) {
	if off&0x80000000 != 0 {
		return lookupBaseString(off &^ 0x80000000), nil
	}
	if int(off) > len(stab) {
		return "", fmt.Errorf("%w: string offset %d exceeds table of length %d", ksarerr.ErrMalformedSchema, off, len(stab))
	}
	rest := stab[off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		end = len(rest)
	}
	raw := rest[:end]
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: string table entry at offset %d", ksarerr.ErrInvalidUTF8, off)
	}
	return string(raw), nil
}
