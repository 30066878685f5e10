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
	"bytes"
	"encoding/binary"
	"testing"
)

func appendU32BE(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU32LE(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU64LE(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendU16LE(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

// buildSingleIntObjectAsset builds a minimal well-formed asset byte
// stream with one int32 object, and returns it alongside the value
// the payload encodes.
func buildSingleIntObjectAsset(t *testing.T, payload uint32) []byte {
	t.Helper()
	// 120 rather than 117 (the raw end of the object table) so the
	// payload starts 4-byte aligned: decodeLeaf aligns against the
	// stream's absolute offset, matching the reference decoder, and
	// real bundles guarantee their data region starts aligned.
	const dataOffset = 120

	var buf []byte
	buf = appendU32BE(buf, 0)          // table_size
	buf = appendU32BE(buf, 0)          // data_end
	buf = appendU32BE(buf, 0)          // file_gen
	buf = appendU32BE(buf, dataOffset) // data_offset
	buf = append(buf, 0, 0, 0, 0)      // reserved
	buf = append(buf, 0)               // version (empty cstring)
	buf = appendU32LE(buf, 0)          // platform

	buf = append(buf, 1) // are_defs
	buf = appendU32LE(buf, 1) // type_count

	buf = appendU32LE(buf, 5)              // class_code
	buf = append(buf, make([]byte, 16)...) // identity
	buf = appendU32LE(buf, 1)              // attr_count
	stab := []byte("value\x00")
	buf = appendU32LE(buf, uint32(len(stab))) // stab_len
	attr := make([]byte, 24)
	binary.LittleEndian.PutUint32(attr[4:8], 0x80000000|222) // typeOff -> "int"
	binary.LittleEndian.PutUint32(attr[8:12], 0)             // nameOff -> stab[0:] "value"
	binary.LittleEndian.PutUint32(attr[12:16], 4)            // size
	buf = append(buf, attr...)
	buf = append(buf, stab...)

	buf = appendU32LE(buf, 1) // object_count
	buf = appendU64LE(buf, 0x1234)
	buf = appendU32LE(buf, 0) // offset (relative to data_offset)
	buf = appendU32LE(buf, 4) // size
	buf = appendU32LE(buf, 5) // type_code
	buf = appendU16LE(buf, 0) // t2
	buf = append(buf, 0, 0)   // pad
	buf = append(buf, 0)      // unk

	if len(buf) > dataOffset {
		t.Fatalf("test construction bug: header+schema+table is %d bytes, exceeds %d", len(buf), dataOffset)
	}
	buf = append(buf, make([]byte, dataOffset-len(buf))...) // pad to data_offset
	buf = appendU32LE(buf, payload)
	return buf
}

func TestParseAndFulfillSingleObject(t *testing.T) {
	raw := buildSingleIntObjectAsset(t, 0xCAFEBABE)
	a, err := Parse(bytes.NewReader(raw), 0)
	if err != nil {
		t.Fatal(err)
	}
	objs := a.Objects()
	if len(objs) != 1 {
		t.Fatalf("want 1 object, got %d", len(objs))
	}
	p := objs[0]
	if p.PathID() != "0x1234" {
		t.Fatalf("got PathID %q", p.PathID())
	}
	if p.TypeName() != "int" {
		t.Fatalf("got TypeName %q", p.TypeName())
	}

	v, err := p.Fulfill()
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.Int()
	if !ok || uint32(got) != 0xCAFEBABE {
		t.Fatalf("got %v, ok=%v", got, ok)
	}

	v2, err := p.FulfillIndependent()
	if err != nil {
		t.Fatal(err)
	}
	got2, _ := v2.Int()
	if got2 != got {
		t.Fatalf("Fulfill and FulfillIndependent disagree: %v vs %v", got, got2)
	}

	v3, err := p.Fulfill()
	if err != nil {
		t.Fatal(err)
	}
	got3, _ := v3.Int()
	if got3 != got {
		t.Fatalf("repeated Fulfill returned a different value: %v vs %v", got3, got)
	}
}

func TestParseRejectsUnknownTypeCode(t *testing.T) {
	raw := buildSingleIntObjectAsset(t, 1)
	// corrupt the object entry's type_code field to reference a type
	// that doesn't exist in the schema.
	corrupted := append([]byte{}, raw...)
	const typeCodeOffset = 88 + 4 + 8 + 4 + 4 // schema end + object_count + path_id + offset + size
	binary.LittleEndian.PutUint32(corrupted[typeCodeOffset:typeCodeOffset+4], 0xFFFF)

	_, err := Parse(bytes.NewReader(corrupted), 0)
	if err == nil {
		t.Fatal("want an error for an unknown type code")
	}
}
