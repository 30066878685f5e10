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
	"errors"
	"testing"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/ksarerr"
	"github.com/ksar-tools/ksarfmt/typetree"
)

func u32p(v uint32) *uint32 { return &v }

func newReader(b []byte) *breader.Reader {
	return breader.New(bytes.NewReader(b))
}

func TestDecodeIntLeaf(t *testing.T) {
	node := &typetree.FieldDef{Name: "m_Value", TypeName: "int", Size: u32p(4)}
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, 0xdeadbeef)
	v, err := DecodeObject(newReader(raw), node)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.Int()
	if !ok || uint32(got) != 0xdeadbeef {
		t.Fatalf("got %v, ok=%v", got, ok)
	}
}

func TestDecodeFloatLeafAligns(t *testing.T) {
	node := &typetree.FieldDef{Name: "m_X", TypeName: "float", Size: u32p(4)}
	// one byte we skip manually, three more the alignment consumes,
	// then the 4-byte float (1.0 LE) starting at the aligned offset 4
	raw := []byte{0xFF, 0, 0, 0, 0, 0, 0x80, 0x3f}
	r := newReader(raw)
	if err := r.Skip(1); err != nil {
		t.Fatal(err)
	}
	v, err := DecodeObject(r, node)
	if err != nil {
		t.Fatal(err)
	}
	f, ok := v.Float32()
	if !ok || f != 1.0 {
		t.Fatalf("got %v, ok=%v", f, ok)
	}
}

func byteArrayField(name, elemType string) *typetree.FieldDef {
	return &typetree.FieldDef{
		Name:    name,
		TypeName: "Array",
		IsArray: true,
		Children: []*typetree.FieldDef{
			{Name: "size", TypeName: "int", Size: u32p(4)},
			{Name: "data", TypeName: elemType, Size: u32p(1)},
		},
	}
}

func TestDecodeArrayOfBytesCollapsesToBlob(t *testing.T) {
	arr := byteArrayField("Array", "UInt8")

	raw := make([]byte, 4+3)
	binary.LittleEndian.PutUint32(raw[:4], 3)
	copy(raw[4:], []byte{'a', 'b', 'c'})

	v, err := DecodeObject(newReader(raw), arr)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := v.Bytes()
	if !ok || string(b) != "abc" {
		t.Fatalf("got %q, ok=%v", b, ok)
	}
}

func TestDecodeArrayOfRecords(t *testing.T) {
	elem := &typetree.FieldDef{
		Name:     "data",
		TypeName: "Base",
		Children: []*typetree.FieldDef{
			{Name: "m_Value", TypeName: "int", Size: u32p(4)},
		},
	}
	arr := &typetree.FieldDef{
		Name:    "Array",
		TypeName: "Array",
		IsArray: true,
		Children: []*typetree.FieldDef{
			{Name: "size", TypeName: "int", Size: u32p(4)},
			elem,
		},
	}

	raw := make([]byte, 4+4+4)
	binary.LittleEndian.PutUint32(raw[0:4], 2)
	binary.LittleEndian.PutUint32(raw[4:8], 11)
	binary.LittleEndian.PutUint32(raw[8:12], 22)

	v, err := DecodeObject(newReader(raw), arr)
	if err != nil {
		t.Fatal(err)
	}
	items, ok := v.Array()
	if !ok || len(items) != 2 {
		t.Fatalf("got %v, ok=%v", items, ok)
	}
	rec0, ok := items[0].Record()
	if !ok {
		t.Fatal("want record element")
	}
	f, ok := rec0.FieldByName("m_Value")
	if !ok {
		t.Fatal("want m_Value field")
	}
	got, _ := f.Value.Int()
	if got != 11 {
		t.Fatalf("got %d, want 11", got)
	}
}

func TestDecodeStringRecordCollapses(t *testing.T) {
	arrayField := byteArrayField("Array", "char")
	strNode := &typetree.FieldDef{
		Name:     "m_Name",
		TypeName: "string",
		Children: []*typetree.FieldDef{arrayField},
	}

	raw := make([]byte, 4+5)
	binary.LittleEndian.PutUint32(raw[:4], 5)
	copy(raw[4:], []byte("hello"))

	v, err := DecodeObject(newReader(raw), strNode)
	if err != nil {
		t.Fatal(err)
	}
	// The collapse yields the raw blob unchanged, never reinterpreted
	// as UTF-8 text.
	b, ok := v.Bytes()
	if !ok || string(b) != "hello" {
		t.Fatalf("got %q, ok=%v", b, ok)
	}
}

func TestDecodeArrayRejectsOversizedLength(t *testing.T) {
	arr := byteArrayField("Array", "int")
	arr.Children[1].TypeName = "int"
	arr.Children[1].Size = u32p(4)

	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, 20_000_000)

	_, err := DecodeObject(newReader(raw), arr)
	if !errors.Is(err, ksarerr.ErrSanityBound) {
		t.Fatalf("want ErrSanityBound, got %v", err)
	}
}
