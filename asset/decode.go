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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/ksarerr"
	"github.com/ksar-tools/ksarfmt/typetree"
)

// maxArrayLength bounds a single array's declared length, rejected
// before any element is read, so a crafted length field can't drive
// an enormous allocation.
const maxArrayLength = 10_000_000

// DecodeObject decodes one object's payload, starting at r's current
// cursor, against root.
func DecodeObject(r *breader.Reader, root *typetree.FieldDef) (Value, error) {
	return decodeNode(r, root)
}

func decodeNode(r *breader.Reader, node *typetree.FieldDef) (Value, error) {
	switch {
	case node.IsArray:
		return decodeArray(r, node)
	case node.IsRecord():
		return decodeRecord(r, node)
	default:
		return decodeLeaf(r, node)
	}
}

func decodeArray(r *breader.Reader, node *typetree.FieldDef) (Value, error) {
	if len(node.Children) != 2 {
		return Value{}, fmt.Errorf("%w: array field %q has %d children, want 2", ksarerr.ErrMalformedSchema, node.Name, len(node.Children))
	}
	lengthField, elemField := node.Children[0], node.Children[1]

	lengthVal, err := decodeNode(r, lengthField)
	if err != nil {
		return Value{}, err
	}
	length, ok := lengthVal.AsInt64()
	if !ok {
		return Value{}, fmt.Errorf("%w: array %q length field decoded to a non-integer value", ksarerr.ErrMalformedSchema, node.Name)
	}
	if length < 0 || length >= maxArrayLength {
		return Value{}, fmt.Errorf("%w: array %q length %d >= %d", ksarerr.ErrSanityBound, node.Name, length, maxArrayLength)
	}

	if elemField.TypeName == "UInt8" || elemField.TypeName == "char" {
		raw, err := r.ReadBytes(int(length))
		if err != nil {
			return Value{}, fmt.Errorf("array %q: %w", node.Name, err)
		}
		return BytesValue(raw), nil
	}

	elems := make([]Value, 0, length)
	for i := int64(0); i < length; i++ {
		v, err := decodeNode(r, elemField)
		if err != nil {
			return Value{}, fmt.Errorf("array %q[%d]: %w", node.Name, i, err)
		}
		elems = append(elems, v)
	}
	return ArrayValue(elems), nil
}

func decodeRecord(r *breader.Reader, node *typetree.FieldDef) (Value, error) {
	fields := make([]Field, 0, len(node.Children))
	for _, child := range node.Children {
		v, err := decodeNode(r, child)
		if err != nil {
			return Value{}, fmt.Errorf("record %q.%s: %w", node.Name, child.Name, err)
		}
		fields = append(fields, Field{Name: child.Name, Value: v})
	}
	rec := RecordValue(Record{Fields: fields})

	// String-as-wrapped-byte-array idiom: a "string" record with a
	// single child collapses to that child's value unchanged - the
	// bytes stay a raw blob, never reinterpreted as UTF-8 text.
	if node.TypeName == "string" && len(fields) == 1 {
		return fields[0].Value, nil
	}
	return rec, nil
}

func decodeLeaf(r *breader.Reader, node *typetree.FieldDef) (Value, error) {
	if node.Size == nil {
		return Value{}, fmt.Errorf("%w: leaf field %q has no size", ksarerr.ErrMalformedSchema, node.Name)
	}
	size := *node.Size
	alignTo := size
	if alignTo > 4 {
		alignTo = 4
	}
	if alignTo > 0 {
		if err := r.Align(int64(alignTo)); err != nil {
			return Value{}, err
		}
	}
	raw, err := r.ReadBytes(int(size))
	if err != nil {
		return Value{}, fmt.Errorf("leaf %q: %w", node.Name, err)
	}
	return interpretLeaf(node, raw)
}

func interpretLeaf(node *typetree.FieldDef, raw []byte) (Value, error) {
	switch node.TypeName {
	case "int":
		if len(raw) < 4 {
			return Value{}, fmt.Errorf("%w: int field %q shorter than 4 bytes", ksarerr.ErrMalformedSchema, node.Name)
		}
		return IntValue(int32(binary.LittleEndian.Uint32(raw))), nil
	case "int64":
		if len(raw) < 8 {
			return Value{}, fmt.Errorf("%w: int64 field %q shorter than 8 bytes", ksarerr.ErrMalformedSchema, node.Name)
		}
		return Int64Value(int64(binary.LittleEndian.Uint64(raw))), nil
	case "char":
		if len(raw) < 1 {
			return Value{}, fmt.Errorf("%w: char field %q is empty", ksarerr.ErrMalformedSchema, node.Name)
		}
		return CharValue(raw[0]), nil
	case "bool":
		if len(raw) < 1 {
			return Value{}, fmt.Errorf("%w: bool field %q is empty", ksarerr.ErrMalformedSchema, node.Name)
		}
		return BoolValue(raw[0] != 0), nil
	case "float":
		if len(raw) < 4 {
			return Value{}, fmt.Errorf("%w: float field %q shorter than 4 bytes", ksarerr.ErrMalformedSchema, node.Name)
		}
		return Float32Value(math.Float32frombits(binary.LittleEndian.Uint32(raw))), nil
	default:
		return BytesValue(raw), nil
	}
}
