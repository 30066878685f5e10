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

// Package asset decodes object-table entries against a type tree into
// Values, and exposes each entry as a lazily-fulfilled Promise.
package asset

import "fmt"

// Kind identifies which field of a Value is meaningful.
type Kind uint8

const (
	KindInt Kind = iota
	KindInt64
	KindChar
	KindBool
	KindFloat32
	KindBytes
	KindString
	KindArray
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindChar:
		return "char"
	case KindBool:
		return "bool"
	case KindFloat32:
		return "float32"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a decoded datum: an explicit tagged union, never collapsed
// into an untyped map or interface{}. Exactly one of its fields is
// meaningful, selected by Kind.
type Value struct {
	kind  Kind
	i32   int32
	i64   int64
	ch    byte
	b     bool
	f32   float32
	bytes []byte
	str   string
	arr   []Value
	rec   Record
}

// Kind reports which accessor on v is meaningful.
func (v Value) Kind() Kind { return v.kind }

func IntValue(n int32) Value     { return Value{kind: KindInt, i32: n} }
func Int64Value(n int64) Value   { return Value{kind: KindInt64, i64: n} }
func CharValue(c byte) Value     { return Value{kind: KindChar, ch: c} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }
func Float32Value(f float32) Value { return Value{kind: KindFloat32, f32: f} }
func BytesValue(b []byte) Value  { return Value{kind: KindBytes, bytes: b} }
func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func ArrayValue(vs []Value) Value { return Value{kind: KindArray, arr: vs} }
func RecordValue(r Record) Value { return Value{kind: KindRecord, rec: r} }

// Int returns v's value as an int32, and whether v.Kind() == KindInt.
func (v Value) Int() (int32, bool) { return v.i32, v.kind == KindInt }

// Int64 returns v's value as an int64, and whether v.Kind() == KindInt64.
func (v Value) Int64() (int64, bool) { return v.i64, v.kind == KindInt64 }

// Char returns v's value as a byte, and whether v.Kind() == KindChar.
func (v Value) Char() (byte, bool) { return v.ch, v.kind == KindChar }

// Bool returns v's value as a bool, and whether v.Kind() == KindBool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Float32 returns v's value as a float32, and whether v.Kind() == KindFloat32.
func (v Value) Float32() (float32, bool) { return v.f32, v.kind == KindFloat32 }

// Bytes returns v's value as a byte slice, and whether v.Kind() == KindBytes.
func (v Value) Bytes() ([]byte, bool) { return v.bytes, v.kind == KindBytes }

// String returns v's value as a string, and whether v.Kind() == KindString.
func (v Value) String() (string, bool) { return v.str, v.kind == KindString }

// Array returns v's value as a Value slice, and whether v.Kind() == KindArray.
func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Record returns v's value as a Record, and whether v.Kind() == KindRecord.
func (v Value) Record() (Record, bool) { return v.rec, v.kind == KindRecord }

// AsInt64 widens any of the integer-like kinds (Int, Int64, Char) to
// an int64, for callers that don't care about the original width.
func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case KindInt:
		return int64(v.i32), true
	case KindInt64:
		return v.i64, true
	case KindChar:
		return int64(v.ch), true
	default:
		return 0, false
	}
}

// Field is one named entry of a Record, preserving declaration order.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered mapping from field name to Value. Field order
// is significant and is never reshuffled through a Go map.
type Record struct {
	Fields []Field
}

// FieldByName returns the first field named name, in declaration
// order.
func (r Record) FieldByName(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Each calls fn for each field in declaration order, stopping early
// if fn returns false.
func (r Record) Each(fn func(Field) bool) {
	for _, f := range r.Fields {
		if !fn(f) {
			return
		}
	}
}

// Len returns the number of fields in r.
func (r Record) Len() int { return len(r.Fields) }
