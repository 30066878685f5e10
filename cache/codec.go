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

package cache

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ksar-tools/ksarfmt/asset"
)

// encodeValue and decodeValue implement a small, hand-rolled binary
// codec for asset.Value. Value's variant shape (a tagged union with
// no exported fields) doesn't map onto encoding/gob's reflection-based
// struct walk, the same reason the type-tree decoder itself never
// reaches for a generic (de)serialization package.

func appendBEUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func beUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func encodeValue(v asset.Value) []byte {
	var out []byte
	return appendValue(out, v)
}

func appendValue(out []byte, v asset.Value) []byte {
	out = append(out, byte(v.Kind()))
	switch v.Kind() {
	case asset.KindInt:
		n, _ := v.Int()
		out = appendBEUint32(out, uint32(n))
	case asset.KindInt64:
		n, _ := v.Int64()
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(n))
		out = append(out, tmp[:]...)
	case asset.KindChar:
		c, _ := v.Char()
		out = append(out, c)
	case asset.KindBool:
		b, _ := v.Bool()
		if b {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	case asset.KindFloat32:
		f, _ := v.Float32()
		out = appendBEUint32(out, math.Float32bits(f))
	case asset.KindBytes:
		b, _ := v.Bytes()
		out = appendBEUint32(out, uint32(len(b)))
		out = append(out, b...)
	case asset.KindString:
		s, _ := v.String()
		out = appendBEUint32(out, uint32(len(s)))
		out = append(out, s...)
	case asset.KindArray:
		elems, _ := v.Array()
		out = appendBEUint32(out, uint32(len(elems)))
		for _, e := range elems {
			out = appendValue(out, e)
		}
	case asset.KindRecord:
		rec, _ := v.Record()
		out = appendBEUint32(out, uint32(rec.Len()))
		rec.Each(func(f asset.Field) bool {
			out = appendBEUint32(out, uint32(len(f.Name)))
			out = append(out, f.Name...)
			out = appendValue(out, f.Value)
			return true
		})
	}
	return out
}

func decodeValue(raw []byte) (asset.Value, error) {
	v, rest, err := readValue(raw)
	if err != nil {
		return asset.Value{}, err
	}
	if len(rest) != 0 {
		return asset.Value{}, fmt.Errorf("cache: %d trailing bytes after decoded value", len(rest))
	}
	return v, nil
}

func readValue(b []byte) (asset.Value, []byte, error) {
	if len(b) < 1 {
		return asset.Value{}, nil, fmt.Errorf("cache: truncated value (no tag byte)")
	}
	kind := asset.Kind(b[0])
	b = b[1:]
	switch kind {
	case asset.KindInt:
		if len(b) < 4 {
			return asset.Value{}, nil, fmt.Errorf("cache: truncated int")
		}
		return asset.IntValue(int32(beUint32(b))), b[4:], nil
	case asset.KindInt64:
		if len(b) < 8 {
			return asset.Value{}, nil, fmt.Errorf("cache: truncated int64")
		}
		return asset.Int64Value(int64(binary.BigEndian.Uint64(b))), b[8:], nil
	case asset.KindChar:
		if len(b) < 1 {
			return asset.Value{}, nil, fmt.Errorf("cache: truncated char")
		}
		return asset.CharValue(b[0]), b[1:], nil
	case asset.KindBool:
		if len(b) < 1 {
			return asset.Value{}, nil, fmt.Errorf("cache: truncated bool")
		}
		return asset.BoolValue(b[0] != 0), b[1:], nil
	case asset.KindFloat32:
		if len(b) < 4 {
			return asset.Value{}, nil, fmt.Errorf("cache: truncated float32")
		}
		return asset.Float32Value(math.Float32frombits(beUint32(b))), b[4:], nil
	case asset.KindBytes:
		n, rest, err := readLen(b)
		if err != nil {
			return asset.Value{}, nil, err
		}
		if len(rest) < n {
			return asset.Value{}, nil, fmt.Errorf("cache: truncated bytes")
		}
		return asset.BytesValue(append([]byte(nil), rest[:n]...)), rest[n:], nil
	case asset.KindString:
		n, rest, err := readLen(b)
		if err != nil {
			return asset.Value{}, nil, err
		}
		if len(rest) < n {
			return asset.Value{}, nil, fmt.Errorf("cache: truncated string")
		}
		return asset.StringValue(string(rest[:n])), rest[n:], nil
	case asset.KindArray:
		n, rest, err := readLen(b)
		if err != nil {
			return asset.Value{}, nil, err
		}
		elems := make([]asset.Value, 0, n)
		for i := 0; i < n; i++ {
			var v asset.Value
			v, rest, err = readValue(rest)
			if err != nil {
				return asset.Value{}, nil, err
			}
			elems = append(elems, v)
		}
		return asset.ArrayValue(elems), rest, nil
	case asset.KindRecord:
		n, rest, err := readLen(b)
		if err != nil {
			return asset.Value{}, nil, err
		}
		fields := make([]asset.Field, 0, n)
		for i := 0; i < n; i++ {
			nameLen, r2, err := readLen(rest)
			if err != nil {
				return asset.Value{}, nil, err
			}
			if len(r2) < nameLen {
				return asset.Value{}, nil, fmt.Errorf("cache: truncated field name")
			}
			name := string(r2[:nameLen])
			var v asset.Value
			v, rest, err = readValue(r2[nameLen:])
			if err != nil {
				return asset.Value{}, nil, err
			}
			fields = append(fields, asset.Field{Name: name, Value: v})
		}
		return asset.RecordValue(asset.Record{Fields: fields}), rest, nil
	default:
		return asset.Value{}, nil, fmt.Errorf("cache: unknown value tag %d", kind)
	}
}

func readLen(b []byte) (int, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("cache: truncated length prefix")
	}
	return int(beUint32(b)), b[4:], nil
}
