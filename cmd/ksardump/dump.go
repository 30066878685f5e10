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

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/ksar-tools/ksarfmt/asset"
)

// writeValue writes a JSON-ish rendering of v to w. It is hand-rolled
// rather than routed through encoding/json: asset.Value is a tagged
// union with unexported fields, the same shape that keeps the type
// tree decoder and the cache codec off reflection-based marshaling.
func writeValue(w io.Writer, v asset.Value) {
	switch v.Kind() {
	case asset.KindInt:
		n, _ := v.Int()
		fmt.Fprintf(w, "%d", n)
	case asset.KindInt64:
		n, _ := v.Int64()
		fmt.Fprintf(w, "%d", n)
	case asset.KindChar:
		c, _ := v.Char()
		fmt.Fprintf(w, "%d", c)
	case asset.KindBool:
		b, _ := v.Bool()
		fmt.Fprintf(w, "%t", b)
	case asset.KindFloat32:
		f, _ := v.Float32()
		fmt.Fprintf(w, "%g", f)
	case asset.KindBytes:
		b, _ := v.Bytes()
		fmt.Fprintf(w, "%q", "0x"+hex.EncodeToString(b))
	case asset.KindString:
		s, _ := v.String()
		fmt.Fprint(w, strconv.Quote(s))
	case asset.KindArray:
		elems, _ := v.Array()
		fmt.Fprint(w, "[")
		for i, e := range elems {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			writeValue(w, e)
		}
		fmt.Fprint(w, "]")
	case asset.KindRecord:
		rec, _ := v.Record()
		fmt.Fprint(w, "{")
		first := true
		rec.Each(func(f asset.Field) bool {
			if !first {
				fmt.Fprint(w, ",")
			}
			first = false
			fmt.Fprintf(w, "%s:", strconv.Quote(f.Name))
			writeValue(w, f.Value)
			return true
		})
		fmt.Fprint(w, "}")
	default:
		fmt.Fprint(w, "null")
	}
}
