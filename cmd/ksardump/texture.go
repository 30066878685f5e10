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
	"fmt"
	"strings"

	"github.com/ksar-tools/ksarfmt/asset"
	"github.com/ksar-tools/ksarfmt/texture"
)

// promiseInfo is the subset of asset.Promise this file depends on;
// asset.Promise satisfies it structurally, and tests can supply a
// lightweight stand-in without constructing a full parsed Asset.
type promiseInfo interface {
	TypeName() string
	PathID() string
}

// encodeTextureIfApplicable wires texture.Encoder into the dump path:
// any fulfilled object whose type name mentions "Texture" is handed to
// enc, pulling width/height/format/pixel fields out of its decoded
// Record by the field names real engines use. There is no production
// Encoder in this module (see texture.NoOp), so this always reports
// the format as unsupported. dumpFile calls it for each texture object
// on a -fulfill run when -texture-dir is set.
func encodeTextureIfApplicable(p promiseInfo, v asset.Value, enc texture.Encoder, outDir string) error {
	if !strings.Contains(p.TypeName(), "Texture") {
		return nil
	}
	rec, ok := v.Record()
	if !ok {
		return fmt.Errorf("texture: %s decoded to a non-record value", p.TypeName())
	}

	width, ok := fieldInt32(rec, "m_Width", "width")
	if !ok {
		return fmt.Errorf("texture: %s: missing width field", p.TypeName())
	}
	height, ok := fieldInt32(rec, "m_Height", "height")
	if !ok {
		return fmt.Errorf("texture: %s: missing height field", p.TypeName())
	}
	format, ok := fieldInt32(rec, "m_TextureFormat", "format")
	if !ok {
		return fmt.Errorf("texture: %s: missing format field", p.TypeName())
	}
	data, ok := fieldBytes(rec, "image data", "m_StreamData", "data")
	if !ok {
		return fmt.Errorf("texture: %s: missing pixel data field", p.TypeName())
	}

	outPath := outDir + "/" + strings.ReplaceAll(p.PathID(), "0x", "") + ".png"
	return enc.Encode(format, width, height, data, outPath)
}

func fieldInt32(rec asset.Record, names ...string) (int32, bool) {
	for _, name := range names {
		f, ok := rec.FieldByName(name)
		if !ok {
			continue
		}
		if n, ok := f.Value.AsInt64(); ok {
			return int32(n), true
		}
	}
	return 0, false
}

func fieldBytes(rec asset.Record, names ...string) ([]byte, bool) {
	for _, name := range names {
		f, ok := rec.FieldByName(name)
		if !ok {
			continue
		}
		if b, ok := f.Value.Bytes(); ok {
			return b, true
		}
	}
	return nil, false
}
