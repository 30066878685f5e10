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
	"testing"

	"github.com/ksar-tools/ksarfmt/asset"
	"github.com/ksar-tools/ksarfmt/texture"
)

func textureRecord() asset.Value {
	return asset.RecordValue(asset.Record{Fields: []asset.Field{
		{Name: "m_Name", Value: asset.StringValue("main_tex")},
		{Name: "m_Width", Value: asset.IntValue(64)},
		{Name: "m_Height", Value: asset.IntValue(32)},
		{Name: "m_TextureFormat", Value: asset.IntValue(4)},
		{Name: "image data", Value: asset.BytesValue(make([]byte, 64*32*4))},
	}})
}

type recordingEncoder struct {
	format, width, height int32
	data                  []byte
	outPath               string
	called                bool
}

func (e *recordingEncoder) Encode(format, width, height int32, data []byte, outPath string) error {
	e.called = true
	e.format, e.width, e.height, e.data, e.outPath = format, width, height, data, outPath
	return nil
}

func TestEncodeTextureIfApplicableSkipsNonTextureTypes(t *testing.T) {
	enc := &recordingEncoder{}
	v := textureRecord()
	err := encodeTextureIfApplicable(fakePromise{typeName: "GameObject"}, v, enc, "/tmp/out")
	if err != nil {
		t.Fatal(err)
	}
	if enc.called {
		t.Fatal("encoder should not be called for a non-texture type")
	}
}

func TestEncodeTextureIfApplicableCallsEncoderForTextureType(t *testing.T) {
	enc := &recordingEncoder{}
	v := textureRecord()
	if err := encodeTextureIfApplicable(fakePromise{typeName: "Texture2D", pathID: "0xabc"}, v, enc, "/tmp/out"); err != nil {
		t.Fatal(err)
	}
	if !enc.called {
		t.Fatal("want encoder to be called for a Texture2D object")
	}
	if enc.width != 64 || enc.height != 32 || enc.format != 4 {
		t.Fatalf("got width=%d height=%d format=%d", enc.width, enc.height, enc.format)
	}
	if len(enc.data) != 64*32*4 {
		t.Fatalf("got %d data bytes", len(enc.data))
	}
	if enc.outPath != "/tmp/out/abc.png" {
		t.Fatalf("got outPath %q", enc.outPath)
	}
}

func TestEncodeTextureIfApplicableWithNoOpReportsUnsupported(t *testing.T) {
	v := textureRecord()
	err := encodeTextureIfApplicable(fakePromise{typeName: "Texture2D", pathID: "0xabc"}, v, texture.NoOp{}, "/tmp/out")
	if err == nil {
		t.Fatal("want an error from texture.NoOp")
	}
}

// fakePromise satisfies the subset of asset.Promise's behavior
// encodeTextureIfApplicable depends on, without needing a full parsed
// Asset behind it.
type fakePromise struct {
	typeName string
	pathID   string
}

func (f fakePromise) TypeName() string { return f.typeName }
func (f fakePromise) PathID() string   { return f.pathID }
