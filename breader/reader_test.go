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

package breader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ksar-tools/ksarfmt/ksarerr"
)

func newTestReader(b []byte) *Reader {
	return New(bytes.NewReader(b))
}

func TestFixedWidthReads(t *testing.T) {
	r := newTestReader([]byte{
		0x01,       // u8
		0x00, 0x02, // u16 be = 2
		0x02, 0x00, // u16 le = 2
		0x00, 0x00, 0x00, 0x03, // u32 be = 3
		0x03, 0x00, 0x00, 0x00, // u32 le = 3
	})
	if v, err := r.ReadU8(); err != nil || v != 1 {
		t.Fatalf("ReadU8: got %d, %v", v, err)
	}
	if v, err := r.ReadU16BE(); err != nil || v != 2 {
		t.Fatalf("ReadU16BE: got %d, %v", v, err)
	}
	if v, err := r.ReadU16LE(); err != nil || v != 2 {
		t.Fatalf("ReadU16LE: got %d, %v", v, err)
	}
	if v, err := r.ReadU32BE(); err != nil || v != 3 {
		t.Fatalf("ReadU32BE: got %d, %v", v, err)
	}
	if v, err := r.ReadU32LE(); err != nil || v != 3 {
		t.Fatalf("ReadU32LE: got %d, %v", v, err)
	}
}

func TestReadBytesUnexpectedEOF(t *testing.T) {
	r := newTestReader([]byte{1, 2})
	_, err := r.ReadBytes(8)
	if !errors.Is(err, ksarerr.ErrUnexpectedEOF) {
		t.Fatalf("want ErrUnexpectedEOF, got %v", err)
	}
}

func TestAlignRoundsUp(t *testing.T) {
	r := newTestReader(make([]byte, 32))
	if err := r.Skip(3); err != nil {
		t.Fatal(err)
	}
	if err := r.Align(4); err != nil {
		t.Fatal(err)
	}
	pos, _ := r.Tell()
	if pos != 4 {
		t.Fatalf("want aligned offset 4, got %d", pos)
	}
	// already aligned: must not move
	if err := r.Align(4); err != nil {
		t.Fatal(err)
	}
	pos, _ = r.Tell()
	if pos != 4 {
		t.Fatalf("align on an aligned offset moved the cursor to %d", pos)
	}
}

func TestReadCString(t *testing.T) {
	raw := append([]byte("hello world, this spans more than one chunk"), 0, 'X')
	r := newTestReader(raw)
	s, err := r.ReadCString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello world, this spans more than one chunk" {
		t.Fatalf("got %q", s)
	}
	// cursor should sit one past the NUL
	b, err := r.ReadU8()
	if err != nil || b != 'X' {
		t.Fatalf("cursor not restored past NUL: %d, %v", b, err)
	}
}

func TestReadCStringNoNulFails(t *testing.T) {
	r := newTestReader([]byte("no terminator here"))
	_, err := r.ReadCString()
	if !errors.Is(err, ksarerr.ErrUnexpectedEOF) {
		t.Fatalf("want ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadCStringInvalidUTF8(t *testing.T) {
	r := newTestReader([]byte{0xff, 0xfe, 0x00})
	_, err := r.ReadCString()
	if !errors.Is(err, ksarerr.ErrInvalidUTF8) {
		t.Fatalf("want ErrInvalidUTF8, got %v", err)
	}
}

func TestReadLPString(t *testing.T) {
	var raw []byte
	raw = append(raw, 5, 0, 0, 0) // u32 le length prefix
	raw = append(raw, []byte("abcde")...)
	r := newTestReader(raw)
	s, err := r.ReadLPString(4)
	if err != nil {
		t.Fatal(err)
	}
	if s != "abcde" {
		t.Fatalf("got %q", s)
	}
}

func TestPeekAtDoesNotMoveCursor(t *testing.T) {
	r := newTestReader([]byte{0xAA, 0xBB, 0xCC, 0xDD})
	if err := r.Skip(1); err != nil {
		t.Fatal(err)
	}
	got, err := PeekAt(r, 2, func(r *Reader) (uint8, error) {
		return r.ReadU8()
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xCC {
		t.Fatalf("want 0xCC, got %#x", got)
	}
	pos, _ := r.Tell()
	if pos != 1 {
		t.Fatalf("PeekAt moved the cursor: now at %d", pos)
	}
}

func TestPeekAtRestoresCursorOnError(t *testing.T) {
	r := newTestReader([]byte{0x01, 0x02})
	if err := r.Skip(1); err != nil {
		t.Fatal(err)
	}
	_, err := PeekAt(r, 0, func(r *Reader) ([]byte, error) {
		return r.ReadBytes(100)
	})
	if !errors.Is(err, ksarerr.ErrUnexpectedEOF) {
		t.Fatalf("want ErrUnexpectedEOF, got %v", err)
	}
	pos, _ := r.Tell()
	if pos != 1 {
		t.Fatalf("cursor not restored after error: now at %d", pos)
	}
}
