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
	"fmt"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/ksarerr"
)

// Promise is a small owning record - not a stored closure - that
// defers decoding one object-table entry until Fulfill or
// FulfillIndependent is called. Promises are independent: fulfilling
// one never consumes or invalidates another, and repeated fulfillment
// of the same Promise returns equal values.
type Promise struct {
	asset *Asset
	entry ObjectEntry
}

// Entry returns the object-table row this Promise wraps.
func (p Promise) Entry() ObjectEntry { return p.entry }

// TypeName returns the type name (TypeName, not the field Name) of the
// object's root schema node.
func (p Promise) TypeName() string {
	root, ok := p.asset.Types.Root(p.entry.TypeCode)
	if !ok {
		return ""
	}
	return root.TypeName
}

// PathID renders the object's path ID as a "0x..." hex string.
func (p Promise) PathID() string {
	return fmt.Sprintf("0x%x", p.entry.PathID)
}

// Fulfill decodes the object by seeking directly on the Asset's
// shared backing source. It is safe to call from one goroutine at a
// time; concurrent Fulfill calls across Promises sharing an Asset
// race on that shared source. Use FulfillIndependent for concurrent
// fulfillment.
func (p Promise) Fulfill() (Value, error) {
	root, ok := p.asset.Types.Root(p.entry.TypeCode)
	if !ok {
		return Value{}, fmt.Errorf("%w: %#x", ksarerr.ErrUnknownTypeCode, p.entry.TypeCode)
	}
	abs := p.asset.baseOffset() + int64(p.entry.Offset)
	return breader.PeekAt(breader.New(p.asset.src), abs, func(r *breader.Reader) (Value, error) {
		return DecodeObject(r, root)
	})
}

// FulfillIndependent snapshots the object's byte range into memory
// under the Asset's lock, then decodes it against a private reader
// with no further access to the shared source - safe to call
// concurrently with any other Promise's FulfillIndependent. Fulfill
// does not take the Asset's lock, so a concurrent Fulfill on the same
// Asset still races with the snapshot read.
func (p Promise) FulfillIndependent() (Value, error) {
	root, ok := p.asset.Types.Root(p.entry.TypeCode)
	if !ok {
		return Value{}, fmt.Errorf("%w: %#x", ksarerr.ErrUnknownTypeCode, p.entry.TypeCode)
	}
	raw, err := p.asset.snapshot(p.entry.Offset, p.entry.Size)
	if err != nil {
		return Value{}, err
	}
	r := breader.New(bytes.NewReader(raw))
	return DecodeObject(r, root)
}
