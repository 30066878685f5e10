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

package typetree

// FieldDef is one node of a type tree: a schema node describing how
// to decode one field (or, at the root, one whole object).
type FieldDef struct {
	Name     string
	TypeName string
	// Size is the leaf's byte size. nil means "no intrinsic size",
	// i.e. this node is a record or array rather than a leaf.
	Size     *uint32
	Flags    uint32
	IsArray  bool
	Children []*FieldDef
}

// IsLeaf reports whether d has no children, i.e. its Size and
// TypeName drive numeric/byte decoding directly.
func (d *FieldDef) IsLeaf() bool {
	return len(d.Children) == 0
}

// IsRecord reports whether d has children and is not an array.
func (d *FieldDef) IsRecord() bool {
	return len(d.Children) > 0 && !d.IsArray
}

// TypeTable maps a type code (class ID) to the root of its type tree.
// Distinct codes may legitimately resolve to structurally-identical
// (even pointer-identical, thanks to internal dedup) trees.
type TypeTable struct {
	// AreDefs is the opaque flag read alongside type_count; its
	// semantics are undefined by this format and it is preserved
	// only for round-tripping / debugging.
	AreDefs bool
	roots   map[uint32]*FieldDef
}

// Root returns the root FieldDef for typeCode, or (nil, false) if
// typeCode has no entry.
func (t *TypeTable) Root(typeCode uint32) (*FieldDef, bool) {
	d, ok := t.roots[typeCode]
	return d, ok
}

// Len returns the number of distinct type codes in the table.
func (t *TypeTable) Len() int {
	return len(t.roots)
}
