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

// BaseStrings is the fixed, well-known dictionary of type/field names
// addressed by offset when the high bit of a name or type offset is
// set in an attribute record. Its contents are part of the wire
// format and must be reproduced exactly.
var BaseStrings = map[uint32]string{
	0:    "AABB",
	5:    "AnimationClip",
	19:   "AnimationCurve",
	49:   "Array",
	55:   "Base",
	60:   "BitField",
	76:   "bool",
	81:   "char",
	86:   "ColorRGBA",
	106:  "data",
	138:  "FastPropertyName",
	155:  "first",
	161:  "float",
	167:  "Font",
	172:  "GameObject",
	183:  "Generic Mono",
	208:  "GUID",
	222:  "int",
	241:  "map",
	245:  "Matrix4x4f",
	262:  "NavMeshSettings",
	263:  "MonoBehaviour",
	277:  "MonoScript",
	299:  "m_Curve",
	349:  "m_Enabled",
	374:  "m_GameObject",
	427:  "m_Name",
	490:  "m_Script",
	519:  "m_Type",
	526:  "m_Version",
	543:  "pair",
	548:  "PPtr<Component>",
	564:  "PPtr<GameObject>",
	581:  "PPtr<Material>",
	616:  "PPtr<MonoScript>",
	633:  "PPtr<Object>",
	688:  "PPtr<Texture>",
	702:  "PPtr<Texture2D>",
	718:  "PPtr<Transform>",
	741:  "Quaternionf",
	753:  "Rectf",
	778:  "second",
	795:  "size",
	800:  "SInt16",
	814:  "int64",
	840:  "string",
	847:  "TextAsset",
	874:  "Texture2D",
	884:  "Transform",
	894:  "TypelessData",
	907:  "UInt16",
	928:  "UInt8",
	934:  "unsigned int",
	981:  "vector",
	988:  "Vector2f",
	997:  "Vector3f",
	1006: "Vector4f",
}

// unknownTypeName is returned for any base-string offset not present
// in BaseStrings, matching the reference decoder's defaultdict
// fallback rather than failing the parse outright: unrecognized base
// strings are common in bundles built with a newer type database than
// this implementation knows about, and the field is still decodable
// structurally even if its name can't be resolved.
const unknownTypeName = "TypeUnknown"

func lookupBaseString(off uint32) string {
	if name, ok := BaseStrings[off]; ok {
		return name
	}
	return unknownTypeName
}
