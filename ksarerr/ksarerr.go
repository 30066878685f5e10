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

// Package ksarerr defines the sentinel error values shared by every
// stage of the bundle reader, from the envelope pipeline down to the
// per-object decoder. Callers should match these with errors.Is.
// Errors from the underlying source, the compression libraries, the
// Decryptor, and the decode cache are returned without one of them.
package ksarerr

import "errors"

var (
	// ErrUnexpectedEOF means a read ran past the end of the stream.
	ErrUnexpectedEOF = errors.New("ksarfmt: unexpected eof")

	// ErrInvalidUTF8 means a string field failed to decode as UTF-8.
	ErrInvalidUTF8 = errors.New("ksarfmt: invalid utf8")

	// ErrUnknownEnvelope means no probe in the pipeline claimed the stream.
	ErrUnknownEnvelope = errors.New("ksarfmt: unknown envelope")

	// ErrUnsupportedCompression means a compression code was recognized
	// but isn't implemented.
	ErrUnsupportedCompression = errors.New("ksarfmt: unsupported compression")

	// ErrCipherUnavailable means an encrypted envelope was detected but
	// no Decryptor was registered with the Pipeline.
	ErrCipherUnavailable = errors.New("ksarfmt: cipher unavailable")

	// ErrMalformedSchema means a type-tree level jump, a zero-root or
	// multi-root type record, or an oversized count violated the
	// structural invariants of the schema section.
	ErrMalformedSchema = errors.New("ksarfmt: malformed schema")

	// ErrUnknownTypeCode means an object's type code has no entry in
	// the asset's TypeTable.
	ErrUnknownTypeCode = errors.New("ksarfmt: unknown type code")

	// ErrSanityBound means a count read from untrusted input exceeded
	// a hard defensive limit before anything was allocated for it.
	ErrSanityBound = errors.New("ksarfmt: sanity bound exceeded")
)
