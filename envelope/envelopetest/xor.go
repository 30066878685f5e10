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

// Package envelopetest provides a reference envelope.Decryptor for
// tests. It is not wired into any production pipeline: real bundles
// use a cipher this module never implements.
package envelopetest

// DefaultKey is the fixed repeating XOR key used by XORDecryptor.
var DefaultKey = []byte{0x5A, 0x3C, 0x91, 0xE7}

// XORDecryptor decrypts buf in place by XOR-ing it against a repeating
// key. It is symmetric: the same function encrypts fixtures for tests.
func XORDecryptor(key []byte) func([]byte) error {
	return func(buf []byte) error {
		if len(key) == 0 {
			return nil
		}
		for i := range buf {
			buf[i] ^= key[i%len(key)]
		}
		return nil
	}
}
