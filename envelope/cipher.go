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

package envelope

import (
	"bytes"
	"fmt"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/ksarerr"
)

var cipherMagic = []byte{0x7E, 0x08, 0x9D, 0x2F, 0xC0}

// cipherProbe detects an encrypted envelope and, if a Decryptor is
// registered, decrypts the remainder in place and re-presents it as
// a fresh in-memory stream at offset 0.
type cipherProbe struct {
	decrypt Decryptor
}

func (p cipherProbe) try(name string, src Source) (probeResult, error) {
	match, err := hasMagic(src, cipherMagic)
	if err != nil {
		return probeResult{}, err
	}
	if !match {
		return declined()
	}
	if p.decrypt == nil {
		return probeResult{}, fmt.Errorf("%w: %s", ksarerr.ErrCipherUnavailable, name)
	}
	r := breader.New(src)
	if _, err := r.ReadBytes(len(cipherMagic)); err != nil {
		return probeResult{}, err
	}
	rest, err := readAllFrom(src)
	if err != nil {
		return probeResult{}, err
	}
	if err := p.decrypt(rest); err != nil {
		return probeResult{}, fmt.Errorf("decrypting %s: %w", name, err)
	}
	return continued(name, bytes.NewReader(rest))
}
