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

// Package envelope unwraps the outer container(s) a bundle may be
// stored inside - an optional encryption layer, an optional
// compressed multi-file container, or a thin raw wrapper - and
// exposes the resulting inner streams for the type-tree and object
// table stages to parse.
package envelope

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ksar-tools/ksarfmt/breader"
	"github.com/ksar-tools/ksarfmt/ksarerr"
)

// Source is the random-access byte stream a probe reads from.
type Source = breader.Source

// InnerStream is one stream a probe has unwrapped: a named, seekable
// byte source and the absolute offset within it where its payload
// actually starts.
type InnerStream struct {
	Name   string
	Src    Source
	Origin int64
}

// Decryptor decrypts buf in place. Implementations are external
// collaborators: this package never implements a cipher itself.
type Decryptor func(buf []byte) error

type outcome int

const (
	outcomeDecline outcome = iota
	outcomeContinue
	outcomeTerminal
)

type probeResult struct {
	outcome outcome
	name    string
	src     Source
	streams []InnerStream
}

func declined() (probeResult, error) { return probeResult{outcome: outcomeDecline}, nil }

func continued(name string, src Source) (probeResult, error) {
	return probeResult{outcome: outcomeContinue, name: name, src: src}, nil
}

func terminal(streams []InnerStream) (probeResult, error) {
	return probeResult{outcome: outcomeTerminal, streams: streams}, nil
}

// probe inspects (name, src) and either declines, rewrites it and
// asks to be re-evaluated from the top of the pipeline, or produces
// the final InnerStreams.
type probe interface {
	try(name string, src Source) (probeResult, error)
}

// Pipeline is an ordered list of envelope probes.
type Pipeline struct {
	probes []probe
}

// NewPipeline returns the standard three-probe pipeline: an encrypted
// envelope, a compressed container envelope, and a raw envelope, in
// that order. decrypt may be nil; the cipher probe then fails with
// ErrCipherUnavailable if it ever matches.
func NewPipeline(decrypt Decryptor) *Pipeline {
	return &Pipeline{probes: []probe{
		cipherProbe{decrypt: decrypt},
		containerProbe{},
		rawProbe{},
	}}
}

// Run unwraps src, re-presenting it to the probe list until one of
// them terminates the pipeline, and returns the resulting streams.
func (p *Pipeline) Run(name string, src Source) ([]InnerStream, error) {
outer:
	for {
		for _, pr := range p.probes {
			res, err := pr.try(name, src)
			if err != nil {
				return nil, err
			}
			switch res.outcome {
			case outcomeDecline:
				continue
			case outcomeContinue:
				name, src = res.name, res.src
				continue outer
			case outcomeTerminal:
				return res.streams, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ksarerr.ErrUnknownEnvelope, name)
	}
}

// hasMagic reports whether src begins (at its current cursor) with
// magic, leaving the cursor exactly where it found it either way.
func hasMagic(src Source, magic []byte) (bool, error) {
	r := breader.New(src)
	start, err := r.Tell()
	if err != nil {
		return false, err
	}
	defer r.Seek(start)
	got, err := r.ReadBytes(len(magic))
	if err != nil {
		return false, nil
	}
	return bytes.Equal(got, magic), nil
}

// readAllFrom reads every remaining byte of src from its current
// cursor to EOF.
func readAllFrom(src Source) ([]byte, error) {
	return io.ReadAll(src)
}
