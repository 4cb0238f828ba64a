// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"fmt"
	"strings"

	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
)

// LaneMismatch describes one element whose encoding differs from
// a reference.
type LaneMismatch struct {
	Lane  int
	Input float16.F16
	Want  float8.E4M3
	Got   float8.E4M3
}

// Report is the result of comparing the encoding of a block against
// reference values, such as the output of a hardware simulation.
type Report struct {
	WantScale Scale
	GotScale  Scale
	Lanes     []LaneMismatch
	// LengthMismatch is set when the reference has a different number of
	// elements than the input block; only the common lanes are compared.
	LengthMismatch bool
}

// OK reports whether the encoding matched the reference.
func (r Report) OK() bool {
	return r.WantScale == r.GotScale && len(r.Lanes) == 0 && !r.LengthMismatch
}

func (r Report) String() string {
	if r.OK() {
		return "ok"
	}
	var sb strings.Builder
	if r.WantScale != r.GotScale {
		fmt.Fprintf(&sb, "scale: want %s, got %s; ", r.WantScale, r.GotScale)
	}
	if r.LengthMismatch {
		sb.WriteString("length mismatch; ")
	}
	for _, l := range r.Lanes {
		fmt.Fprintf(&sb, "lane %d (input 0x%04x): want %s, got %s; ", l.Lane, uint16(l.Input), l.Want, l.Got)
	}
	return strings.TrimSuffix(sb.String(), "; ")
}

// VerifyBlock encodes block and compares the result with want.
// Elements are compared using the scale selected for block, regardless
// of want.Scale.
func VerifyBlock(block []float16.F16, want Block) Report {
	got := EncodeBlock(block)
	r := Report{
		WantScale:      want.Scale,
		GotScale:       got.Scale,
		LengthMismatch: len(want.Elements) != len(block),
	}
	for i := range min(len(block), len(want.Elements)) {
		if got.Elements[i] != want.Elements[i] {
			r.Lanes = append(r.Lanes, LaneMismatch{
				Lane:  i,
				Input: block[i],
				Want:  want.Elements[i],
				Got:   got.Elements[i],
			})
		}
	}
	return r
}
