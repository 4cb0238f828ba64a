// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
)

// DecodeElement converts an E4M3 element of a block with shared scale s
// to float16.
//
// Zeros, infinities and NaNs decode to the same value whatever the scale;
// every NaN decodes to the quiet NaN of the same sign.
func DecodeElement(x float8.E4M3, s Scale) float16.F16 {
	return s.Apply(x.F16())
}

// EncodeElement converts a float16 element of a block with shared scale s
// to E4M3. The scale is removed from normal values before quantization;
// zeros, subnormals, infinities and NaNs are quantized directly.
func EncodeElement(h float16.F16, s Scale) float8.E4M3 {
	x, _ := encodeElement(h, s)
	return x
}

func encodeElement(h float16.F16, s Scale) (float8.E4M3, float8.Outcome) {
	unscaled, outcome := shiftExponent(h, -s.Exponent())
	x, q := float8.Quantize(unscaled)
	if outcome != float8.Exact {
		return x, outcome
	}
	return x, q
}
