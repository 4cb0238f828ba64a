// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"fmt"
	"math"

	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
)

// Scale is an E8M0 shared scale: an unsigned 8-bit biased exponent
// representing the power of two 2^(s-127). It has no sign and no mantissa.
type Scale uint8

const (
	// ScaleBias is the bias of the E8M0 exponent.
	ScaleBias = 127
	// NeutralScale is the scale representing a factor of 1.
	NeutralScale Scale = ScaleBias
)

// Exponent returns the unbiased exponent s-127.
func (s Scale) Exponent() int {
	return int(s) - ScaleBias
}

// Float64 returns the factor 2^(s-127) represented by the scale.
func (s Scale) Float64() float64 {
	return math.Ldexp(1, s.Exponent())
}

// String returns the scale in hexadecimal form together with its
// exponent, e.g. "0x78 (2^-7)".
func (s Scale) String() string {
	return fmt.Sprintf("0x%02x (2^%d)", uint8(s), s.Exponent())
}

// Apply multiplies h by the scale factor.
//
// Zeros (including subnormals), infinities and NaNs are returned
// unchanged. For normal values the exponent field is shifted by the scale
// exponent: a result below the normal range becomes a signed zero, and a
// result beyond it saturates to the largest finite magnitude with the
// sign of h.
func (s Scale) Apply(h float16.F16) float16.F16 {
	v, _ := shiftExponent(h, s.Exponent())
	return v
}

// Remove divides h by the scale factor, with the same underflow and
// overflow policy as Apply. It is the inverse of Apply for values whose
// exponent stays in range in both directions.
func (s Scale) Remove(h float16.F16) float16.F16 {
	v, _ := shiftExponent(h, -s.Exponent())
	return v
}

// shiftExponent adds delta to the exponent field of a normal value,
// reporting whether the result was flushed to zero or saturated.
func shiftExponent(h float16.F16, delta int) (float16.F16, float8.Outcome) {
	if !h.IsNormal() {
		return h, float8.Exact
	}
	e := int(h.Exponent()) + delta
	switch {
	case e <= 0:
		return h.SignedZero(), float8.Flushed
	case e >= float16.ExponentSpecial:
		return h.SignedMaxFinite(), float8.Saturated
	}
	return float16.FromFields(h.Sign(), uint16(e), h.Mantissa()), float8.Exact
}
