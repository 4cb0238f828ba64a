// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package float8 implements the E4M3 8-bit floating-point format used as
// the element payload of MXFP8 blocks: 1 sign bit, 4 exponent bits
// (bias 7), 3 mantissa bits.
//
// Special values follow the same convention as float16, scaled to the
// narrower fields: an exponent field of 0 is a signed zero (subnormals are
// not modeled), and an exponent field of 15 is an infinity (mantissa 0) or
// a NaN (mantissa != 0).
package float8

import (
	"fmt"

	"github.com/nlpodyssey/mxfp8/float16"
)

// E4M3 is an 8-bit floating-point value, represented as raw bits (uint8).
type E4M3 uint8

const (
	// ExponentBias is the bias of the 4-bit exponent field.
	ExponentBias = 7
	// ExponentSpecial is the exponent field value reserved for
	// infinities and NaNs.
	ExponentSpecial = 0xF
	// MaxNormalExponent is the largest exponent field value of a finite number.
	MaxNormalExponent = 0xE
	// MaxUnbiasedExponent is the unbiased exponent of MaxFinite.
	MaxUnbiasedExponent = MaxNormalExponent - ExponentBias

	signShift     = 7
	exponentShift = 3
	exponentMask  = 0xF
	mantissaMask  = 0x7

	// mantissaDrop is the number of low-order float16 mantissa bits
	// that do not fit in the 3-bit mantissa.
	mantissaDrop = 10 - 3
	// rebias converts a float8 exponent field into a float16 one.
	rebias = float16.ExponentBias - ExponentBias
)

const (
	// PositiveZero is +0.
	PositiveZero E4M3 = 0x00
	// NegativeZero is -0.
	NegativeZero E4M3 = 0x80
	// One is 1.0.
	One E4M3 = 0x38
	// MaxFinite is the largest finite magnitude, 240.
	MaxFinite E4M3 = 0x77
	// PositiveInf is +Inf.
	PositiveInf E4M3 = 0x78
	// NegativeInf is -Inf.
	NegativeInf E4M3 = 0xF8
	// NaN is the positive NaN produced when quantizing any NaN.
	NaN E4M3 = 0x79
)

// FromFields composes an E4M3 from its sign (0 or 1), exponent field and
// mantissa field. Values wider than their field are truncated to the
// field's low-order bits.
func FromFields(sign, exponent, mantissa uint8) E4M3 {
	return E4M3((sign&1)<<signShift | (exponent&exponentMask)<<exponentShift | mantissa&mantissaMask)
}

// Sign returns the sign bit (0 or 1).
func (x E4M3) Sign() uint8 {
	return uint8(x) >> signShift
}

// Exponent returns the biased 4-bit exponent field.
func (x E4M3) Exponent() uint8 {
	return uint8(x) >> exponentShift & exponentMask
}

// Mantissa returns the 3-bit mantissa field.
func (x E4M3) Mantissa() uint8 {
	return uint8(x) & mantissaMask
}

// Class reports the category of the value. Subnormal is reported for
// a zero exponent with a non-zero mantissa, even though conversions
// treat such values as zero.
func (x E4M3) Class() float16.Class {
	e, m := x.Exponent(), x.Mantissa()
	switch {
	case e == 0 && m == 0:
		return float16.Zero
	case e == 0:
		return float16.Subnormal
	case e == ExponentSpecial && m == 0:
		return float16.Inf
	case e == ExponentSpecial:
		return float16.NaN
	default:
		return float16.Normal
	}
}

// String returns the value in hexadecimal form, e.g. "0x38".
func (x E4M3) String() string {
	return fmt.Sprintf("0x%02x", uint8(x))
}

// F16 converts the value to the float16 pattern representing the same
// number. The conversion is exact for normal values; zeros and
// subnormals become a signed zero, and every NaN becomes the quiet NaN
// of the same sign.
func (x E4M3) F16() float16.F16 {
	s := uint16(x.Sign())
	e := x.Exponent()
	m := uint16(x.Mantissa())

	switch e {
	case 0:
		return float16.FromFields(s, 0, 0)
	case ExponentSpecial:
		if m == 0 {
			return float16.FromFields(s, float16.ExponentSpecial, 0)
		}
		return float16.FromFields(s, 0, 0) | float16.CanonicalNaN
	}
	return float16.FromFields(s, uint16(e)+rebias, m<<mantissaDrop)
}

// Float32 converts the value to float32, with the same semantics as F16.
func (x E4M3) Float32() float32 {
	return x.F16().Float32()
}

// FromF16 converts a float16 value to the nearest E4M3 value.
// See Quantize for details.
func FromF16(h float16.F16) E4M3 {
	x, _ := Quantize(h)
	return x
}

// Quantize converts a float16 value to the nearest E4M3 value, reporting
// how the conversion went.
//
// Zeros and subnormals become a signed zero, infinities stay infinities,
// and every NaN becomes NaN with the same sign. Normal values are
// rebiased; those below the smallest normal E4M3 exponent flush to zero,
// those above MaxFinite saturate to it. The mantissa is rounded to nearest,
// ties to even; a rounding carry increments the exponent, saturating
// instead of producing an infinity.
func Quantize(h float16.F16) (E4M3, Outcome) {
	s := uint8(h.Sign())
	e := int(h.Exponent())
	m := h.Mantissa()

	switch e {
	case 0:
		if m != 0 {
			return FromFields(s, 0, 0), Flushed
		}
		return FromFields(s, 0, 0), Exact
	case float16.ExponentSpecial:
		if m == 0 {
			return FromFields(s, ExponentSpecial, 0), Special
		}
		return FromFields(s, ExponentSpecial, 1), Special
	}

	e8 := e - rebias
	if e8 <= 0 {
		return FromFields(s, 0, 0), Flushed
	}
	if e8 >= ExponentSpecial {
		return FromFields(s, MaxNormalExponent, mantissaMask), Saturated
	}

	trunc := uint8(m >> mantissaDrop)
	round := m >> (mantissaDrop - 1) & 1
	sticky := m&(1<<(mantissaDrop-1)-1) != 0

	if round == 1 && (sticky || trunc&1 == 1) {
		trunc++
		if trunc > mantissaMask {
			trunc = 0
			e8++
			if e8 >= ExponentSpecial {
				return FromFields(s, MaxNormalExponent, mantissaMask), Saturated
			}
		}
	}

	outcome := Exact
	if m&(1<<mantissaDrop-1) != 0 {
		outcome = Rounded
	}
	return FromFields(s, uint8(e8), trunc), outcome
}
