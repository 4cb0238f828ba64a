// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package float16 provides bit-level access to half-precision
// floating-point values: 1 sign bit, 5 exponent bits (bias 15),
// 10 mantissa bits.
package float16

import (
	f16 "github.com/x448/float16"
)

// F16 is a 16-bit half-precision floating-point value,
// represented as raw bits (uint16).
type F16 uint16

const (
	// ExponentBias is the bias of the 5-bit exponent field.
	ExponentBias = 15
	// ExponentSpecial is the exponent field value reserved for
	// infinities and NaNs.
	ExponentSpecial = 0x1F
	// MaxNormalExponent is the largest exponent field value of a finite number.
	MaxNormalExponent = 0x1E

	signShift     = 15
	exponentShift = 10
	exponentMask  = 0x1F
	mantissaMask  = 0x3FF
	quietNaNBit   = 1 << 9
)

const (
	// PositiveZero is +0.
	PositiveZero F16 = 0x0000
	// NegativeZero is -0.
	NegativeZero F16 = 0x8000
	// PositiveInf is +Inf.
	PositiveInf F16 = 0x7C00
	// NegativeInf is -Inf.
	NegativeInf F16 = 0xFC00
	// MaxFinite is the largest finite magnitude, 65504.
	MaxFinite F16 = 0x7BFF
	// CanonicalNaN is the positive quiet NaN every NaN collapses to.
	CanonicalNaN F16 = 0x7E00
	// One is 1.0.
	One F16 = 0x3C00
)

// FromFields composes an F16 from its sign (0 or 1), exponent field and
// mantissa field. Values wider than their field are truncated to the
// field's low-order bits.
func FromFields(sign, exponent, mantissa uint16) F16 {
	return F16((sign&1)<<signShift | (exponent&exponentMask)<<exponentShift | mantissa&mantissaMask)
}

// Sign returns the sign bit (0 or 1).
func (h F16) Sign() uint16 {
	return uint16(h) >> signShift
}

// Exponent returns the biased 5-bit exponent field.
func (h F16) Exponent() uint16 {
	return uint16(h) >> exponentShift & exponentMask
}

// Mantissa returns the 10-bit mantissa field.
func (h F16) Mantissa() uint16 {
	return uint16(h) & mantissaMask
}

// Class reports the category of the value.
func (h F16) Class() Class {
	e, m := h.Exponent(), h.Mantissa()
	switch {
	case e == 0 && m == 0:
		return Zero
	case e == 0:
		return Subnormal
	case e == ExponentSpecial && m == 0:
		return Inf
	case e == ExponentSpecial:
		return NaN
	default:
		return Normal
	}
}

// IsNormal reports whether the exponent field is neither 0 nor 31.
func (h F16) IsNormal() bool {
	e := h.Exponent()
	return e != 0 && e != ExponentSpecial
}

// Neg returns the value with the sign bit flipped.
func (h F16) Neg() F16 {
	return h ^ 1<<signShift
}

// Abs returns the value with the sign bit cleared.
func (h F16) Abs() F16 {
	return h &^ (1 << signShift)
}

// SignedZero returns a zero carrying the sign of h.
func (h F16) SignedZero() F16 {
	return F16(h.Sign() << signShift)
}

// SignedMaxFinite returns MaxFinite carrying the sign of h.
func (h F16) SignedMaxFinite() F16 {
	return h.SignedZero() | MaxFinite
}

// Canonical maps any NaN to the quiet NaN of the same sign, and returns
// every other value unchanged.
func (h F16) Canonical() F16 {
	if h.Class() != NaN {
		return h
	}
	return FromFields(h.Sign(), ExponentSpecial, quietNaNBit)
}

// Float32 converts the value to float32. The conversion is exact.
func (h F16) Float32() float32 {
	return f16.Frombits(uint16(h)).Float32()
}

// FromFloat32 converts a float32 to the nearest F16, rounding to nearest
// even. Values too large become infinities, NaN payloads are kept when
// they fit.
func FromFloat32(v float32) F16 {
	return F16(f16.Fromfloat32(v).Bits())
}

// FromFloat32Slice converts each float32 of src with FromFloat32.
func FromFloat32Slice(src []float32) []F16 {
	out := make([]F16, len(src))
	for i, v := range src {
		out[i] = FromFloat32(v)
	}
	return out
}
