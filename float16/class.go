// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package float16

import "fmt"

// Class is the category of a floating-point bit pattern, as determined by
// its exponent and mantissa fields.
//
// The same classification applies to the narrow 8-bit formats built on
// top of this package.
type Class uint8

const (
	// Zero has an all-zero exponent and mantissa.
	Zero Class = iota
	// Subnormal has a zero exponent and a non-zero mantissa.
	Subnormal
	// Normal has an exponent that is neither all-zeros nor all-ones.
	Normal
	// Inf has an all-ones exponent and a zero mantissa.
	Inf
	// NaN has an all-ones exponent and a non-zero mantissa.
	NaN
)

var classToString = [...]string{
	Zero:      "zero",
	Subnormal: "subnormal",
	Normal:    "normal",
	Inf:       "inf",
	NaN:       "nan",
}

// String returns a string representation of a Class.
func (c Class) String() string {
	if int(c) >= len(classToString) {
		return fmt.Sprintf("Class(%d)", c)
	}
	return classToString[c]
}

// IsSpecial reports whether the class is Inf or NaN.
func (c Class) IsSpecial() bool {
	return c == Inf || c == NaN
}
