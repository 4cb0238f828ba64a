// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dtype

import (
	"fmt"
)

// DType represents the data type of an entry of an MX tensor file.
type DType uint8

const (
	// F8_E4M3 represents the 8-bit E4M3 floating point elements of an
	// MX-quantized tensor.
	F8_E4M3 DType = iota + 1
	// E8M0 represents the 8-bit unsigned power-of-two shared scales of
	// an MX-quantized tensor, one per block.
	E8M0
)

var dTypeToString = [...]string{
	F8_E4M3: "F8_E4M3",
	E8M0:    "E8M0",
}

// Validate returns an error if the DType is not valid, otherwise nil.
func (dt DType) Validate() error {
	if dt == 0 || int(dt) >= len(dTypeToString) {
		return fmt.Errorf("invalid DType(%d)", dt)
	}
	return nil
}

// String returns a string representation of a DType.
func (dt DType) String() string {
	if err := dt.Validate(); err != nil {
		return err.Error()
	}
	return dTypeToString[dt]
}

// Size returns the size in bytes of one element of this data type,
// or -1 if the DType value is invalid.
//
// Both MX data types are one byte wide.
func (dt DType) Size() int {
	if err := dt.Validate(); err != nil {
		return -1
	}
	return 1
}

// Parse returns the DType with the given string representation.
func Parse(s string) (DType, error) {
	for dt, name := range dTypeToString {
		if dt != 0 && name == s {
			return DType(dt), nil
		}
	}
	return 0, fmt.Errorf("unknown DType %q", s)
}

// MarshalJSON satisfies json.Marshaler interface.
func (dt DType) MarshalJSON() ([]byte, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	return []byte(`"` + dTypeToString[dt] + `"`), nil
}

// UnmarshalJSON satisfies json.Unmarshaler interface.
func (dt *DType) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("failed to JSON-unmarshal DType from value %q", s)
	}
	v, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return fmt.Errorf("failed to JSON-unmarshal DType from value %q", s)
	}
	*dt = v
	return nil
}

// MarshalText satisfies encoding.TextMarshaler interface.
func (dt DType) MarshalText() ([]byte, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	return []byte(dTypeToString[dt]), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler interface.
func (dt *DType) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return fmt.Errorf("failed to text-unmarshal DType from value %q", text)
	}
	*dt = v
	return nil
}
