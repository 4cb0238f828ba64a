// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Validate checks the layout of a Header, returning an error if a problem
// is encountered, otherwise nil. It does not check the MX-specific rules;
// see ValidateMX.
//
// The Header is checked against the following rules:
//
//   - ByteBufferOffset must not be negative
//   - each key in Tensors TensorMap must match the mapped Tensor.Name
//   - the union of DataOffsets of all Tensors must cover an entire contiguous
//     area of the byte-buffer, starting from offset 0, without overlaps
//   - for each Tensor, its DataOffsets.Begin must be <= DataOffsets.End
//   - each Tensor's DType must be valid
//   - for each Tensor, the byte size described by DataOffsets must coincide
//     with the one computed from Shape and DType (an empty shape counts as
//     one scalar value)
//   - no overflow must occur during calculations
func (h Header) Validate() error {
	if h.ByteBufferOffset < 0 {
		return fmt.Errorf("invalid byte-buffer offset negative value %d", h.ByteBufferOffset)
	}
	for k, t := range h.Tensors {
		if k != t.Name {
			return fmt.Errorf("tensor names mismatch: TensorMap key %q, Tensor.Name %q", k, t.Name)
		}
	}
	begin := 0
	for _, t := range h.Tensors.ByDataOffsets() {
		if err := validateLayout(t, begin); err != nil {
			return fmt.Errorf("invalid tensor %q: %w", t.Name, err)
		}
		begin = t.DataOffsets.End
	}
	return nil
}

func validateLayout(t Tensor, begin int) error {
	if t.DataOffsets.Begin != begin {
		return fmt.Errorf("expected data-offsets begin %d, actual %d", begin, t.DataOffsets.Begin)
	}
	if t.DataOffsets.End < t.DataOffsets.Begin {
		return fmt.Errorf("expected data-offsets end >= %d (begin), actual %d", t.DataOffsets.Begin, t.DataOffsets.End)
	}
	byteSize, err := t.ByteSize()
	if err != nil {
		return err
	}
	if size := t.DataOffsets.Size(); size != byteSize {
		return fmt.Errorf("byte size computed from shape (%d) differs from data-offsets size (%d)", byteSize, size)
	}
	return nil
}

// ByteSize returns the number of bytes of the tensor data, computed from
// its Shape and DType.
func (t Tensor) ByteSize() (int, error) {
	if err := t.DType.Validate(); err != nil {
		return 0, err
	}
	n, err := t.Shape.NumElements()
	if err != nil {
		return 0, err
	}
	hi, size := bits.Mul(uint(n), uint(t.DType.Size()))
	if hi != 0 || size > math.MaxInt {
		return 0, errors.New("int overflow computing tensor byte size from shape")
	}
	return int(size), nil
}
