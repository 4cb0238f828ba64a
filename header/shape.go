// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// The Shape of a tensor. An empty Shape describes a scalar.
type Shape []int

// NumElements returns the product of all dimensions, failing if any of
// them is negative or if the product overflows int.
func (s Shape) NumElements() (int, error) {
	n := uint(1)
	for _, v := range s {
		if v < 0 {
			return 0, fmt.Errorf("shape contains negative value %d", v)
		}
		var hi uint
		if hi, n = bits.Mul(n, uint(v)); hi != 0 || n > math.MaxInt {
			return 0, errors.New("int overflow computing number of elements from shape")
		}
	}
	return int(n), nil
}

// MarshalJSON prevents a nil Shape to be serialized as "null",
// preferring an empty array "[]" instead.
func (s Shape) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(s))
}

// UnmarshalJSON deserializes a Shape from a JSON array of non-negative
// integers. An empty array becomes a nil Shape.
func (s *Shape) UnmarshalJSON(b []byte) error {
	var dims []int
	if err := json.Unmarshal(b, &dims); err != nil {
		return fmt.Errorf("invalid shape value %s: %w", b, err)
	}
	for i, v := range dims {
		if v < 0 {
			return fmt.Errorf("invalid shape value %s: negative dimension at index %d", b, i)
		}
	}
	if len(dims) == 0 {
		dims = nil
	}
	*s = dims
	return nil
}
