// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"encoding/json"
	"fmt"
)

// DataOffsets describes the "[Begin, End)" byte range of an entry's data
// within the byte-buffer, relative to the beginning of the byte-buffer.
type DataOffsets struct {
	// Begin is the lower bound byte index (included).
	Begin int
	// End is the upper bound byte index (excluded).
	End int
}

// Size returns the number of bytes in the range.
func (a DataOffsets) Size() int {
	return a.End - a.Begin
}

// Less reports whether DataOffsets "a" is ordered before DataOffsets "b".
func (a DataOffsets) Less(b DataOffsets) bool {
	return a.Begin < b.Begin || (a.Begin == b.Begin && a.End < b.End)
}

// UnmarshalJSON deserializes a DataOffsets object from an array of two
// non-negative numbers.
func (a *DataOffsets) UnmarshalJSON(b []byte) error {
	var decoded []int
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("invalid data-offsets value %s: %w", b, err)
	}
	if len(decoded) != 2 {
		return fmt.Errorf("invalid data-offsets value %s: expected 2 items, actual %d", b, len(decoded))
	}
	if decoded[0] < 0 || decoded[1] < 0 {
		return fmt.Errorf("invalid data-offsets value %s: negative offset", b)
	}
	*a = DataOffsets{Begin: decoded[0], End: decoded[1]}
	return nil
}

// MarshalJSON serializes a DataOffsets object to an array of two numbers.
func (a DataOffsets) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{a.Begin, a.End})
}
