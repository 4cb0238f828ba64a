// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"cmp"
	"maps"
	"slices"

	"github.com/nlpodyssey/mxfp8/dtype"
)

// Tensor provides the properties of one entry, as described within
// a header.
type Tensor struct {
	Name        string
	DType       dtype.DType
	Shape       Shape
	DataOffsets DataOffsets
}

// TensorMap is a set of Tensor objects mapped by their name.
type TensorMap map[string]Tensor

// Names returns the sorted names of all tensors, or nil if there are none.
func (tm TensorMap) Names() []string {
	if len(tm) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(tm))
}

// ByDataOffsets returns all tensors sorted by ascending DataOffsets,
// that is in the order their data is laid out in the byte-buffer.
// Entries with equal offsets are sorted by name.
func (tm TensorMap) ByDataOffsets() []Tensor {
	if len(tm) == 0 {
		return nil
	}
	ts := slices.Collect(maps.Values(tm))
	slices.SortFunc(ts, func(a, b Tensor) int {
		switch {
		case a.DataOffsets.Less(b.DataOffsets):
			return -1
		case b.DataOffsets.Less(a.DataOffsets):
			return 1
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return ts
}
