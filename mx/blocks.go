// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"fmt"

	"github.com/nlpodyssey/mxfp8/float8"
)

// Blocks is a sequence of elements encoded as consecutive MX blocks of
// BlockSize elements each, with one scale per block.
//
// The last block may be shorter than BlockSize: its missing elements are
// zero padding, which is not stored.
type Blocks struct {
	BlockSize int
	Scales    []Scale
	Elements  []float8.E4M3
}

// NumBlocks returns the number of blocks of the given size needed to hold
// n elements, that is ceil(n/size). It panics if size is not positive.
func NumBlocks(n, size int) int {
	if size <= 0 {
		panic(ErrInvalidBlockSize)
	}
	return (n + size - 1) / size
}

// Len returns the number of elements.
func (b Blocks) Len() int {
	return len(b.Elements)
}

// NumBlocks returns the number of blocks.
func (b Blocks) NumBlocks() int {
	return len(b.Scales)
}

// Validate returns an error if the block size is not positive or the
// number of scales does not match the number of elements, otherwise nil.
func (b Blocks) Validate() error {
	if b.BlockSize <= 0 {
		return ErrInvalidBlockSize
	}
	if want := NumBlocks(len(b.Elements), b.BlockSize); len(b.Scales) != want {
		return fmt.Errorf("%w: %d elements in blocks of %d need %d scales, actual %d",
			ErrScaleCountMismatch, len(b.Elements), b.BlockSize, want, len(b.Scales))
	}
	return nil
}

// Block returns the i-th block. The elements of the returned Block share
// memory with b. It panics if i is out of range.
func (b Blocks) Block(i int) Block {
	lo, hi := b.bounds(i)
	return Block{
		Scale:    b.Scales[i],
		Elements: b.Elements[lo:hi],
	}
}

func (b Blocks) bounds(i int) (lo, hi int) {
	lo = i * b.BlockSize
	hi = min(lo+b.BlockSize, len(b.Elements))
	return lo, hi
}
