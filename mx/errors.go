// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBlockSize is returned when a block size is not positive.
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidWorkers is returned when the number of workers is not positive.
	ErrInvalidWorkers = errors.New("number of workers must be positive")
	// ErrScaleCountMismatch is returned when the number of scales does not
	// match the number of blocks implied by the elements.
	ErrScaleCountMismatch = errors.New("scale count does not match element count")
)

// BlockSizeError reports a block, or a sequence of blocks, whose size
// differs from the size a Codec is configured with.
type BlockSizeError struct {
	Expected int
	Actual   int
}

func (e *BlockSizeError) Error() string {
	return fmt.Sprintf("block size mismatch: expected %d, actual %d", e.Expected, e.Actual)
}
