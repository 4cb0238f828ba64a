// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"math"

	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
)

// SelectScale computes the shared scale of a block.
//
// The scale places the block's largest normal exponent at the top of the
// E4M3 exponent range, so that the largest element never overflows once
// the scale is removed. Zeros, subnormals, infinities and NaNs are
// ignored; a block without normal elements gets NeutralScale.
//
// Appending zeros to a block never changes its scale.
func SelectScale(block []float16.F16) Scale {
	maxExp := 0
	for _, h := range block {
		if h.IsNormal() {
			maxExp = max(maxExp, int(h.Exponent()))
		}
	}
	if maxExp == 0 {
		return NeutralScale
	}
	unbiased := maxExp - float16.ExponentBias - float8.MaxUnbiasedExponent
	return Scale(min(max(unbiased+ScaleBias, 0), math.MaxUint8))
}
