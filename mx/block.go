// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
)

// Block is one MX block: a shared scale and the E4M3 elements quantized
// against it.
type Block struct {
	Scale    Scale
	Elements []float8.E4M3
}

// EncodeBlock selects the shared scale of the given elements and encodes
// each of them against it.
//
// The block may have any length; callers working with a fixed block size
// are expected to zero-pad a short trailing block (see Codec).
func EncodeBlock(elements []float16.F16) Block {
	out := make([]float8.E4M3, len(elements))
	return Block{
		Scale:    encodeBlockInto(out, elements, nil),
		Elements: out,
	}
}

// DecodeBlock decodes every element of b with its shared scale.
func DecodeBlock(b Block) []float16.F16 {
	out := make([]float16.F16, len(b.Elements))
	decodeBlockInto(out, b.Elements, b.Scale)
	return out
}

// encodeBlockInto encodes src into dst, which must have the same length,
// and returns the selected scale. Outcomes are counted into stats
// when it is not nil.
func encodeBlockInto(dst []float8.E4M3, src []float16.F16, stats *Stats) Scale {
	s := SelectScale(src)
	if stats == nil {
		for i, h := range src {
			dst[i], _ = encodeElement(h, s)
		}
		return s
	}
	for i, h := range src {
		var o float8.Outcome
		dst[i], o = encodeElement(h, s)
		stats.Outcomes[o]++
	}
	stats.addBlock(s)
	return s
}

func decodeBlockInto(dst []float16.F16, src []float8.E4M3, s Scale) {
	for i, x := range src {
		dst[i] = DecodeElement(x, s)
	}
}
