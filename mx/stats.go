// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"github.com/nlpodyssey/mxfp8/float8"
)

// Stats summarizes how the elements of one or more blocks were encoded.
type Stats struct {
	// Blocks is the number of encoded blocks.
	Blocks int
	// Outcomes counts elements by quantization outcome, indexed by
	// float8.Outcome.
	Outcomes [float8.NumOutcomes]int
	// MinScale and MaxScale are the smallest and largest selected scales.
	// They are meaningful only when Blocks > 0.
	MinScale, MaxScale Scale
}

// Elements returns the total number of encoded elements.
func (s Stats) Elements() int {
	n := 0
	for _, c := range s.Outcomes {
		n += c
	}
	return n
}

// Count returns the number of elements with the given outcome.
func (s Stats) Count(o float8.Outcome) int {
	if int(o) >= len(s.Outcomes) {
		return 0
	}
	return s.Outcomes[o]
}

// Lossy reports whether any element was rounded, flushed or saturated.
func (s Stats) Lossy() bool {
	return s.Outcomes[float8.Rounded]+s.Outcomes[float8.Flushed]+s.Outcomes[float8.Saturated] > 0
}

// Merge returns the combination of s and other.
func (s Stats) Merge(other Stats) Stats {
	if other.Blocks == 0 {
		return s
	}
	if s.Blocks == 0 {
		s.MinScale, s.MaxScale = other.MinScale, other.MaxScale
	} else {
		s.MinScale = min(s.MinScale, other.MinScale)
		s.MaxScale = max(s.MaxScale, other.MaxScale)
	}
	s.Blocks += other.Blocks
	for i, c := range other.Outcomes {
		s.Outcomes[i] += c
	}
	return s
}

func (s *Stats) addBlock(scale Scale) {
	*s = s.Merge(Stats{Blocks: 1, MinScale: scale, MaxScale: scale})
}
