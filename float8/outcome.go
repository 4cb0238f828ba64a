// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package float8

import "fmt"

// Outcome describes what happened to a value during quantization.
type Outcome uint8

const (
	// Exact means the value was represented without loss.
	Exact Outcome = iota
	// Rounded means mantissa bits were discarded with round-to-nearest-even.
	Rounded
	// Flushed means a non-zero value became a signed zero.
	Flushed
	// Saturated means the magnitude was clamped to MaxFinite.
	Saturated
	// Special means an infinity or NaN was carried over.
	Special
)

// NumOutcomes is the number of distinct Outcome values.
const NumOutcomes = int(Special) + 1

var outcomeToString = [...]string{
	Exact:     "exact",
	Rounded:   "rounded",
	Flushed:   "flushed",
	Saturated: "saturated",
	Special:   "special",
}

// String returns a string representation of an Outcome.
func (o Outcome) String() string {
	if int(o) >= len(outcomeToString) {
		return fmt.Sprintf("Outcome(%d)", o)
	}
	return outcomeToString[o]
}
