// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"testing"

	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
	"github.com/stretchr/testify/assert"
)

func TestVerifyBlock(t *testing.T) {
	block := []float16.F16{0x3C00, 0x3C01}

	t.Run("match", func(t *testing.T) {
		r := VerifyBlock(block, Block{Scale: 0x78, Elements: []float8.E4M3{0x70, 0x70}})
		assert.True(t, r.OK())
		assert.Empty(t, r.Lanes)
		assert.Equal(t, "ok", r.String())
	})

	t.Run("mismatch", func(t *testing.T) {
		r := VerifyBlock(block, Block{Scale: 0x79, Elements: []float8.E4M3{0x70, 0x71}})
		assert.False(t, r.OK())
		assert.Equal(t, Scale(0x79), r.WantScale)
		assert.Equal(t, Scale(0x78), r.GotScale)
		assert.Equal(t, []LaneMismatch{{Lane: 1, Input: 0x3C01, Want: 0x71, Got: 0x70}}, r.Lanes)
		assert.Equal(t, "scale: want 0x79 (2^-6), got 0x78 (2^-7); lane 1 (input 0x3c01): want 0x71, got 0x70", r.String())
	})

	t.Run("length mismatch", func(t *testing.T) {
		r := VerifyBlock(block, Block{Scale: 0x78, Elements: []float8.E4M3{0x70}})
		assert.False(t, r.OK())
		assert.True(t, r.LengthMismatch)
		assert.Empty(t, r.Lanes)
		assert.Equal(t, "length mismatch", r.String())
	})
}
