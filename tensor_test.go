// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxfp8

import (
	"bytes"
	"io"
	"testing"

	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
	"github.com/nlpodyssey/mxfp8/mx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ io.WriterTo = Tensor{}

// testData are exact powers of two spread over three blocks of two.
var testData = []float16.F16{0x3C00, 0x4000, 0x3800, 0x0000, 0x5000}

var testBlocks = mx.Blocks{
	BlockSize: 2,
	Scales:    []mx.Scale{0x79, 0x77, 0x7D},
	Elements:  []float8.E4M3{0x68, 0x70, 0x70, 0x00, 0x70},
}

func newTestCodec(t *testing.T) *mx.Codec {
	t.Helper()
	c, err := mx.NewCodec(mx.WithBlockSize(2))
	require.NoError(t, err)
	return c
}

func TestNewTensor(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		shape := []int{5}
		tensor, err := NewTensor("w", shape, testBlocks)
		require.NoError(t, err)
		assert.Equal(t, "w", tensor.Name())
		assert.Equal(t, []int{5}, tensor.Shape())
		assert.Equal(t, 2, tensor.BlockSize())
		assert.Equal(t, 5, tensor.NumElements())
		assert.Equal(t, testBlocks, tensor.Blocks())

		shape[0] = 42
		assert.Equal(t, []int{5}, tensor.Shape())
	})

	t.Run("scalar", func(t *testing.T) {
		b := mx.Blocks{BlockSize: 32, Scales: []mx.Scale{0x7F}, Elements: []float8.E4M3{0x38}}
		tensor, err := NewTensor("s", nil, b)
		require.NoError(t, err)
		assert.Nil(t, tensor.Shape())
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := NewTensor("w", []int{2, 3}, testBlocks)
		assert.EqualError(t, err, "the size computed from shape (6) does not match data length (5)")
	})

	t.Run("negative shape", func(t *testing.T) {
		_, err := NewTensor("w", []int{-5}, testBlocks)
		assert.EqualError(t, err, "shape contains negative value -5")
	})

	t.Run("invalid blocks", func(t *testing.T) {
		b := testBlocks
		b.Scales = b.Scales[:2]
		_, err := NewTensor("w", []int{5}, b)
		assert.ErrorIs(t, err, mx.ErrScaleCountMismatch)
	})
}

func TestQuantize(t *testing.T) {
	c := newTestCodec(t)

	tensor, err := Quantize("w", []int{5}, testData, c)
	require.NoError(t, err)
	assert.Equal(t, testBlocks, tensor.Blocks())

	data, err := tensor.Dequantize(c)
	require.NoError(t, err)
	assert.Equal(t, testData, data)

	_, err = Quantize("w", []int{4}, testData, c)
	assert.EqualError(t, err, "the size computed from shape (4) does not match data length (5)")
}

func TestQuantizeFloat32(t *testing.T) {
	c := newTestCodec(t)

	tensor, err := QuantizeFloat32("w", []int{5}, []float32{1, 2, 0.5, 0, 32}, c)
	require.NoError(t, err)
	assert.Equal(t, testBlocks, tensor.Blocks())

	data, err := tensor.DequantizeFloat32(c)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 0.5, 0, 32}, data)
}

func TestTensor_Dequantize_BlockSizeMismatch(t *testing.T) {
	c, err := mx.NewCodec()
	require.NoError(t, err)

	tensor, err := NewTensor("w", []int{5}, testBlocks)
	require.NoError(t, err)

	_, err = tensor.Dequantize(c)
	assert.EqualError(t, err, `failed to dequantize tensor "w": block size mismatch: expected 32, actual 2`)
	var sizeErr *mx.BlockSizeError
	assert.ErrorAs(t, err, &sizeErr)

	_, err = tensor.DequantizeFloat32(c)
	assert.Error(t, err)
}

func TestTensor_WriteTo(t *testing.T) {
	tensor, err := NewTensor("w", []int{5}, testBlocks)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := tensor.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, []byte{0x68, 0x70, 0x70, 0x00, 0x70, 0x79, 0x77, 0x7D}, buf.Bytes())
}
