// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxfp8

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/nlpodyssey/mxfp8/float8"
	"github.com/nlpodyssey/mxfp8/mx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLazy(t *testing.T) {
	t.Run("header size limit", func(t *testing.T) {
		f, err := NewLazy(bytes.NewReader(makeData(testHeader, testByteBuffer)), 10)
		require.EqualError(t, err, "failed to read MX header: failed to JSON-decode header: unexpected EOF")
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		require.Nil(t, f)
	})

	t.Run("error reading header size", func(t *testing.T) {
		f, err := NewLazy(bytes.NewReader([]byte{0}), 10)
		require.EqualError(t, err, "failed to read MX header: failed to read header size: unexpected EOF")
		require.Nil(t, f)
	})

	t.Run("non-zero initial offset", func(t *testing.T) {
		data := append([]byte("garbage"), makeData(testHeader, testByteBuffer)...)
		r := bytes.NewReader(data)
		_, err := r.Seek(7, io.SeekStart)
		require.NoError(t, err)

		f, err := NewLazy(r, 0)
		require.NoError(t, err)
		tensors, err := f.AllTensors()
		require.NoError(t, err)
		require.Len(t, tensors, 1)
		assert.Equal(t, testBlocks, tensors[0].Blocks())
	})
}

func TestLazyFile(t *testing.T) {
	f, err := NewLazy(bytes.NewReader(makeData(testHeader, testByteBuffer)), 0)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"foo": "bar"}, f.Metadata())
	assert.Equal(t, 2, f.BlockSize())
	assert.Equal(t, []string{"w"}, f.TensorNames())

	t.Run("tensor not found", func(t *testing.T) {
		lt, ok := f.LazyTensor("foo")
		assert.False(t, ok)
		assert.Equal(t, LazyTensor{}, lt)

		_, ok = f.LazyTensor("w_scale")
		assert.False(t, ok)
	})

	t.Run("lazy tensor", func(t *testing.T) {
		lt, ok := f.LazyTensor("w")
		require.True(t, ok)
		assert.Equal(t, "w", lt.Name())
		assert.Equal(t, []int{5}, lt.Shape())
		assert.Equal(t, 5, lt.NumElements())
		assert.Equal(t, 3, lt.NumBlocks())

		tensor, err := lt.Tensor()
		require.NoError(t, err)
		assert.Equal(t, testBlocks, tensor.Blocks())

		all, err := f.AllTensors()
		require.NoError(t, err)
		assert.Equal(t, []Tensor{tensor}, all)
	})

	t.Run("blocks", func(t *testing.T) {
		lt, ok := f.LazyTensor("w")
		require.True(t, ok)

		want := []mx.Block{
			{Scale: 0x79, Elements: []float8.E4M3{0x68, 0x70}},
			{Scale: 0x77, Elements: []float8.E4M3{0x70, 0x00}},
			{Scale: 0x7D, Elements: []float8.E4M3{0x70}},
		}
		for i := len(want) - 1; i >= 0; i-- {
			b, err := lt.Block(i)
			require.NoError(t, err)
			assert.Equal(t, want[i], b, "block %d", i)
			assert.Equal(t, testData[2*i:min(2*i+2, 5)], mx.DecodeBlock(b))
		}

		_, err := lt.Block(3)
		assert.EqualError(t, err, "block index 3 out of range [0, 3)")
		_, err = lt.Block(-1)
		assert.EqualError(t, err, "block index -1 out of range [0, 3)")
	})
}

func TestLazyFile_Empty(t *testing.T) {
	f, err := NewLazy(bytes.NewReader(makeData(`{"__metadata__":{"mx.format":"mxfp8_e4m3","mx.block_size":"32"}}`, nil)), 0)
	require.NoError(t, err)
	assert.Nil(t, f.Metadata())
	assert.Nil(t, f.TensorNames())

	tensors, err := f.AllTensors()
	require.NoError(t, err)
	assert.Empty(t, tensors)
}

func TestLazyTensor_TruncatedData(t *testing.T) {
	f, err := NewLazy(bytes.NewReader(makeData(testHeader, testByteBuffer[:6])), 0)
	require.NoError(t, err)
	lt, ok := f.LazyTensor("w")
	require.True(t, ok)

	_, err = lt.Block(0)
	require.NoError(t, err)
	_, err = lt.Block(1)
	assert.EqualError(t, err, `failed to read data of tensor "w": EOF`)
	_, err = lt.Tensor()
	assert.EqualError(t, err, `failed to read data of tensor "w": unexpected EOF`)
}

func TestCheckedAddNonNegInt64(t *testing.T) {
	testCases := []struct {
		a, b, want int64
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 1},
		{40, 2, 42},
		{math.MaxInt64 - 1, 1, math.MaxInt64},
	}
	for _, tc := range testCases {
		got, err := checkedAddNonNegInt64(tc.a, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := checkedAddNonNegInt64(math.MaxInt64, 1)
	assert.ErrorIs(t, err, errInt64SumOverflow)
	_, err = checkedAddNonNegInt64(-1, 1)
	assert.EqualError(t, err, "unexpected negative number")
}
