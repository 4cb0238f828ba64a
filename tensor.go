// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxfp8

import (
	"bufio"
	"fmt"
	"io"

	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
	"github.com/nlpodyssey/mxfp8/header"
	"github.com/nlpodyssey/mxfp8/mx"
)

// A Tensor of MX-quantized data fully loaded in memory.
//
// Its elements are laid out in row-major order and split into blocks of
// BlockSize elements regardless of the shape; the last block may be short.
type Tensor struct {
	name   string
	shape  []int
	blocks mx.Blocks
}

// NewTensor performs validity checks over the given properties and returns
// a Tensor with those properties if validation succeeds, otherwise an error.
//
// The blocks must be valid (see mx.Blocks.Validate) and hold exactly the
// number of elements described by the shape; an empty shape describes
// a scalar. The shape is copied, while the blocks are assigned to the
// Tensor as they are.
func NewTensor(name string, shape []int, blocks mx.Blocks) (Tensor, error) {
	if err := blocks.Validate(); err != nil {
		return Tensor{}, err
	}
	if err := checkShape(shape, blocks.Len()); err != nil {
		return Tensor{}, err
	}
	return Tensor{
		name:   name,
		shape:  copyShape(shape),
		blocks: blocks,
	}, nil
}

// Quantize encodes data with the given codec and returns a new Tensor.
// The number of data elements must match the shape.
func Quantize(name string, shape []int, data []float16.F16, c *mx.Codec) (Tensor, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return Tensor{}, err
	}
	return Tensor{
		name:   name,
		shape:  copyShape(shape),
		blocks: c.Encode(data),
	}, nil
}

// QuantizeFloat32 is like Quantize, converting data to float16 first with
// round-to-nearest-even.
func QuantizeFloat32(name string, shape []int, data []float32, c *mx.Codec) (Tensor, error) {
	return Quantize(name, shape, float16.FromFloat32Slice(data), c)
}

func checkShape(shape []int, n int) error {
	size, err := header.Shape(shape).NumElements()
	if err != nil {
		return err
	}
	if size != n {
		return fmt.Errorf("the size computed from shape (%d) does not match data length (%d)", size, n)
	}
	return nil
}

// The Name of the tensor.
func (t Tensor) Name() string {
	return t.name
}

// The Shape of the tensor.
//
// If the shape is zero-length, it returns nil, otherwise a new slice
// is allocated and returned.
func (t Tensor) Shape() []int {
	return copyShape(t.shape)
}

// BlockSize returns the number of elements sharing one scale.
func (t Tensor) BlockSize() int {
	return t.blocks.BlockSize
}

// NumElements returns the number of elements.
func (t Tensor) NumElements() int {
	return t.blocks.Len()
}

// Blocks returns the quantized data.
//
// The value returned is NOT a copy: any change to its content will
// affect the Tensor too.
func (t Tensor) Blocks() mx.Blocks {
	return t.blocks
}

// Dequantize decodes the tensor data with the given codec, whose block size
// must match the tensor's.
func (t Tensor) Dequantize(c *mx.Codec) ([]float16.F16, error) {
	out, err := c.Decode(t.blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to dequantize tensor %q: %w", t.name, err)
	}
	return out, nil
}

// DequantizeFloat32 is like Dequantize, converting the result to float32.
func (t Tensor) DequantizeFloat32(c *mx.Codec) ([]float32, error) {
	h, err := t.Dequantize(c)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(h))
	for i, v := range h {
		out[i] = v.Float32()
	}
	return out, nil
}

// WriteTo writes the tensor's elements followed by its scales, one byte
// each, as they are laid out in a file.
// It satisfies io.WriterTo interface.
func (t Tensor) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	n, err := t.writeElements(bw)
	if err == nil {
		var m int64
		m, err = t.writeScales(bw)
		n += m
	}
	if e := bw.Flush(); e != nil && err == nil {
		err = e
	}
	return n, err
}

func (t Tensor) writeElements(w io.Writer) (int64, error) {
	return writeBytes(w, t.blocks.Elements)
}

func (t Tensor) writeScales(w io.Writer) (int64, error) {
	return writeBytes(w, t.blocks.Scales)
}

func writeBytes[T float8.E4M3 | mx.Scale](w io.Writer, data []T) (int64, error) {
	buf := make([]byte, len(data))
	for i, x := range data {
		buf[i] = byte(x)
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func readBytes[T float8.E4M3 | mx.Scale](b []byte) []T {
	out := make([]T, len(b))
	for i, x := range b {
		out[i] = T(x)
	}
	return out
}

func copyShape(shape []int) []int {
	if len(shape) == 0 {
		return nil
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return s
}
