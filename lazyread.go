// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxfp8

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/nlpodyssey/mxfp8/dtype"
	"github.com/nlpodyssey/mxfp8/float8"
	"github.com/nlpodyssey/mxfp8/header"
	"github.com/nlpodyssey/mxfp8/mx"
)

// LazyFile allows to read MX tensor file content lazy-loading the data of
// individual tensors, or of individual blocks.
type LazyFile struct {
	rs        io.ReadSeeker
	head      header.Header
	blockSize int
	// dataOffset is the byte-buffer offset relative to the start of rs
	dataOffset int64
}

// LazyTensor provides information about a tensor and allows lazy loading
// its data.
//
// It only retains the header information of the tensor's elements and
// scales entries, needed to retrieve the data later.
type LazyTensor struct {
	rs        io.ReadSeeker
	elements  header.Tensor
	scales    header.Tensor
	blockSize int
	// dataOffset is the byte-buffer offset relative to the start of rs
	dataOffset int64
}

// NewLazy reads from "rs" the header and validates it, then returns a new
// LazyFile in case of success, otherwise nil and an error.
//
// If headerSizeLimit is set to a positive number, its value is used to
// limit the reading of the header, as for ReadAll.
//
// The current "seek" position of "rs" is used as a base for all further
// seek-based operations to read tensor data. The given io.ReadSeeker must
// remain available as long as the LazyFile, or any LazyTensor obtained
// from it, is in use.
func NewLazy(rs io.ReadSeeker, headerSizeLimit int) (*LazyFile, error) {
	initialOffset, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to get initial offset: %w", err)
	}

	head, blockSize, err := readValidHeader(rs, headerSizeLimit)
	if err != nil {
		return nil, err
	}

	byteBufferOffset, err := checkedAddNonNegInt64(initialOffset, int64(head.ByteBufferOffset))
	if err != nil {
		return nil, fmt.Errorf("failed to calculate total byte-buffer offset: %w", err)
	}

	return &LazyFile{
		rs:         rs,
		head:       head,
		blockSize:  blockSize,
		dataOffset: byteBufferOffset,
	}, nil
}

// Metadata returns the user metadata, without the reserved keys.
// It can be nil.
func (f *LazyFile) Metadata() map[string]string {
	return userMetadata(f.head.Metadata)
}

// BlockSize returns the block size shared by all tensors.
func (f *LazyFile) BlockSize() int {
	return f.blockSize
}

// TensorNames returns the sorted names of all tensors, or nil if there
// are none. Scale entries are not listed.
func (f *LazyFile) TensorNames() []string {
	var names []string
	for _, name := range f.head.Tensors.Names() {
		if f.head.Tensors[name].DType == dtype.F8_E4M3 {
			names = append(names, name)
		}
	}
	return names
}

// AllTensors reads and loads in memory the data of all tensors.
func (f *LazyFile) AllTensors() ([]Tensor, error) {
	if _, err := f.rs.Seek(f.dataOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to byte-buffer offset: %w", err)
	}
	return readAllTensors(f.head, f.blockSize, f.rs)
}

// LazyTensor returns a LazyTensor by its name, and whether it has been found.
//
// If ok is false, the LazyTensor is the zero-value, and must not be used.
func (f *LazyFile) LazyTensor(name string) (_ LazyTensor, ok bool) {
	elements, ok := f.head.Tensors[name]
	if !ok || elements.DType != dtype.F8_E4M3 {
		return LazyTensor{}, false
	}
	return LazyTensor{
		rs:         f.rs,
		elements:   elements,
		scales:     f.head.Tensors[name+header.ScaleSuffix],
		blockSize:  f.blockSize,
		dataOffset: f.dataOffset,
	}, true
}

// Name returns the name of the tensor.
func (lt LazyTensor) Name() string {
	return lt.elements.Name
}

// Shape returns the shape of the tensor.
//
// If the shape is zero-length, it returns nil, otherwise a new slice
// is allocated and returned.
func (lt LazyTensor) Shape() []int {
	return copyShape(lt.elements.Shape)
}

// NumElements returns the number of elements.
func (lt LazyTensor) NumElements() int {
	return lt.elements.DataOffsets.Size()
}

// NumBlocks returns the number of blocks.
func (lt LazyTensor) NumBlocks() int {
	return lt.scales.DataOffsets.Size()
}

// Tensor reads the tensor's elements and scales, and returns them as a new
// Tensor.
func (lt LazyTensor) Tensor() (Tensor, error) {
	elements, err := lt.read(lt.elements.DataOffsets.Begin, lt.NumElements())
	if err != nil {
		return Tensor{}, err
	}
	scales, err := lt.read(lt.scales.DataOffsets.Begin, lt.NumBlocks())
	if err != nil {
		return Tensor{}, err
	}
	return Tensor{
		name:  lt.Name(),
		shape: lt.Shape(),
		blocks: mx.Blocks{
			BlockSize: lt.blockSize,
			Scales:    readBytes[mx.Scale](scales),
			Elements:  readBytes[float8.E4M3](elements),
		},
	}, nil
}

// Block reads only the i-th block of the tensor.
func (lt LazyTensor) Block(i int) (mx.Block, error) {
	if i < 0 || i >= lt.NumBlocks() {
		return mx.Block{}, fmt.Errorf("block index %d out of range [0, %d)", i, lt.NumBlocks())
	}
	scale, err := lt.read(lt.scales.DataOffsets.Begin+i, 1)
	if err != nil {
		return mx.Block{}, err
	}
	lo := i * lt.blockSize
	hi := min(lo+lt.blockSize, lt.NumElements())
	elements, err := lt.read(lt.elements.DataOffsets.Begin+lo, hi-lo)
	if err != nil {
		return mx.Block{}, err
	}
	return mx.Block{
		Scale:    mx.Scale(scale[0]),
		Elements: readBytes[float8.E4M3](elements),
	}, nil
}

// read reads size bytes at the given byte-buffer offset.
func (lt LazyTensor) read(begin, size int) ([]byte, error) {
	data := make([]byte, size)
	if size == 0 {
		return data, nil
	}
	offset, err := checkedAddNonNegInt64(lt.dataOffset, int64(begin))
	if err != nil {
		return nil, fmt.Errorf("failed to calculate tensor data offset: %w", err)
	}
	if _, err = lt.rs.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor data offset: %w", err)
	}
	if _, err = io.ReadFull(lt.rs, data); err != nil {
		return nil, fmt.Errorf("failed to read data of tensor %q: %w", lt.Name(), err)
	}
	return data, nil
}

var errInt64SumOverflow = errors.New("int64 sum overflow")

func checkedAddNonNegInt64(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, fmt.Errorf("unexpected negative number")
	}
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || sum > math.MaxInt64 {
		return 0, errInt64SumOverflow
	}
	return int64(sum), nil
}
