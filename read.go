// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxfp8

import (
	"fmt"
	"io"

	"github.com/nlpodyssey/mxfp8/dtype"
	"github.com/nlpodyssey/mxfp8/float8"
	"github.com/nlpodyssey/mxfp8/header"
	"github.com/nlpodyssey/mxfp8/mx"
)

// File is the result of reading the full content of an MX tensor data
// stream (or file), loading all tensors in memory.
type File struct {
	// Tensors are sorted by name.
	Tensors []Tensor
	// Metadata holds the user metadata, without the reserved keys.
	Metadata map[string]string
	// BlockSize is the block size shared by all tensors.
	BlockSize int
}

// Tensor returns the tensor with the given name, and whether it was found.
func (f File) Tensor(name string) (Tensor, bool) {
	for _, t := range f.Tensors {
		if t.name == name {
			return t, true
		}
	}
	return Tensor{}, false
}

// ReadAll reads and interprets the whole content of an MX tensor data
// stream (or file).
//
// If headerSizeLimit is set to a positive number, its value is used to
// limit the reading of the header. This can be useful to guard against
// attacks or tampered/garbage data, avoiding giant memory allocations
// to hold header information. A value of zero, or a negative number, have
// no limiting effects.
func ReadAll(r io.Reader, headerSizeLimit int) (File, error) {
	head, blockSize, err := readValidHeader(r, headerSizeLimit)
	if err != nil {
		return File{}, err
	}
	tensors, err := readAllTensors(head, blockSize, r)
	if err != nil {
		return File{}, err
	}
	return File{
		Tensors:   tensors,
		Metadata:  userMetadata(head.Metadata),
		BlockSize: blockSize,
	}, nil
}

func readValidHeader(r io.Reader, sizeLimit int) (header.Header, int, error) {
	if sizeLimit > 0 {
		r = io.LimitReader(r, int64(sizeLimit))
	}
	head, err := header.Read(r)
	if err != nil {
		return header.Header{}, 0, fmt.Errorf("failed to read MX header: %w", err)
	}
	if err = head.Validate(); err != nil {
		return header.Header{}, 0, fmt.Errorf("MX header is invalid: %w", err)
	}
	blockSize, err := head.ValidateMX()
	if err != nil {
		return header.Header{}, 0, fmt.Errorf("MX header is invalid: %w", err)
	}
	return head, blockSize, nil
}

// readAllTensors reads the data of all entries from r, which must be
// positioned at the beginning of the byte-buffer.
func readAllTensors(head header.Header, blockSize int, r io.Reader) ([]Tensor, error) {
	data := make(map[string][]byte, len(head.Tensors))
	for _, ht := range head.Tensors.ByDataOffsets() {
		b := make([]byte, ht.DataOffsets.Size())
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("failed to read data of tensor %q: %w", ht.Name, err)
		}
		data[ht.Name] = b
	}

	var tensors []Tensor
	for _, name := range head.Tensors.Names() {
		ht := head.Tensors[name]
		if ht.DType != dtype.F8_E4M3 {
			continue
		}
		tensors = append(tensors, Tensor{
			name:  name,
			shape: copyShape(ht.Shape),
			blocks: mx.Blocks{
				BlockSize: blockSize,
				Scales:    readBytes[mx.Scale](data[name+header.ScaleSuffix]),
				Elements:  readBytes[float8.E4M3](data[name]),
			},
		})
	}
	return tensors, nil
}

func userMetadata(md header.Metadata) map[string]string {
	var out map[string]string
	for k, v := range md {
		if header.IsReservedKey(k) {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(md))
		}
		out[k] = v
	}
	return out
}
