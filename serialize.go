// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxfp8

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/nlpodyssey/mxfp8/dtype"
	"github.com/nlpodyssey/mxfp8/header"
	"github.com/nlpodyssey/mxfp8/mx"
)

// Serialize writes the given tensors and additional metadata to "w".
//
// All tensors must have the same block size. Metadata must not use the
// reserved keys (see header.IsReservedKey). Entries are written in the
// order of the tensors, the elements of each tensor followed by its scales.
func Serialize(w io.Writer, tensors []Tensor, metadata map[string]string) error {
	blockSize, err := commonBlockSize(tensors)
	if err != nil {
		return err
	}
	md, err := makeMetadata(metadata, blockSize)
	if err != nil {
		return err
	}
	ents := makeEntries(tensors)
	head, err := makeValidHeader(ents, md)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err = writeHeader(bw, head); err != nil {
		return err
	}
	if err = writeEntries(bw, ents); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}

func commonBlockSize(tensors []Tensor) (int, error) {
	if len(tensors) == 0 {
		return mx.DefaultBlockSize, nil
	}
	n := tensors[0].BlockSize()
	for _, t := range tensors[1:] {
		if t.BlockSize() != n {
			return 0, fmt.Errorf("tensor %q has block size %d, expected %d like tensor %q",
				t.Name(), t.BlockSize(), n, tensors[0].Name())
		}
	}
	return n, nil
}

func makeMetadata(metadata map[string]string, blockSize int) (header.Metadata, error) {
	md := make(header.Metadata, len(metadata)+2)
	for k, v := range metadata {
		if header.IsReservedKey(k) {
			return nil, fmt.Errorf("reserved metadata key %q", k)
		}
		md[k] = v
	}
	md[header.FormatKey] = header.Format
	md[header.BlockSizeKey] = strconv.Itoa(blockSize)
	return md, nil
}

// entry is one item of the byte-buffer: the elements or the scales of
// a tensor.
type entry struct {
	ht    header.Tensor
	write func(io.Writer) (int64, error)
}

func makeEntries(tensors []Tensor) []entry {
	ents := make([]entry, 0, 2*len(tensors))
	offset := 0
	add := func(name string, dt dtype.DType, shape header.Shape, size int, write func(io.Writer) (int64, error)) {
		ents = append(ents, entry{
			ht: header.Tensor{
				Name:        name,
				DType:       dt,
				Shape:       shape,
				DataOffsets: header.DataOffsets{Begin: offset, End: offset + size},
			},
			write: write,
		})
		offset += size
	}
	for _, t := range tensors {
		b := t.Blocks()
		add(t.Name(), dtype.F8_E4M3, t.Shape(), b.Len(), t.writeElements)
		add(t.Name()+header.ScaleSuffix, dtype.E8M0, header.Shape{b.NumBlocks()}, b.NumBlocks(), t.writeScales)
	}
	return ents
}

func makeValidHeader(ents []entry, metadata header.Metadata) (header.Header, error) {
	tm := make(header.TensorMap, len(ents))
	for _, e := range ents {
		if _, ok := tm[e.ht.Name]; ok {
			return header.Header{}, fmt.Errorf("duplicate tensor name %q", e.ht.Name)
		}
		tm[e.ht.Name] = e.ht
	}
	head := header.Header{Tensors: tm, Metadata: metadata}
	if err := head.Validate(); err != nil {
		return header.Header{}, fmt.Errorf("failed to generate a valid header: %w", err)
	}
	if _, err := head.ValidateMX(); err != nil {
		return header.Header{}, fmt.Errorf("failed to generate a valid header: %w", err)
	}
	return head, nil
}

var headerPadding = [8]byte{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}

func writeHeader(w io.Writer, head header.Header) error {
	jsonHeader, err := head.MarshalJSON()
	if err != nil {
		return err
	}

	// 8-byte alignment of the byte-buffer
	pad := (8 - len(jsonHeader)%8) % 8

	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(jsonHeader)+pad))
	if _, err = w.Write(size[:]); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err = w.Write(jsonHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err = w.Write(headerPadding[:pad]); err != nil {
		return fmt.Errorf("failed to write header padding: %w", err)
	}
	return nil
}

func writeEntries(w io.Writer, ents []entry) error {
	for _, e := range ents {
		n, err := e.write(w)
		if err == nil && n != int64(e.ht.DataOffsets.Size()) {
			err = fmt.Errorf("expected %d written bytes, actual %d", e.ht.DataOffsets.Size(), n)
		}
		if err != nil {
			return fmt.Errorf("failed to write data of tensor %q: %w", e.ht.Name, err)
		}
	}
	return nil
}
