// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/nlpodyssey/mxfp8/dtype"
	"github.com/nlpodyssey/mxfp8/mx"
)

// Reserved metadata keys and values of an MX tensor file.
const (
	// FormatKey is the metadata key identifying the element format.
	FormatKey = "mx.format"
	// Format is the only supported value of FormatKey.
	Format = "mxfp8_e4m3"
	// BlockSizeKey is the metadata key holding the decimal block size
	// shared by all tensors of the file.
	BlockSizeKey = "mx.block_size"
	// ScaleSuffix is appended to the name of a tensor to obtain the name
	// of the entry holding its scales.
	ScaleSuffix = "_scale"
)

// ErrNotMX is returned when a header does not describe an MX tensor file.
var ErrNotMX = errors.New("not an MX tensor file")

// IsReservedKey reports whether a metadata key is managed by this package
// and cannot be set by users.
func IsReservedKey(key string) bool {
	return key == FormatKey || key == BlockSizeKey
}

// BlockSize returns the block size recorded in the metadata.
// It fails with ErrNotMX if the format metadata is missing or unsupported.
func (h Header) BlockSize() (int, error) {
	switch f, ok := h.Metadata[FormatKey]; {
	case !ok:
		return 0, fmt.Errorf("%w: metadata key %q is missing", ErrNotMX, FormatKey)
	case f != Format:
		return 0, fmt.Errorf("%w: unsupported format %q", ErrNotMX, f)
	}
	s, ok := h.Metadata[BlockSizeKey]
	if !ok {
		return 0, fmt.Errorf("%w: metadata key %q is missing", ErrNotMX, BlockSizeKey)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid block size %q", s)
	}
	return n, nil
}

// ValidateMX checks that the header describes a valid MX tensor file and
// returns its block size.
//
// Beyond the rules of BlockSize, every F8_E4M3 entry "name" must be paired
// with an E8M0 entry "name_scale" of shape [ceil(numel/blockSize)], and
// every E8M0 entry must belong to such a pair.
//
// It does not check the layout; see Validate.
func (h Header) ValidateMX() (int, error) {
	blockSize, err := h.BlockSize()
	if err != nil {
		return 0, err
	}
	for _, name := range h.Tensors.Names() {
		t := h.Tensors[name]
		switch t.DType {
		case dtype.F8_E4M3:
			err = h.validateScaleEntry(t, blockSize)
		case dtype.E8M0:
			base, ok := strings.CutSuffix(name, ScaleSuffix)
			if !ok || h.Tensors[base].DType != dtype.F8_E4M3 {
				err = errors.New("scale entry without elements")
			}
		default:
			err = t.DType.Validate()
		}
		if err != nil {
			return 0, fmt.Errorf("invalid MX tensor %q: %w", name, err)
		}
	}
	return blockSize, nil
}

func (h Header) validateScaleEntry(t Tensor, blockSize int) error {
	name := t.Name + ScaleSuffix
	s, ok := h.Tensors[name]
	if !ok {
		return fmt.Errorf("scale entry %q is missing", name)
	}
	if s.DType != dtype.E8M0 {
		return fmt.Errorf("scale entry %q has DType %s, expected %s", name, s.DType, dtype.E8M0)
	}
	n, err := t.Shape.NumElements()
	if err != nil {
		return err
	}
	if want := (Shape{mx.NumBlocks(n, blockSize)}); !slices.Equal(s.Shape, want) {
		return fmt.Errorf("scale entry %q has shape %v, expected %v", name, s.Shape, want)
	}
	return nil
}
