// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"encoding/json"
	"fmt"

	"github.com/nlpodyssey/mxfp8/dtype"
)

// Header provides the entries and metadata of an MX tensor file.
//
// The layout is the one of safetensors: every MX-quantized tensor is
// stored as an entry of F8_E4M3 elements plus an entry of E8M0 scales,
// and the block size is recorded in the metadata (see ValidateMX).
type Header struct {
	Tensors  TensorMap
	Metadata Metadata
	// ByteBufferOffset indicates the byte index position where the byte-buffer
	// is expected to start, relative to the beginning of the whole
	// data stream (or file).
	ByteBufferOffset int
}

// Metadata is a set of free-form key/value string pairs.
type Metadata map[string]string

const metadataKey = "__metadata__"

// jsonTensor is the JSON form of a Tensor. Pointers tell missing fields
// apart from zero values.
type jsonTensor struct {
	DType       *dtype.DType `json:"dtype"`
	Shape       *Shape       `json:"shape"`
	DataOffsets *DataOffsets `json:"data_offsets"`
}

// MarshalJSON serializes the Header to a JSON object, mapping each tensor
// name to its properties, plus the "__metadata__" key when Metadata is not
// empty. ByteBufferOffset is not serialized.
func (h Header) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(h.Tensors)+1)
	if len(h.Metadata) > 0 {
		obj[metadataKey] = h.Metadata
	}
	for name, t := range h.Tensors {
		if name == metadataKey {
			return nil, fmt.Errorf("reserved tensor name %q", name)
		}
		obj[name] = jsonTensor{
			DType:       &t.DType,
			Shape:       &t.Shape,
			DataOffsets: &t.DataOffsets,
		}
	}
	return json.Marshal(obj)
}

// UnmarshalJSON deserializes a Header from the JSON object produced by
// MarshalJSON. As with Read, no validation is performed.
func (h *Header) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := decodeHeader(raw)
	if err != nil {
		return err
	}
	*h = v
	return nil
}
