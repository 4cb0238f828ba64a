// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Read reads and parses from "r" the initial part of an MX tensor
// data stream: the little-endian uint64 size of the JSON header, followed
// by the JSON header itself, possibly padded with trailing spaces.
//
// Note that after successfully reading and parsing, NO validation is
// performed on the obtained Header.
//
// The caller is responsible for guarding against reading data up to a lower
// limit, for example by providing an io.LimitedReader.
func Read(r io.Reader) (Header, error) {
	size, err := readHeaderSize(r)
	switch {
	case err != nil:
		return Header{}, err
	case size < 2: // "{}"
		return Header{}, fmt.Errorf("header size too small: %d", size)
	case size > math.MaxInt-8:
		return Header{}, fmt.Errorf("header size too large: %d", size)
	}

	raw, err := readJSONObject(r, int64(size))
	if err != nil {
		return Header{}, fmt.Errorf("failed to JSON-decode header: %w", err)
	}

	h, err := decodeHeader(raw)
	if err != nil {
		return Header{}, err
	}
	h.ByteBufferOffset = 8 + int(size)
	return h, nil
}

func readHeaderSize(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("failed to read header size: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readJSONObject(r io.Reader, size int64) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(&io.LimitedReader{R: r, N: size})
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	off := dec.InputOffset()
	switch _, err := dec.Token(); {
	case err == io.EOF:
		return raw, nil
	case err == nil:
		return nil, fmt.Errorf("unexpected data at byte offset %d", off)
	default:
		return nil, err
	}
}

func decodeHeader(raw map[string]json.RawMessage) (h Header, err error) {
	if m, ok := raw[metadataKey]; ok {
		delete(raw, metadataKey)
		if h.Metadata, err = decodeMetadata(m); err != nil {
			return Header{}, err
		}
	}
	if len(raw) == 0 {
		return h, nil
	}
	h.Tensors = make(TensorMap, len(raw))
	for name, m := range raw {
		t, err := decodeTensor(name, m)
		if err != nil {
			return Header{}, fmt.Errorf("failed to interpret header tensor %q: %w", name, err)
		}
		h.Tensors[name] = t
	}
	return h, nil
}

func decodeMetadata(m json.RawMessage) (Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(m, &md); err != nil {
		return nil, fmt.Errorf("failed to interpret header metadata: %w", err)
	}
	if len(md) == 0 {
		return nil, nil
	}
	return md, nil
}

func decodeTensor(name string, m json.RawMessage) (Tensor, error) {
	dec := json.NewDecoder(bytes.NewReader(m))
	dec.DisallowUnknownFields()
	var jt jsonTensor
	if err := dec.Decode(&jt); err != nil {
		return Tensor{}, err
	}
	switch {
	case jt.DType == nil:
		return Tensor{}, errors.New(`"dtype" is missing`)
	case jt.Shape == nil:
		return Tensor{}, errors.New(`"shape" is missing`)
	case jt.DataOffsets == nil:
		return Tensor{}, errors.New(`"data_offsets" is missing`)
	}
	return Tensor{
		Name:        name,
		DType:       *jt.DType,
		Shape:       *jt.Shape,
		DataOffsets: *jt.DataOffsets,
	}, nil
}
