// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"
	"testing/iotest"

	"github.com/nlpodyssey/mxfp8/dtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jsonW      = `"w": {"dtype": "F8_E4M3", "shape": [2, 3], "data_offsets": [0, 6]}`
	jsonWScale = `"w_scale": {"dtype": "E8M0", "shape": [1], "data_offsets": [6, 7]}`
)

var (
	tensorW      = Tensor{Name: "w", DType: dtype.F8_E4M3, Shape: Shape{2, 3}, DataOffsets: DataOffsets{Begin: 0, End: 6}}
	tensorWScale = Tensor{Name: "w_scale", DType: dtype.E8M0, Shape: Shape{1}, DataOffsets: DataOffsets{Begin: 6, End: 7}}
)

func TestRead_Success(t *testing.T) {
	testCases := []struct {
		name string
		json string
		want Header
	}{
		{"empty object", `{}`, Header{}},
		{"empty metadata", `{"__metadata__": {}}`, Header{}},
		{
			"metadata",
			`{"__metadata__": {"foo": "bar", "mx.block_size": "32"}}`,
			Header{Metadata: Metadata{"foo": "bar", "mx.block_size": "32"}},
		},
		{
			"tensors",
			`{` + jsonW + `, ` + jsonWScale + `}`,
			Header{Tensors: TensorMap{"w": tensorW, "w_scale": tensorWScale}},
		},
		{
			"scalar",
			`{"s": {"dtype": "F8_E4M3", "shape": [], "data_offsets": [0, 1]}}`,
			Header{Tensors: TensorMap{
				"s": Tensor{Name: "s", DType: dtype.F8_E4M3, DataOffsets: DataOffsets{Begin: 0, End: 1}},
			}},
		},
		{
			"padding before and after",
			" \n\r\t" + `{` + jsonW + `, "__metadata__": {"foo": "bar"}}` + "    ",
			Header{
				Metadata: Metadata{"foo": "bar"},
				Tensors:  TensorMap{"w": tensorW},
			},
		},
	}

	for _, tc := range testCases {
		want := tc.want
		want.ByteBufferOffset = 8 + len(tc.json)

		for _, byteBufferSize := range []int{0, 100} {
			t.Run(fmt.Sprintf("%s plus %d bytes", tc.name, byteBufferSize), func(t *testing.T) {
				data := makeData(tc.json, byteBufferSize)
				h, err := Read(bytes.NewReader(data))
				require.NoError(t, err)
				assert.Equal(t, want, h)
			})
		}
	}
}

func TestRead_Failure(t *testing.T) {
	testCases := []struct {
		name   string
		json   string
		errMsg string
	}{
		{"size 0", "", "header size too small: 0"},
		{"size 1", " ", "header size too small: 1"},
		{"bad trailing data, valid JSON token", "{}9", "failed to JSON-decode header: unexpected data at byte offset 2"},
		{"bad trailing data, invalid JSON token", "{}~", "failed to JSON-decode header: invalid character '~' looking for beginning of value"},
		{"incomplete JSON", `{"foo`, "failed to JSON-decode header: unexpected EOF"},
		{"bad JSON", `{1: 2}`, "failed to JSON-decode header: invalid character '1' looking for beginning of object key string"},
		{"bad metadata", `{"__metadata__": {"foo": 1}}`, "failed to interpret header metadata: "},
		{"dtype missing", `{"w": {"shape": [2, 3], "data_offsets": [0, 6]}}`, `failed to interpret header tensor "w": "dtype" is missing`},
		{"shape missing", `{"w": {"dtype": "E8M0", "data_offsets": [0, 6]}}`, `failed to interpret header tensor "w": "shape" is missing`},
		{"data_offsets missing", `{"w": {"dtype": "E8M0", "shape": [2, 3]}}`, `failed to interpret header tensor "w": "data_offsets" is missing`},
		{"unknown tensor key", `{"w": {"dtype": "E8M0", "shape": [2, 3], "data_offsets": [0, 6], "bar": "baz"}}`, `unknown field "bar"`},
		{"tensor is not an object", `{"w": 42}`, `failed to interpret header tensor "w": `},
		{"invalid dtype", `{"w": {"dtype": "F16", "shape": [2, 3], "data_offsets": [0, 6]}}`, "failed to JSON-unmarshal DType"},
		{"shape is not array", `{"w": {"dtype": "E8M0", "shape": 123, "data_offsets": [0, 6]}}`, "invalid shape value 123"},
		{"shape item is float", `{"w": {"dtype": "E8M0", "shape": [2, 3.0], "data_offsets": [0, 6]}}`, "invalid shape value"},
		{"shape item is negative", `{"w": {"dtype": "E8M0", "shape": [2, -1], "data_offsets": [0, 6]}}`, "negative dimension at index 1"},
		{"data_offsets is not array", `{"w": {"dtype": "E8M0", "shape": [2, 3], "data_offsets": 123}}`, "invalid data-offsets value 123"},
		{"data_offsets len is not 2", `{"w": {"dtype": "E8M0", "shape": [2, 3], "data_offsets": [1, 2, 3]}}`, "expected 2 items, actual 3"},
		{"data_offsets item is negative", `{"w": {"dtype": "E8M0", "shape": [2, 3], "data_offsets": [0, -1]}}`, "negative offset"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := makeData(tc.json, 0)
			h, err := Read(bytes.NewReader(data))
			require.ErrorContains(t, err, tc.errMsg)
			assert.Equal(t, Header{}, h)
		})
	}

	t.Run("size too large", func(t *testing.T) {
		data := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
		h, err := Read(bytes.NewReader(data))
		require.EqualError(t, err, "header size too large: 18446744073709551615")
		assert.Equal(t, Header{}, h)
	})

	t.Run("reader error reading size", func(t *testing.T) {
		data := []byte{2, 0, 0, 0, 0, 0, 0}
		h, err := Read(iotest.DataErrReader(bytes.NewReader(data)))
		require.EqualError(t, err, "failed to read header size: unexpected EOF")
		assert.Equal(t, Header{}, h)
	})

	t.Run("reader error reading JSON", func(t *testing.T) {
		data := makeData(`{"foo`, 0)
		h, err := Read(iotest.DataErrReader(bytes.NewReader(data)))
		require.EqualError(t, err, "failed to JSON-decode header: unexpected EOF")
		assert.Equal(t, Header{}, h)
	})
}

func makeData(json string, byteBufferSize int) []byte {
	data := make([]byte, 8+len(json)+byteBufferSize)
	binary.LittleEndian.PutUint64(data, uint64(len(json)))
	copy(data[8:], json)
	for i := len(json) + 8; i < len(data); i++ {
		data[i] = 0xff
	}
	return data
}
