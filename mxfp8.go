// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mxfp8 reads and writes MX-quantized tensors.
//
// A Tensor holds float16 data quantized with an mx.Codec: E4M3 elements
// grouped in blocks, each block sharing one E8M0 scale. Tensors are stored
// in the safetensors layout, each of them as two entries:
//
//	name        F8_E4M3  the tensor's shape
//	name_scale  E8M0     [number of blocks]
//
// The block size is shared by all tensors of a file and is recorded in the
// header metadata, next to any user metadata.
package mxfp8
