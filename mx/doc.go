// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mx implements the OCP Microscaling (MX) block format for
// MXFP8: a block of elements encoded as E4M3 values that share one
// E8M0 power-of-two scale.
//
// Encoding a block first selects the shared scale from the block's
// largest normal exponent (SelectScale), then removes the scale from each
// float16 element and quantizes it to E4M3 (EncodeElement). Decoding
// converts each E4M3 element back to float16 and applies the scale
// (DecodeElement).
//
// All functions operating on single elements and single blocks are pure
// and total: any input bit pattern yields a defined output. Codec adds a
// fixed block size, parallel processing of long sequences, logging and
// metrics on top of them.
package mx
