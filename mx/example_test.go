// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx_test

import (
	"fmt"

	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/mx"
)

func ExampleEncodeBlock() {
	b := mx.EncodeBlock([]float16.F16{0x3C00, 0x4000, 0xC200, 0x0000})
	fmt.Println(b.Scale)
	fmt.Println(b.Elements)

	for _, h := range mx.DecodeBlock(b) {
		fmt.Print(h.Float32(), " ")
	}
	fmt.Println()
	// Output:
	// 0x79 (2^-6)
	// [0x68 0x70 0xf4 0x00]
	// 1 2 -3 0
}

func ExampleCodec_Encode() {
	c, err := mx.NewCodec(mx.WithBlockSize(2))
	if err != nil {
		panic(err)
	}
	b := c.Encode([]float16.F16{0x3C00, 0x3800, 0x5000})
	fmt.Println(b.NumBlocks(), b.Scales)
	// Output:
	// 2 [0x78 (2^-7) 0x7d (2^-2)]
}
