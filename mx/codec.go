// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"github.com/nlpodyssey/mxfp8/float16"
	"github.com/nlpodyssey/mxfp8/float8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Codec encodes and decodes sequences of float16 values in MX blocks of
// a fixed size.
//
// A Codec holds only its configuration: it is safe for concurrent use.
type Codec struct {
	blockSize int
	workers   int
	logger    zerolog.Logger
	metrics   *Metrics
}

// NewCodec returns a new Codec configured with the given options.
func NewCodec(opts ...Option) (*Codec, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if o.workers <= 0 {
		return nil, ErrInvalidWorkers
	}
	return &Codec{
		blockSize: o.blockSize,
		workers:   o.workers,
		logger:    o.logger,
		metrics:   o.metrics,
	}, nil
}

// BlockSize returns the number of elements sharing one scale.
func (c *Codec) BlockSize() int {
	return c.blockSize
}

// EncodeBlock encodes exactly one block. It fails with a *BlockSizeError
// if the number of elements differs from the block size.
func (c *Codec) EncodeBlock(elements []float16.F16) (Block, error) {
	if len(elements) != c.blockSize {
		return Block{}, &BlockSizeError{Expected: c.blockSize, Actual: len(elements)}
	}
	var stats Stats
	out := make([]float8.E4M3, len(elements))
	s := encodeBlockInto(out, elements, &stats)
	c.metrics.observeEncode(stats, []Scale{s})
	return Block{Scale: s, Elements: out}, nil
}

// DecodeBlock decodes exactly one block. It fails with a *BlockSizeError
// if the number of elements differs from the block size.
func (c *Codec) DecodeBlock(b Block) ([]float16.F16, error) {
	if len(b.Elements) != c.blockSize {
		return nil, &BlockSizeError{Expected: c.blockSize, Actual: len(b.Elements)}
	}
	out := DecodeBlock(b)
	c.metrics.observeDecode(1)
	return out, nil
}

// Encode splits src into blocks and encodes them.
// A short trailing block is encoded as if zero-padded to the block size;
// the padding is not part of the result.
func (c *Codec) Encode(src []float16.F16) Blocks {
	b, _ := c.EncodeWithStats(src)
	return b
}

// EncodeWithStats is like Encode, and also reports how the elements
// were quantized.
func (c *Codec) EncodeWithStats(src []float16.F16) (Blocks, Stats) {
	n := NumBlocks(len(src), c.blockSize)
	out := Blocks{
		BlockSize: c.blockSize,
		Scales:    make([]Scale, n),
		Elements:  make([]float8.E4M3, len(src)),
	}

	ranges := c.partition(n)
	partial := make([]Stats, len(ranges))
	c.run(ranges, func(i int, r blockRange) {
		for b := r.begin; b < r.end; b++ {
			lo, hi := out.bounds(b)
			// Zero padding never changes the scale: a short block is
			// encoded as is.
			out.Scales[b] = encodeBlockInto(out.Elements[lo:hi], src[lo:hi], &partial[i])
		}
	})

	var stats Stats
	for _, p := range partial {
		stats = stats.Merge(p)
	}
	c.metrics.observeEncode(stats, out.Scales)
	c.logEncode(stats)
	return out, stats
}

// Decode decodes all blocks. It fails if the blocks were encoded with
// a different block size, or if they are not valid.
func (c *Codec) Decode(b Blocks) ([]float16.F16, error) {
	if b.BlockSize != c.blockSize {
		return nil, &BlockSizeError{Expected: c.blockSize, Actual: b.BlockSize}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	out := make([]float16.F16, len(b.Elements))
	c.run(c.partition(b.NumBlocks()), func(_ int, r blockRange) {
		for i := r.begin; i < r.end; i++ {
			lo, hi := b.bounds(i)
			decodeBlockInto(out[lo:hi], b.Elements[lo:hi], b.Scales[i])
		}
	})

	c.metrics.observeDecode(b.NumBlocks())
	c.logger.Debug().
		Int("blocks", b.NumBlocks()).
		Int("elements", b.Len()).
		Msg("decoded MX blocks")
	return out, nil
}

func (c *Codec) logEncode(stats Stats) {
	if stats.Count(float8.Saturated) > 0 {
		c.logger.Warn().
			Int("saturated", stats.Count(float8.Saturated)).
			Int("elements", stats.Elements()).
			Msg("MX encoding saturated some elements")
	}
	e := c.logger.Debug()
	if !e.Enabled() {
		return
	}
	e.Int("blocks", stats.Blocks).Int("elements", stats.Elements())
	for i, n := range stats.Outcomes {
		e.Int(float8.Outcome(i).String(), n)
	}
	if stats.Blocks > 0 {
		e.Int("min_scale_exp", stats.MinScale.Exponent()).Int("max_scale_exp", stats.MaxScale.Exponent())
	}
	e.Msg("encoded MX blocks")
}

type blockRange struct {
	begin, end int
}

// partition splits n blocks into at most c.workers contiguous ranges.
func (c *Codec) partition(n int) []blockRange {
	if n == 0 {
		return nil
	}
	size := NumBlocks(n, c.workers)
	ranges := make([]blockRange, 0, NumBlocks(n, size))
	for begin := 0; begin < n; begin += size {
		ranges = append(ranges, blockRange{begin: begin, end: min(begin+size, n)})
	}
	return ranges
}

// run calls fn for each range, concurrently when there is more than one.
// Ranges cover disjoint blocks, so fn may write its own part of a shared
// output without synchronization.
func (c *Codec) run(ranges []blockRange, fn func(int, blockRange)) {
	if len(ranges) == 1 {
		fn(0, ranges[0])
		return
	}
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, r := range ranges {
		g.Go(func() error {
			fn(i, r)
			return nil
		})
	}
	_ = g.Wait()
}
