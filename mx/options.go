// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"runtime"

	"github.com/rs/zerolog"
)

// DefaultBlockSize is the canonical MX block size.
const DefaultBlockSize = 32

type options struct {
	blockSize int
	workers   int
	logger    zerolog.Logger
	metrics   *Metrics
}

func defaultOptions() options {
	return options{
		blockSize: DefaultBlockSize,
		workers:   runtime.GOMAXPROCS(0),
		logger:    zerolog.Nop(),
	}
}

// Option configures a Codec.
type Option func(*options)

// WithBlockSize sets the number of elements sharing one scale.
// The same size must be used to encode and decode the same data.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithWorkers sets the maximum number of goroutines encoding or decoding
// blocks concurrently. The default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger used to report encode and decode summaries.
// Nothing is logged by default.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics enables Prometheus instrumentation. A nil value disables it.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
