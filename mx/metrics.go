// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mx

import (
	"github.com/nlpodyssey/mxfp8/float8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a Codec.
type Metrics struct {
	BlocksEncoded prometheus.Counter
	BlocksDecoded prometheus.Counter
	// Elements counts encoded elements by quantization outcome.
	Elements *prometheus.CounterVec
	// ScaleExponent observes the unbiased exponent of every selected scale.
	ScaleExponent prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BlocksEncoded: f.NewCounter(prometheus.CounterOpts{
			Name: "mxfp8_blocks_encoded_total",
			Help: "The total number of encoded MX blocks",
		}),
		BlocksDecoded: f.NewCounter(prometheus.CounterOpts{
			Name: "mxfp8_blocks_decoded_total",
			Help: "The total number of decoded MX blocks",
		}),
		Elements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mxfp8_elements_total",
			Help: "The total number of encoded elements, by quantization outcome",
		}, []string{"outcome"}),
		ScaleExponent: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mxfp8_shared_scale_exponent",
			Help:    "Distribution of the unbiased exponents of selected shared scales",
			Buckets: prometheus.LinearBuckets(-24, 2, 17),
		}),
	}
}

func (m *Metrics) observeEncode(stats Stats, scales []Scale) {
	if m == nil {
		return
	}
	m.BlocksEncoded.Add(float64(stats.Blocks))
	for i, c := range stats.Outcomes {
		if c > 0 {
			m.Elements.WithLabelValues(float8.Outcome(i).String()).Add(float64(c))
		}
	}
	for _, s := range scales {
		m.ScaleExponent.Observe(float64(s.Exponent()))
	}
}

func (m *Metrics) observeDecode(blocks int) {
	if m == nil {
		return
	}
	m.BlocksDecoded.Add(float64(blocks))
}
