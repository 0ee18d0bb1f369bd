package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swap_engine_quote_requests_total",
		Help: "Quote requests served, partitioned by outcome.",
	}, []string{"outcome"})

	feeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swap_engine_fee_requests_total",
		Help: "Fee estimate requests served, partitioned by outcome.",
	}, []string{"outcome"})

	quoteHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_engine_quote_hops",
		Help:    "Hop count of successfully quoted routes.",
		Buckets: prometheus.LinearBuckets(1, 1, 6),
	})
)

const (
	outcomeFound      = "found"
	outcomeNoRoute    = "no_route"
	outcomeBadRequest = "bad_request"
	outcomeError      = "error"
)
