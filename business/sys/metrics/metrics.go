// Package metrics constructs the prometheus metrics the node exposes.
package metrics

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusRequests    prometheus.Counter
	prometheusErrors      prometheus.Counter
	prometheusPanics      prometheus.Counter
	prometheusGoroutines  prometheus.Gauge
	prometheusChainLength prometheus.Gauge
	prometheusPending     prometheus.Gauge
	prometheusBlocksMined prometheus.Counter
	prometheusTxAdmitted  prometheus.Counter
	prometheusTxRejected  *prometheus.CounterVec

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

// Init registers the metrics with the default prometheus registry. It is
// safe to call more than once.
func Init() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "http_requests",
			Help:      "Number of http requests handled",
		},
	)
	prometheusErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "http_errors",
			Help:      "Number of http requests that returned an error",
		},
	)
	prometheusPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "http_panics",
			Help:      "Number of panics recovered while handling requests",
		},
	)
	prometheusGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Name:      "goroutines",
			Help:      "Number of goroutines sampled every 100 requests",
		},
	)
	prometheusChainLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Name:      "chain_length",
			Help:      "Number of blocks in the chain, genesis included",
		},
	)
	prometheusPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Name:      "pending_transactions",
			Help:      "Number of transactions waiting in the mempool",
		},
	)
	prometheusBlocksMined = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "blocks_mined",
			Help:      "Number of blocks mined by this node",
		},
	)
	prometheusTxAdmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "tx_admitted",
			Help:      "Number of transactions admitted to the mempool",
		},
	)
	prometheusTxRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "tx_rejected",
			Help:      "Number of transactions rejected by admission",
		},
		[]string{
			"reason", // error returned by admission
		},
	)
}

// AddRequests increments the request count and every 100 requests samples
// the goroutine count.
func AddRequests() int64 {
	Init()
	prometheusRequests.Inc()

	n := requests.Add(1)
	if n%100 == 0 {
		prometheusGoroutines.Set(float64(runtime.NumGoroutine()))
	}

	return n
}

// AddErrors increments the errors metric.
func AddErrors() {
	Init()
	prometheusErrors.Inc()
}

// AddPanics increments the panics metric.
func AddPanics() {
	Init()
	prometheusPanics.Inc()
}

// SetChain records the chain length and the size of the mempool.
func SetChain(length int, pending int) {
	Init()
	prometheusChainLength.Set(float64(length))
	prometheusPending.Set(float64(pending))
}

// AddBlockMined increments the mined blocks metric.
func AddBlockMined() {
	Init()
	prometheusBlocksMined.Inc()
}

// AddTxAdmitted increments the admitted transactions metric.
func AddTxAdmitted() {
	Init()
	prometheusTxAdmitted.Inc()
}

// AddTxRejected increments the rejected transactions metric for the reason.
func AddTxRejected(reason string) {
	Init()
	prometheusTxRejected.WithLabelValues(reason).Inc()
}

// requests tracks the local request count used for goroutine sampling.
var requests atomic.Int64
