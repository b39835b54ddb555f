// Package metrics exposes the Prometheus collectors of a naivechain node.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chainLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "naivechain",
		Subsystem: "chain",
		Name:      "length",
		Help:      "Number of blocks in the canonical chain, genesis included.",
	})

	chainReplacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "naivechain",
		Subsystem: "chain",
		Name:      "replaced_total",
		Help:      "Count of canonical chain replacements by a longer valid chain.",
	})

	blocksMinedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "naivechain",
		Subsystem: "chain",
		Name:      "mined_total",
		Help:      "Count of blocks produced locally.",
	}, []string{"status"})

	blocksRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "naivechain",
		Subsystem: "chain",
		Name:      "rejected_total",
		Help:      "Count of blocks and chains rejected, by failed check.",
	}, []string{"reason"})

	peersOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "naivechain",
		Subsystem: "gossip",
		Name:      "peers",
		Help:      "Number of open peer connections.",
	})

	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "naivechain",
		Subsystem: "gossip",
		Name:      "messages_total",
		Help:      "Count of gossip messages received, by type.",
	}, []string{"type"})

	messagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "naivechain",
		Subsystem: "gossip",
		Name:      "messages_dropped_total",
		Help:      "Count of incoming messages that could not be decoded.",
	})
)

// SetChainLength records the length of the canonical chain.
func SetChainLength(n int) {
	chainLength.Set(float64(n))
}

// ObserveReplaced records a chain replacement.
func ObserveReplaced() {
	chainReplacedTotal.Inc()
}

// ObserveMined records the outcome of a local mining request.
func ObserveMined(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	blocksMinedTotal.WithLabelValues(status).Inc()
}

// ObserveRejected records a rejected block or chain.
func ObserveRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	blocksRejectedTotal.WithLabelValues(reason).Inc()
}

// SetPeers records the number of open peers.
func SetPeers(n int) {
	peersOpen.Set(float64(n))
}

// ObserveMessage records a received message of the given type.
func ObserveMessage(msgType string) {
	messagesTotal.WithLabelValues(msgType).Inc()
}

// ObserveDropped records an undecodable message.
func ObserveDropped() {
	messagesDroppedTotal.Inc()
}
