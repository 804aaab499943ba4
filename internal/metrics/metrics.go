// Package metrics exposes prometheus counters for the engine, mirroring the
// runZeroInc sockstats/conniver tools' use of client_golang for socket-level
// gauges. The core never starts its own HTTP listener; an embedder registers
// these against its own mux if it wants to scrape them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PacketsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subspace_client",
		Name:      "packets_sent_total",
		Help:      "UDP packets sent by the engine.",
	})
	PacketsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subspace_client",
		Name:      "packets_received_total",
		Help:      "UDP packets received by the engine.",
	})
	BytesEncrypted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subspace_client",
		Name:      "bytes_encrypted_total",
		Help:      "Bytes passed through the VIE cipher on send.",
	})
	Retransmits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subspace_client",
		Name:      "reliable_retransmits_total",
		Help:      "Reliable messages retransmitted after timeout.",
	})
	ReliableQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "subspace_client",
		Name:      "reliable_sent_queue_depth",
		Help:      "Number of unacked reliable messages currently parked.",
	})
)

// Registry bundles the engine's collectors for an embedder to register.
func Registry() []prometheus.Collector {
	return []prometheus.Collector{
		PacketsSent, PacketsReceived, BytesEncrypted, Retransmits, ReliableQueueDepth,
	}
}
