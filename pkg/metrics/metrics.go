package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mjpegview"

// Exit reasons used as values of the "reason" label of PlayerExits.
const (
	ExitReasonEnded   = "ended"
	ExitReasonStopped = "stopped"
	ExitReasonFailed  = "failed"
)

type Metrics struct {
	FramesPublished   prometheus.Counter
	DecodeAttempts    prometheus.Counter
	DecodeFailures    prometheus.Counter
	BufferAllocations prometheus.Counter
	FramesPerSecond   prometheus.Gauge
	PlayerExits       *prometheus.CounterVec
}

// New creates the collectors and registers them if reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "frames_published_total",
			Help:      "Frames handed over to the consumer.",
		}),
		DecodeAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "attempts_total",
			Help:      "Segments the decoder tried to decode.",
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "failures_total",
			Help:      "Segments that could not be decoded and were skipped.",
		}),
		BufferAllocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "buffer_allocations_total",
			Help:      "Frame backing buffers allocated (not reused).",
		}),
		FramesPerSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "frames_per_second",
			Help:      "The last frame rate sample; zero when stopped.",
		}),
		PlayerExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "exits_total",
			Help:      "Producer loop terminations by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.FramesPublished,
			m.DecodeAttempts,
			m.DecodeFailures,
			m.BufferAllocations,
			m.FramesPerSecond,
			m.PlayerExits,
		)
	}
	return m
}
