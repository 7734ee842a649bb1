package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stream_sessions_active",
		Help: "Streaming sessions currently open on this instance.",
	})

	pollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stream_poll_failures_total",
		Help: "Failed or timed-out notification poll ticks.",
	})
)
