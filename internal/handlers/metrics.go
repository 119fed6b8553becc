package handlers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type DispatchMetrics struct {
	Requests   *prometheus.CounterVec
	Recipients *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

func (m *DispatchMetrics) IncRequest(channel, status string) {
	if m == nil || m.Requests == nil {
		return
	}

	m.Requests.WithLabelValues(channel, status).Inc()
}

func (m *DispatchMetrics) AddRecipients(channel, status string, n int) {
	if m == nil || m.Recipients == nil || n <= 0 {
		return
	}

	m.Recipients.WithLabelValues(channel, status).Add(float64(n))
}

func (m *DispatchMetrics) ObserveDuration(channel string, d time.Duration) {
	if m == nil || m.Duration == nil {
		return
	}

	m.Duration.WithLabelValues(channel).Observe(d.Seconds())
}
