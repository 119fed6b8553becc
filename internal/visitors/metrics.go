package visitors

import "github.com/prometheus/client_golang/prometheus"

const (
	statusRecorded     = "recorded"
	statusSinkError    = "sink_error"
	statusDropped      = "dropped"
	statusUnconfigured = "unconfigured"
)

type Metrics struct {
	Events *prometheus.CounterVec
}

func (m *Metrics) IncEvent(status string) {
	if m == nil || m.Events == nil {
		return
	}

	m.Events.WithLabelValues(status).Inc()
}
