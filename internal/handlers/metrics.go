package handlers

import "github.com/prometheus/client_golang/prometheus"

type CalendarMetrics struct {
	RunRequests   *prometheus.CounterVec
	DegradedRuns  prometheus.Counter
	DraftRequests *prometheus.CounterVec
}

func (m *CalendarMetrics) IncRun(status string) {
	if m == nil || m.RunRequests == nil {
		return
	}

	m.RunRequests.WithLabelValues(status).Inc()
}

func (m *CalendarMetrics) IncDegraded() {
	if m == nil || m.DegradedRuns == nil {
		return
	}

	m.DegradedRuns.Inc()
}

func (m *CalendarMetrics) IncDraft(status string) {
	if m == nil || m.DraftRequests == nil {
		return
	}

	m.DraftRequests.WithLabelValues(status).Inc()
}
