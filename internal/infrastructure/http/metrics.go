package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/validation"
)

// metrics are the validation counters exposed on /metrics.
type metrics struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	issues    *prometheus.CounterVec
	sentences prometheus.Counter
	duration  prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conllu",
			Name:      "validation_runs_total",
			Help:      "Validation requests by outcome (pass, fail, invalid).",
		}, []string{"result"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conllu",
			Name:      "validation_issues_total",
			Help:      "Structural issues found, by rule.",
		}, []string{"rule"}),
		sentences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "conllu",
			Name:      "validated_sentences_total",
			Help:      "Sentences checked.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "conllu",
			Name:      "validation_duration_seconds",
			Help:      "Time spent parsing and validating one artifact.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.issues, m.sentences, m.duration,
	)
	return m
}

func (m *metrics) observe(r validation.Report, seconds float64) {
	result := "pass"
	if !r.Pass {
		result = "fail"
	}
	m.runs.WithLabelValues(result).Inc()
	m.sentences.Add(float64(r.Sentences))
	for _, rc := range r.ByRule {
		if rc.Count > 0 {
			m.issues.WithLabelValues(string(rc.Rule)).Add(float64(rc.Count))
		}
	}
	m.duration.Observe(seconds)
}

func (m *metrics) invalid() {
	m.runs.WithLabelValues("invalid").Inc()
}
