package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	registry *prometheus.Registry
	ingest   *prometheus.CounterVec
	commits  *prometheus.CounterVec
	rows     prometheus.Histogram
	sessions prometheus.GaugeFunc
}

func newMetrics(sessions func() float64) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		ingest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trendloom",
			Name:      "ingest_total",
			Help:      "Uploaded files by outcome.",
		}, []string{"result"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trendloom",
			Name:      "edit_commits_total",
			Help:      "Edit commits by outcome.",
		}, []string{"result"}),
		rows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trendloom",
			Name:      "ingested_rows",
			Help:      "Row counts of accepted uploads.",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),
		sessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "trendloom",
			Name:      "sessions",
			Help:      "Live browser sessions.",
		}, sessions),
	}
	m.registry.MustRegister(
		m.ingest, m.commits, m.rows, m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
