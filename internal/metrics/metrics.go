// Package metrics holds the Prometheus collectors for the completion server and
// the index summary reported by status endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lcc_queries_total",
		Help: "Completion queries answered, by filetype.",
	}, []string{"filetype"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lcc_query_seconds",
		Help:    "Time spent ranking identifiers for one completion query.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"filetype"})

	IngestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lcc_ingests_total",
		Help: "Index writes, by operation (file, merge, bulk).",
	}, []string{"operation"})

	ClearsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lcc_clears_total",
		Help: "Files cleared from the index.",
	})

	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lcc_parse_seconds",
		Help:    "Time spent extracting identifiers from a buffer or file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"filetype"})

	ParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lcc_parse_errors_total",
		Help: "Identifier extractions that failed, by filetype.",
	}, []string{"filetype"})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lcc_events_total",
		Help: "Editor event notifications received, by event name.",
	}, []string{"event"})

	WatcherEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lcc_watcher_events_total",
		Help: "File system events processed by the watcher, by operation.",
	}, []string{"op"})

	IndexedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lcc_indexed_files",
		Help: "Files currently held in the identifier index.",
	})

	InternedIdentifiers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lcc_interned_identifiers",
		Help: "Distinct identifier strings held by the candidate repository.",
	})
)
