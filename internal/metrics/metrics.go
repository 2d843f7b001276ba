package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesSplit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlsight_pages_split_total",
		Help: "Pages produced by the media fetcher.",
	})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlsight_submissions_total",
		Help: "Extraction submissions by outcome.",
	}, []string{"status"})

	Results = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlsight_results_total",
		Help: "Resolved extraction results by terminal outcome.",
	}, []string{"status"})

	PollAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlsight_poll_attempts_total",
		Help: "Result polls issued against the document-AI service.",
	})

	RecordsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlsight_records_persisted_total",
		Help: "Extraction results written to the listings store.",
	})
)
