// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"time"

	"docpipe/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	documentsTotalCounter    *prometheus.CounterVec
	stageExecutionsCounter   *prometheus.CounterVec
	stageDurationMetric      prometheus.Histogram
	pipelineRunsCounter      *prometheus.CounterVec
	workerClaimLatencyMetric prometheus.Histogram
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		documentsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_total",
				Help: "Total number of document status transitions by status.",
			},
			[]string{"status"},
		)

		stageExecutionsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stage_executions_total",
				Help: "Total number of stage worker invocations by stage and result.",
			},
			[]string{"stage", "result"},
		)

		stageDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stage_duration_seconds",
				Help:    "Duration of stage worker calls in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		pipelineRunsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Total number of completed pipeline runs by final status.",
			},
			[]string{"final_status"},
		)

		workerClaimLatencyMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "worker_claim_latency_seconds",
				Help:    "Latency of worker document claim queries in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		prometheus.MustRegister(
			documentsTotalCounter,
			stageExecutionsCounter,
			stageDurationMetric,
			pipelineRunsCounter,
			workerClaimLatencyMetric,
		)

		// Ensure counter vectors are visible at /metrics before first increment.
		for _, status := range []domain.DocumentStatus{
			domain.DocUploaded,
			domain.DocIngested,
			domain.DocExtracted,
			domain.DocClassified,
			domain.DocNeedsReview,
			domain.DocRouted,
			domain.DocRoutingFailed,
			domain.DocFailed,
		} {
			documentsTotalCounter.WithLabelValues(string(status))
			pipelineRunsCounter.WithLabelValues(string(status))
		}

		for _, stage := range []domain.StageName{
			domain.StageIngestor,
			domain.StageExtractor,
			domain.StageClassifier,
			domain.StageRouter,
		} {
			stageExecutionsCounter.WithLabelValues(string(stage), string(domain.ResultSuccess))
			stageExecutionsCounter.WithLabelValues(string(stage), string(domain.ResultError))
		}
	})
}

func IncDocumentStatus(status domain.DocumentStatus) {
	Init()
	documentsTotalCounter.WithLabelValues(string(status)).Inc()
}

func IncStageExecution(stage domain.StageName, result domain.ResultStatus) {
	Init()
	stageExecutionsCounter.WithLabelValues(string(stage), string(result)).Inc()
}

func ObserveStageDuration(d time.Duration) {
	Init()
	stageDurationMetric.Observe(d.Seconds())
}

func IncPipelineRun(finalStatus domain.DocumentStatus) {
	Init()
	pipelineRunsCounter.WithLabelValues(string(finalStatus)).Inc()
}

func ObserveWorkerClaimLatency(d time.Duration) {
	Init()
	workerClaimLatencyMetric.Observe(d.Seconds())
}
