// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"math"

	"docpipe/internal/domain"
)

// Statistics scans all stored documents and rolls up status and type
// distributions, the average total processing time over documents that have
// one, and the success rate. An empty store yields a 0.0 rate, not a
// division error.
func (o *Orchestrator) Statistics(ctx context.Context) (domain.PipelineStatistics, error) {
	docs, err := o.store.ListDocuments(ctx, domain.ListFilters{})
	if err != nil {
		return domain.PipelineStatistics{}, err
	}

	stats := domain.PipelineStatistics{
		TotalDocuments:     len(docs),
		StatusDistribution: make(map[domain.DocumentStatus]int, 8),
		DocumentTypes:      make(map[string]int, 8),
	}

	var timeSum float64
	var timeCount int

	for _, doc := range docs {
		stats.StatusDistribution[doc.Status]++

		docType := doc.DocumentType
		if docType == "" {
			docType = "unknown"
		}
		stats.DocumentTypes[docType]++

		if doc.TotalProcessingTime != nil {
			timeSum += *doc.TotalProcessingTime
			timeCount++
		}
	}

	if timeCount > 0 {
		stats.AverageProcessingTime = timeSum / float64(timeCount)
	}
	stats.SuccessRate = successRate(stats.StatusDistribution)

	return stats, nil
}

func successRate(statusCounts map[domain.DocumentStatus]int) float64 {
	total := 0
	for _, count := range statusCounts {
		total += count
	}
	if total == 0 {
		return 0.0
	}

	successful := statusCounts[domain.DocRouted] +
		statusCounts[domain.DocCompleted] +
		statusCounts[domain.DocClassified]

	return float64(successful) / float64(total) * 100
}

// Summary is the coarse rollup behind the statistics endpoint: in-flight
// versus terminal buckets and a completion rate rounded to one decimal.
func (o *Orchestrator) Summary(ctx context.Context) (domain.PipelineSummary, error) {
	docs, err := o.store.ListDocuments(ctx, domain.ListFilters{})
	if err != nil {
		return domain.PipelineSummary{}, err
	}
	return summarize(docs), nil
}

// UserSummary is Summary scoped to one uploader.
func (o *Orchestrator) UserSummary(ctx context.Context, userEmail string) (domain.PipelineSummary, error) {
	docs, err := o.store.ListDocuments(ctx, domain.ListFilters{UserEmail: userEmail})
	if err != nil {
		return domain.PipelineSummary{}, err
	}
	return summarize(docs), nil
}

func summarize(docs []domain.Document) domain.PipelineSummary {
	summary := domain.PipelineSummary{TotalDocuments: len(docs)}

	for _, doc := range docs {
		switch doc.Status {
		case domain.DocCompleted, domain.DocRouted:
			summary.CompletedDocuments++
		case domain.DocUploaded, domain.DocIngested, domain.DocExtracted, domain.DocClassified:
			summary.ProcessingDocuments++
		case domain.DocFailed, domain.DocRoutingFailed:
			summary.FailedDocuments++
		}
	}

	if summary.TotalDocuments > 0 {
		rate := float64(summary.CompletedDocuments) / float64(summary.TotalDocuments) * 100
		summary.SuccessRate = math.Round(rate*10) / 10
	}

	return summary
}
