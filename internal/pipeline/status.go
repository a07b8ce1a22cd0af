// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"time"

	"docpipe/internal/domain"
)

// FinalStatus derives a document's canonical status from the accumulated
// stage results, most specific first. It is a pure function of the results
// map: the same map always yields the same status.
func FinalStatus(results map[domain.StageName]domain.StageResult) domain.DocumentStatus {
	if len(results) == 0 {
		return domain.DocFailed
	}

	for _, result := range results {
		if result.Status == domain.ResultError {
			return domain.DocFailed
		}
	}

	if router, ok := results[domain.StageRouter]; ok && router.Status == domain.ResultSuccess {
		if router.RoutingSuccess {
			return domain.DocRouted
		}
		return domain.DocRoutingFailed
	}

	if classifier, ok := results[domain.StageClassifier]; ok && classifier.Status == domain.ResultSuccess {
		if classifier.NeedsReview {
			return domain.DocNeedsReview
		}
		return domain.DocClassified
	}

	if extractor, ok := results[domain.StageExtractor]; ok && extractor.Status == domain.ResultSuccess {
		return domain.DocExtracted
	}

	if ingestor, ok := results[domain.StageIngestor]; ok && ingestor.Status == domain.ResultSuccess {
		return domain.DocIngested
	}

	return domain.DocFailed
}

// GetProcessingStatus reports the current status of a document together with
// the latest audit event per stage and the total event count.
func (o *Orchestrator) GetProcessingStatus(ctx context.Context, documentID string) (domain.ProcessingStatus, error) {
	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return domain.ProcessingStatus{}, err
	}

	events, err := o.store.ListEvents(ctx, documentID)
	if err != nil {
		return domain.ProcessingStatus{}, err
	}

	agentStatuses := make(map[domain.StageName]domain.AgentEventSummary, 4)
	for _, event := range events {
		// Events arrive ordered by creation time, so the last write per
		// agent is the latest.
		agentStatuses[event.AgentName] = domain.AgentEventSummary{
			Status:         event.Status,
			EventType:      event.EventType,
			Message:        event.Message,
			ProcessingTime: event.ProcessingTime,
			Timestamp:      event.CreatedAt.Format(time.RFC3339Nano),
		}
	}

	return domain.ProcessingStatus{
		DocumentID:          documentID,
		CurrentStatus:       doc.Status,
		AgentStatuses:       agentStatuses,
		TotalEvents:         len(events),
		DocumentType:        doc.DocumentType,
		ConfidenceScore:     doc.ConfidenceScore,
		Priority:            doc.Priority,
		RoutingDestination:  doc.RoutingDestination,
		TotalProcessingTime: doc.TotalProcessingTime,
	}, nil
}
