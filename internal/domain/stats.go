// SPDX-License-Identifier: Apache-2.0

package domain

// AgentEventSummary is the latest event recorded by one stage worker.
type AgentEventSummary struct {
	Status         EventStatus `json:"status"`
	EventType      EventType   `json:"event_type"`
	Message        string      `json:"message,omitempty"`
	ProcessingTime *float64    `json:"processing_time,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

type ProcessingStatus struct {
	DocumentID          string                          `json:"document_id"`
	CurrentStatus       DocumentStatus                  `json:"current_status"`
	AgentStatuses       map[StageName]AgentEventSummary `json:"agent_statuses"`
	TotalEvents         int                             `json:"total_events"`
	DocumentType        string                          `json:"document_type,omitempty"`
	ConfidenceScore     *float64                        `json:"confidence_score,omitempty"`
	Priority            string                          `json:"priority,omitempty"`
	RoutingDestination  string                          `json:"routing_destination,omitempty"`
	TotalProcessingTime *float64                        `json:"total_processing_time,omitempty"`
}

type PipelineStatistics struct {
	TotalDocuments        int                    `json:"total_documents"`
	StatusDistribution    map[DocumentStatus]int `json:"status_distribution"`
	DocumentTypes         map[string]int         `json:"document_type_distribution"`
	AverageProcessingTime float64                `json:"average_processing_time"`
	SuccessRate           float64                `json:"success_rate"`
}

// PipelineSummary is the coarse rollup served by the statistics endpoint.
type PipelineSummary struct {
	TotalDocuments      int     `json:"total_documents"`
	CompletedDocuments  int     `json:"completed_documents"`
	ProcessingDocuments int     `json:"processing_documents"`
	FailedDocuments     int     `json:"failed_documents"`
	SuccessRate         float64 `json:"success_rate"`
}
