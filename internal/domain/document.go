package domain

import "time"

type DocumentStatus string

const (
	DocUploaded      DocumentStatus = "uploaded"
	DocIngested      DocumentStatus = "ingested"
	DocExtracted     DocumentStatus = "extracted"
	DocClassified    DocumentStatus = "classified"
	DocNeedsReview   DocumentStatus = "needs_review"
	DocRouted        DocumentStatus = "routed"
	DocRoutingFailed DocumentStatus = "routing_failed"
	DocCompleted     DocumentStatus = "completed"
	DocFailed        DocumentStatus = "failed"
)

type Document struct {
	ID                  string                      `json:"id"`
	Status              DocumentStatus              `json:"status"`
	Filename            string                      `json:"filename"`
	OriginalFilename    string                      `json:"original_filename"`
	FilePath            string                      `json:"file_path"`
	FileSize            int64                       `json:"file_size"`
	MimeType            string                      `json:"mime_type"`
	UserID              string                      `json:"user_id"`
	UserEmail           string                      `json:"user_email"`
	UserRole            string                      `json:"user_role"`
	DocumentType        string                      `json:"document_type,omitempty"`
	ConfidenceScore     *float64                    `json:"confidence_score,omitempty"`
	Priority            string                      `json:"priority,omitempty"`
	Entities            map[string]any              `json:"entities,omitempty"`
	Metadata            map[string]any              `json:"metadata,omitempty"`
	ComplianceFlags     []string                    `json:"compliance_flags,omitempty"`
	ExtractedText       string                      `json:"extracted_text,omitempty"`
	RoutingDestination  string                      `json:"routing_destination,omitempty"`
	ProcessingNotes     string                      `json:"processing_notes,omitempty"`
	TotalProcessingTime *float64                    `json:"total_processing_time,omitempty"`
	AgentResults        map[StageName]StageResult   `json:"agent_results,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// DocumentUpdate is a partial update. Nil fields are left untouched; map and
// slice fields replace the stored value when non-nil.
type DocumentUpdate struct {
	Status              *DocumentStatus
	DocumentType        *string
	ConfidenceScore     *float64
	Priority            *string
	Entities            map[string]any
	Metadata            map[string]any
	ComplianceFlags     []string
	ExtractedText       *string
	RoutingDestination  *string
	ProcessingNotes     *string
	TotalProcessingTime *float64
	AgentResults        map[StageName]StageResult
}

type ListFilters struct {
	Status       DocumentStatus
	DocumentType string
	UserID       string
	UserEmail    string
	UserRole     string
}
