package domain

type StageName string
type ResultStatus string

const (
	StageIngestor   StageName = "ingestor"
	StageExtractor  StageName = "extractor"
	StageClassifier StageName = "classifier"
	StageRouter     StageName = "router"
)

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// KnownStage reports whether name identifies one of the fixed stage workers.
func KnownStage(name StageName) bool {
	switch name {
	case StageIngestor, StageExtractor, StageClassifier, StageRouter:
		return true
	}
	return false
}

// StageResult is the uniform outcome every stage worker returns. It is never
// persisted on its own, only folded into Document.AgentResults.
type StageResult struct {
	Status          ResultStatus `json:"status"`
	NextAgent       StageName    `json:"next_agent,omitempty"`
	ProcessingTime  float64      `json:"processing_time"`
	NeedsReview     bool         `json:"needs_review,omitempty"`
	DocumentType    string       `json:"document_type,omitempty"`
	ConfidenceScore float64      `json:"confidence_score,omitempty"`
	Priority        string       `json:"priority,omitempty"`
	Destination     string       `json:"destination,omitempty"`
	RoutingSuccess  bool         `json:"routing_success,omitempty"`
	FallbackUsed    bool         `json:"fallback_used,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// PipelineStageConfig is one entry of the externally configured stage order.
type PipelineStageConfig struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type PipelineConfig struct {
	Stages []PipelineStageConfig `json:"pipeline"`
}
