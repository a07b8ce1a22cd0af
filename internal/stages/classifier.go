// SPDX-License-Identifier: Apache-2.0

package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docpipe/internal/domain"
)

const reviewConfidenceThreshold = 0.3

var typeKeywords = map[string][]string{
	"invoice":  {"invoice", "bill to", "amount due", "payment", "total amount"},
	"contract": {"contract", "agreement", "terms and conditions", "parties", "signatures"},
	"resume":   {"resume", "experience", "skills", "education", "employment"},
	"report":   {"report", "summary", "analysis", "findings", "conclusion"},
}

var complianceKeywords = []string{"confidential", "gdpr", "personal data", "ssn", "social security"}

// Classifier scores the extracted text against a fixed keyword model and
// flags documents for human review when confidence is low, compliance terms
// are present, or the document carries high priority.
type Classifier struct {
	agent
}

func NewClassifier(store Store, logger *slog.Logger) *Classifier {
	return &Classifier{agent: newAgent(domain.StageClassifier, store, logger)}
}

func (c *Classifier) Process(ctx context.Context, doc *domain.Document) (domain.StageResult, error) {
	c.logEvent(ctx, doc, domain.EventStarted, domain.EventOK, "Document classification started", nil, nil)

	if err := c.validate(doc); err != nil {
		c.markFailed(ctx, doc, err)
		return domain.StageResult{}, err
	}

	documentType, confidence := classify(doc.ExtractedText)
	complianceFlags := findComplianceFlags(doc.ExtractedText)

	needsReview := confidence < reviewConfidenceThreshold ||
		len(complianceFlags) > 0 ||
		doc.Priority == "high"

	status := domain.DocClassified
	eventStatus := domain.EventOK
	if needsReview {
		status = domain.DocNeedsReview
		eventStatus = domain.EventWarning
	}

	notes := fmt.Sprintf("classified as %s with %.0f%% confidence", documentType, confidence*100)

	c.updateStatus(ctx, doc, status, domain.DocumentUpdate{
		DocumentType:    &documentType,
		ConfidenceScore: &confidence,
		ComplianceFlags: complianceFlags,
		ProcessingNotes: &notes,
	})

	c.logEvent(ctx, doc, domain.EventCompleted, eventStatus,
		fmt.Sprintf("Document classified as %s (%.1f%% confidence)", documentType, confidence*100),
		map[string]any{
			"document_type":    documentType,
			"confidence_score": confidence,
			"compliance_flags": complianceFlags,
			"needs_review":     needsReview,
		},
		nil,
	)

	return domain.StageResult{
		Status:          domain.ResultSuccess,
		DocumentType:    documentType,
		ConfidenceScore: confidence,
		NeedsReview:     needsReview,
		NextAgent:       domain.StageRouter,
	}, nil
}

func (c *Classifier) validate(doc *domain.Document) error {
	if doc == nil || doc.Filename == "" {
		return fmt.Errorf("%w: missing filename", domain.ErrInvalidStageInput)
	}
	if doc.ExtractedText == "" {
		return fmt.Errorf("%w: no extracted text", domain.ErrInvalidStageInput)
	}
	return nil
}

// classify returns the best-matching document type and a confidence score in
// [0, 1] proportional to how many of the type's keywords appear.
func classify(text string) (string, float64) {
	lowered := strings.ToLower(text)

	bestType := "unknown"
	bestScore := 0.0

	for documentType, keywords := range typeKeywords {
		hits := 0
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				hits++
			}
		}
		score := float64(hits) / float64(len(keywords))
		if score > bestScore || (score == bestScore && score > 0 && documentType < bestType) {
			bestType = documentType
			bestScore = score
		}
	}

	if bestScore == 0 {
		return "unknown", 0
	}
	return bestType, bestScore
}

func findComplianceFlags(text string) []string {
	lowered := strings.ToLower(text)
	flags := make([]string, 0, 2)
	for _, keyword := range complianceKeywords {
		if strings.Contains(lowered, keyword) {
			flags = append(flags, keyword)
		}
	}
	return flags
}
