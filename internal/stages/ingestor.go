// SPDX-License-Identifier: Apache-2.0

package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docpipe/internal/domain"
)

const maxIngestSize = 50 * 1024 * 1024

// Ingestor validates a freshly uploaded document, derives its processing
// priority, and records basic file metadata.
type Ingestor struct {
	agent
}

func NewIngestor(store Store, logger *slog.Logger) *Ingestor {
	return &Ingestor{agent: newAgent(domain.StageIngestor, store, logger)}
}

func (i *Ingestor) Process(ctx context.Context, doc *domain.Document) (domain.StageResult, error) {
	i.logEvent(ctx, doc, domain.EventStarted, domain.EventOK, "Document ingestion started", nil, nil)

	if err := i.validate(doc); err != nil {
		i.markFailed(ctx, doc, err)
		return domain.StageResult{}, err
	}

	priority := i.determinePriority(doc)
	metadata := i.extractMetadata(doc)

	i.updateStatus(ctx, doc, domain.DocIngested, domain.DocumentUpdate{
		Metadata: metadata,
		Priority: &priority,
	})

	i.logEvent(ctx, doc, domain.EventCompleted, domain.EventOK,
		fmt.Sprintf("Document ingested. Priority: %s", priority),
		map[string]any{"priority": priority, "metadata": metadata},
		nil,
	)

	return domain.StageResult{
		Status:    domain.ResultSuccess,
		Priority:  priority,
		NextAgent: domain.StageExtractor,
	}, nil
}

func (i *Ingestor) validate(doc *domain.Document) error {
	if doc == nil || doc.Filename == "" {
		return fmt.Errorf("%w: missing filename", domain.ErrInvalidStageInput)
	}
	if doc.FileSize > maxIngestSize {
		return fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, doc.FileSize)
	}
	if _, err := os.Stat(doc.FilePath); err != nil {
		return fmt.Errorf("%w: file not accessible: %v", domain.ErrInvalidStageInput, err)
	}
	return nil
}

func (i *Ingestor) determinePriority(doc *domain.Document) string {
	if strings.HasSuffix(doc.UserEmail, "@vip.com") {
		return "high"
	}
	if folder, ok := doc.Metadata["folder"].(string); ok && strings.Contains(strings.ToLower(folder), "urgent") {
		return "high"
	}
	if doc.FileSize > 5*1024*1024 {
		return "low"
	}
	switch doc.MimeType {
	case "application/pdf", "image/jpeg", "image/png":
		return "high"
	}
	return "medium"
}

func (i *Ingestor) extractMetadata(doc *domain.Document) map[string]any {
	metadata := make(map[string]any, len(doc.Metadata)+6)
	for key, value := range doc.Metadata {
		metadata[key] = value
	}
	metadata["upload_timestamp"] = time.Now().UTC().Format(time.RFC3339)
	metadata["file_extension"] = filepath.Ext(doc.OriginalFilename)
	metadata["is_image"] = strings.HasPrefix(doc.MimeType, "image/")
	metadata["is_pdf"] = doc.MimeType == "application/pdf"
	metadata["is_text"] = strings.HasPrefix(doc.MimeType, "text/")
	metadata["estimated_pages"] = estimatePages(doc)
	return metadata
}

func estimatePages(doc *domain.Document) int {
	switch {
	case doc.MimeType == "application/pdf":
		// Rough estimate: 1MB of PDF is about 10 pages.
		pages := int(doc.FileSize/(1024*1024)) * 10
		if pages < 1 {
			return 1
		}
		return pages
	default:
		return 1
	}
}
