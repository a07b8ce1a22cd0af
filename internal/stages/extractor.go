// SPDX-License-Identifier: Apache-2.0

package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"docpipe/internal/domain"
)

const maxExtractBytes = 2 * 1024 * 1024

var (
	amountPattern = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d{2})?`)
	datePattern   = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4})\b`)
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// Extractor pulls text content and naive entities out of the stored file.
// Text-like files are read directly; binary formats get a typed placeholder
// so downstream stages still have something to classify on.
type Extractor struct {
	agent
}

func NewExtractor(store Store, logger *slog.Logger) *Extractor {
	return &Extractor{agent: newAgent(domain.StageExtractor, store, logger)}
}

func (e *Extractor) Process(ctx context.Context, doc *domain.Document) (domain.StageResult, error) {
	e.logEvent(ctx, doc, domain.EventStarted, domain.EventOK, "Text extraction started", nil, nil)

	if doc == nil || doc.FilePath == "" {
		err := fmt.Errorf("%w: missing file path", domain.ErrInvalidStageInput)
		e.markFailed(ctx, doc, err)
		return domain.StageResult{}, err
	}

	text, err := e.extractText(doc)
	if err != nil {
		e.markFailed(ctx, doc, err)
		return domain.StageResult{}, err
	}

	entities := extractEntities(text)

	e.updateStatus(ctx, doc, domain.DocExtracted, domain.DocumentUpdate{
		ExtractedText: &text,
		Entities:      entities,
	})

	e.logEvent(ctx, doc, domain.EventCompleted, domain.EventOK,
		fmt.Sprintf("Extracted %d characters", len(text)),
		map[string]any{"characters": len(text), "entities": entities},
		nil,
	)

	return domain.StageResult{
		Status:    domain.ResultSuccess,
		NextAgent: domain.StageClassifier,
	}, nil
}

func (e *Extractor) extractText(doc *domain.Document) (string, error) {
	if !textLike(doc) {
		return fmt.Sprintf("[%s] %s", doc.MimeType, doc.OriginalFilename), nil
	}

	raw, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if len(raw) > maxExtractBytes {
		raw = raw[:maxExtractBytes]
	}
	if !utf8.Valid(raw) {
		return fmt.Sprintf("[%s] %s", doc.MimeType, doc.OriginalFilename), nil
	}
	return string(raw), nil
}

func textLike(doc *domain.Document) bool {
	if strings.HasPrefix(doc.MimeType, "text/") {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.OriginalFilename), ".txt")
}

func extractEntities(text string) map[string]any {
	entities := make(map[string]any, 3)
	if amounts := dedupe(amountPattern.FindAllString(text, 10)); len(amounts) > 0 {
		entities["amounts"] = amounts
	}
	if dates := dedupe(datePattern.FindAllString(text, 10)); len(dates) > 0 {
		entities["dates"] = dates
	}
	if emails := dedupe(emailPattern.FindAllString(text, 10)); len(emails) > 0 {
		entities["emails"] = emails
	}
	return entities
}

func dedupe(values []string) []any {
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
