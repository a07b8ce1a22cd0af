// SPDX-License-Identifier: Apache-2.0

package stages

import (
	"context"
	"errors"
	"testing"

	"docpipe/internal/domain"
	"docpipe/internal/testsupport"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantType       string
		wantConfidence float64
	}{
		{
			name:           "invoice keywords",
			text:           "Invoice. Bill to ACME. Amount due and total amount enclosed, awaiting payment.",
			wantType:       "invoice",
			wantConfidence: 1.0,
		},
		{
			name:           "contract keywords",
			text:           "This agreement between the parties lays out terms and conditions.",
			wantType:       "contract",
			wantConfidence: 0.6,
		},
		{
			name:           "no keywords",
			text:           "nothing recognizable in here",
			wantType:       "unknown",
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			documentType, confidence := classify(tt.text)
			if documentType != tt.wantType {
				t.Fatalf("type = %s, want %s", documentType, tt.wantType)
			}
			if confidence != tt.wantConfidence {
				t.Fatalf("confidence = %v, want %v", confidence, tt.wantConfidence)
			}
		})
	}
}

func TestClassifierProcessClassified(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	doc := storeDocument(t, store, domain.Document{
		Filename:      "invoice.txt",
		Status:        domain.DocExtracted,
		Priority:      "medium",
		ExtractedText: "Invoice. Bill to ACME. Amount due and total amount, payment enclosed.",
	}, nil)

	classifier := NewClassifier(store, testLogger())
	result, err := classifier.Process(ctx, doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.DocumentType != "invoice" {
		t.Fatalf("document type = %s, want invoice", result.DocumentType)
	}
	if result.NeedsReview {
		t.Fatal("needs review, want confident classification")
	}
	if result.NextAgent != domain.StageRouter {
		t.Fatalf("next agent = %s, want %s", result.NextAgent, domain.StageRouter)
	}

	requireStatus(t, store, doc.ID, domain.DocClassified)

	updated, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if updated.ConfidenceScore == nil || *updated.ConfidenceScore != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", updated.ConfidenceScore)
	}
	if updated.ProcessingNotes == "" {
		t.Fatal("processing notes not recorded")
	}
}

func TestClassifierNeedsReview(t *testing.T) {
	tests := []struct {
		name string
		doc  domain.Document
	}{
		{
			name: "low confidence",
			doc: domain.Document{
				Filename:      "mystery.txt",
				Status:        domain.DocExtracted,
				Priority:      "medium",
				ExtractedText: "nothing recognizable in here",
			},
		},
		{
			name: "compliance flag",
			doc: domain.Document{
				Filename:      "invoice.txt",
				Status:        domain.DocExtracted,
				Priority:      "medium",
				ExtractedText: "Invoice. Bill to ACME. Amount due, total amount, payment. Marked confidential.",
			},
		},
		{
			name: "high priority",
			doc: domain.Document{
				Filename:      "invoice.txt",
				Status:        domain.DocExtracted,
				Priority:      "high",
				ExtractedText: "Invoice. Bill to ACME. Amount due, total amount, payment enclosed.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := testsupport.NewMemoryStore()
			doc := storeDocument(t, store, tt.doc, nil)

			classifier := NewClassifier(store, testLogger())
			result, err := classifier.Process(ctx, doc)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !result.NeedsReview {
				t.Fatal("NeedsReview = false, want true")
			}
			requireStatus(t, store, doc.ID, domain.DocNeedsReview)

			event := lastEvent(t, store, doc.ID)
			if event.Status != domain.EventWarning {
				t.Fatalf("event status = %s, want %s", event.Status, domain.EventWarning)
			}
		})
	}
}

func TestClassifierComplianceFlags(t *testing.T) {
	flags := findComplianceFlags("Contains Personal Data and an SSN, treat as CONFIDENTIAL.")
	want := map[string]bool{"confidential": true, "personal data": true, "ssn": true}
	if len(flags) != len(want) {
		t.Fatalf("flags = %v, want %d entries", flags, len(want))
	}
	for _, flag := range flags {
		if !want[flag] {
			t.Fatalf("unexpected flag %q", flag)
		}
	}
}

func TestClassifierRejectsEmptyText(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	doc := storeDocument(t, store, domain.Document{
		Filename: "empty.txt",
		Status:   domain.DocExtracted,
	}, nil)

	classifier := NewClassifier(store, testLogger())
	if _, err := classifier.Process(ctx, doc); !errors.Is(err, domain.ErrInvalidStageInput) {
		t.Fatalf("err = %v, want ErrInvalidStageInput", err)
	}
	requireStatus(t, store, doc.ID, domain.DocFailed)
}
