// SPDX-License-Identifier: Apache-2.0

package stages

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"docpipe/internal/domain"
	"docpipe/internal/testsupport"
)

const invoiceText = `Invoice #42
Bill to: ACME Corp
Amount due: $1,250.00 by 2026-09-15
Late fee $50.00, again $50.00
Contact billing@acme.example for questions.`

func TestExtractorReadsTextFile(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	doc := storeDocument(t, store, domain.Document{
		Filename:         "invoice.txt",
		OriginalFilename: "invoice.txt",
		MimeType:         "text/plain",
		Status:           domain.DocIngested,
	}, []byte(invoiceText))

	extractor := NewExtractor(store, testLogger())
	result, err := extractor.Process(ctx, doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.NextAgent != domain.StageClassifier {
		t.Fatalf("next agent = %s, want %s", result.NextAgent, domain.StageClassifier)
	}

	requireStatus(t, store, doc.ID, domain.DocExtracted)

	updated, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if updated.ExtractedText != invoiceText {
		t.Fatalf("extracted text = %q", updated.ExtractedText)
	}

	wantAmounts := []any{"$1,250.00", "$50.00"}
	if got := updated.Entities["amounts"]; !reflect.DeepEqual(got, wantAmounts) {
		t.Fatalf("amounts = %v, want %v", got, wantAmounts)
	}
	wantDates := []any{"2026-09-15"}
	if got := updated.Entities["dates"]; !reflect.DeepEqual(got, wantDates) {
		t.Fatalf("dates = %v, want %v", got, wantDates)
	}
	wantEmails := []any{"billing@acme.example"}
	if got := updated.Entities["emails"]; !reflect.DeepEqual(got, wantEmails) {
		t.Fatalf("emails = %v, want %v", got, wantEmails)
	}
}

func TestExtractorPlaceholderForBinaryFile(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	doc := storeDocument(t, store, domain.Document{
		Filename:         "scan.pdf",
		OriginalFilename: "scan.pdf",
		MimeType:         "application/pdf",
		Status:           domain.DocIngested,
	}, []byte{0x25, 0x50, 0x44, 0x46})

	extractor := NewExtractor(store, testLogger())
	if _, err := extractor.Process(ctx, doc); err != nil {
		t.Fatalf("Process: %v", err)
	}

	updated, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	want := "[application/pdf] scan.pdf"
	if updated.ExtractedText != want {
		t.Fatalf("extracted text = %q, want %q", updated.ExtractedText, want)
	}
}

func TestExtractorFailsWithoutFilePath(t *testing.T) {
	ctx := context.Background()
	store := testsupport.NewMemoryStore()
	doc := storeDocument(t, store, domain.Document{Filename: "orphan.txt", MimeType: "text/plain"}, nil)

	extractor := NewExtractor(store, testLogger())
	if _, err := extractor.Process(ctx, doc); !errors.Is(err, domain.ErrInvalidStageInput) {
		t.Fatalf("err = %v, want ErrInvalidStageInput", err)
	}

	requireStatus(t, store, doc.ID, domain.DocFailed)
}

func TestExtractEntitiesDedupes(t *testing.T) {
	entities := extractEntities("$10.00 then $10.00 again, mail a@b.co and a@b.co")
	if got := entities["amounts"]; !reflect.DeepEqual(got, []any{"$10.00"}) {
		t.Fatalf("amounts = %v, want single $10.00", got)
	}
	if got := entities["emails"]; !reflect.DeepEqual(got, []any{"a@b.co"}) {
		t.Fatalf("emails = %v, want single a@b.co", got)
	}
	if _, ok := entities["dates"]; ok {
		t.Fatal("dates present, want absent")
	}
}
