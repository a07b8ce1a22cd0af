// SPDX-License-Identifier: Apache-2.0

package domain

import "testing"

func TestDocumentStatusConstants(t *testing.T) {
	if DocUploaded != "uploaded" {
		t.Fatalf("unexpected DocUploaded value: %s", DocUploaded)
	}
	if DocIngested != "ingested" {
		t.Fatalf("unexpected DocIngested value: %s", DocIngested)
	}
	if DocExtracted != "extracted" {
		t.Fatalf("unexpected DocExtracted value: %s", DocExtracted)
	}
	if DocClassified != "classified" {
		t.Fatalf("unexpected DocClassified value: %s", DocClassified)
	}
	if DocNeedsReview != "needs_review" {
		t.Fatalf("unexpected DocNeedsReview value: %s", DocNeedsReview)
	}
	if DocRouted != "routed" {
		t.Fatalf("unexpected DocRouted value: %s", DocRouted)
	}
	if DocRoutingFailed != "routing_failed" {
		t.Fatalf("unexpected DocRoutingFailed value: %s", DocRoutingFailed)
	}
	if DocFailed != "failed" {
		t.Fatalf("unexpected DocFailed value: %s", DocFailed)
	}
}

func TestStageConstants(t *testing.T) {
	if StageIngestor != "ingestor" {
		t.Fatalf("unexpected StageIngestor value: %s", StageIngestor)
	}
	if StageExtractor != "extractor" {
		t.Fatalf("unexpected StageExtractor value: %s", StageExtractor)
	}
	if StageClassifier != "classifier" {
		t.Fatalf("unexpected StageClassifier value: %s", StageClassifier)
	}
	if StageRouter != "router" {
		t.Fatalf("unexpected StageRouter value: %s", StageRouter)
	}

	if ResultSuccess != "success" {
		t.Fatalf("unexpected ResultSuccess value: %s", ResultSuccess)
	}
	if ResultError != "error" {
		t.Fatalf("unexpected ResultError value: %s", ResultError)
	}
}

func TestKnownStage(t *testing.T) {
	for _, name := range []StageName{StageIngestor, StageExtractor, StageClassifier, StageRouter} {
		if !KnownStage(name) {
			t.Fatalf("expected %s to be known", name)
		}
	}
	if KnownStage("ocr") {
		t.Fatal("expected ocr to be unknown")
	}
	if KnownStage("") {
		t.Fatal("expected empty name to be unknown")
	}
}
