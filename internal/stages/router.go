// SPDX-License-Identifier: Apache-2.0

package stages

import (
	"context"
	"fmt"
	"log/slog"

	"docpipe/internal/domain"
)

const fallbackDestination = "general_archive"

var destinationsByType = map[string]string{
	"invoice":  "accounting_system",
	"contract": "legal_review",
	"resume":   "hr_system",
	"report":   "management_dashboard",
}

// Deliverer performs the actual routing action against a destination. It is
// injected so tests and alternative backends can fail or divert deliveries.
type Deliverer interface {
	Deliver(ctx context.Context, doc *domain.Document, destination, priority string) error
}

// LogDeliverer is the default delivery backend: it only records the routing
// decision, matching a deployment where the destination systems poll.
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d LogDeliverer) Deliver(ctx context.Context, doc *domain.Document, destination, priority string) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("routing document",
		"document_id", doc.ID,
		"destination", destination,
		"priority", priority,
	)
	return nil
}

// Router picks a destination from the classified document type and delivers
// the document there, falling back once to the archive destination when the
// primary delivery fails.
type Router struct {
	agent
	deliverer Deliverer
}

func NewRouter(store Store, deliverer Deliverer, logger *slog.Logger) *Router {
	r := &Router{agent: newAgent(domain.StageRouter, store, logger)}
	if deliverer == nil {
		deliverer = LogDeliverer{Logger: r.logger}
	}
	r.deliverer = deliverer
	return r
}

func (r *Router) Process(ctx context.Context, doc *domain.Document) (domain.StageResult, error) {
	r.logEvent(ctx, doc, domain.EventStarted, domain.EventOK, "Document routing started", nil, nil)

	if err := r.validate(doc); err != nil {
		r.markFailed(ctx, doc, err)
		return domain.StageResult{}, err
	}

	destination := destinationFor(doc.DocumentType)
	priority := doc.Priority
	if priority == "" {
		priority = "medium"
	}

	routed := destination
	fallbackUsed := false

	routingErr := r.deliverer.Deliver(ctx, doc, destination, priority)
	if routingErr != nil && fallbackDestination != destination {
		r.logger.Warn("primary routing failed, trying fallback",
			"document_id", doc.ID,
			"destination", destination,
			"fallback", fallbackDestination,
			"error", routingErr,
		)
		fallbackUsed = true
		routed = fallbackDestination
		routingErr = r.deliverer.Deliver(ctx, doc, fallbackDestination, "low")
	}

	routingSuccess := routingErr == nil

	status := domain.DocRouted
	eventStatus := domain.EventOK
	message := fmt.Sprintf("Document routed to %s with %s priority", routed, priority)
	if !routingSuccess {
		status = domain.DocRoutingFailed
		eventStatus = domain.EventError
		message = fmt.Sprintf("Document routing to %s failed", routed)
	}

	r.updateStatus(ctx, doc, status, domain.DocumentUpdate{
		RoutingDestination: &routed,
	})

	r.logEvent(ctx, doc, domain.EventCompleted, eventStatus, message,
		map[string]any{
			"destination":     routed,
			"priority":        priority,
			"routing_success": routingSuccess,
			"fallback_used":   fallbackUsed,
		},
		nil,
	)

	return domain.StageResult{
		Status:         domain.ResultSuccess,
		Destination:    routed,
		Priority:       priority,
		RoutingSuccess: routingSuccess,
		FallbackUsed:   fallbackUsed,
	}, nil
}

func (r *Router) validate(doc *domain.Document) error {
	if doc == nil || doc.Filename == "" {
		return fmt.Errorf("%w: missing filename", domain.ErrInvalidStageInput)
	}
	switch doc.Status {
	case domain.DocClassified, domain.DocNeedsReview, domain.DocRouted:
	default:
		return fmt.Errorf("%w: document not classified yet (status %s)", domain.ErrInvalidStageInput, doc.Status)
	}
	if doc.DocumentType == "" {
		return fmt.Errorf("%w: missing document type", domain.ErrInvalidStageInput)
	}
	return nil
}

func destinationFor(documentType string) string {
	if destination, ok := destinationsByType[documentType]; ok {
		return destination
	}
	return fallbackDestination
}
