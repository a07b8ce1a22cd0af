// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"

	"docpipe/internal/domain"
)

// Step is one entry of the pipeline definition: the stage to run, its worker,
// and the status a document is expected to carry when the stage starts.
type Step struct {
	Name           domain.StageName
	Worker         Stage
	RequiredStatus domain.DocumentStatus
}

func (o *Orchestrator) defaultSteps() []Step {
	return []Step{
		{Name: domain.StageIngestor, Worker: o.workers[domain.StageIngestor], RequiredStatus: domain.DocUploaded},
		{Name: domain.StageExtractor, Worker: o.workers[domain.StageExtractor], RequiredStatus: domain.DocIngested},
		{Name: domain.StageClassifier, Worker: o.workers[domain.StageClassifier], RequiredStatus: domain.DocExtracted},
		{Name: domain.StageRouter, Worker: o.workers[domain.StageRouter], RequiredStatus: domain.DocClassified},
	}
}

// definition resolves the stage order for this run. A configured order from
// the store wins when it names at least one known stage; unknown names are
// dropped with a warning rather than rejected, matching the behavior callers
// already depend on. Anything else falls back to the built-in order.
func (o *Orchestrator) definition(ctx context.Context) []Step {
	cfg, err := o.store.GetPipelineConfig(ctx)
	if err != nil {
		o.logger.Warn("pipeline config unavailable, using default order", "error", err)
		return o.defaultSteps()
	}

	if len(cfg.Stages) == 0 {
		return o.defaultSteps()
	}

	steps := make([]Step, 0, len(cfg.Stages))
	for _, stage := range cfg.Stages {
		name := domain.StageName(stage.Name)
		worker, ok := o.workers[name]
		if !ok {
			o.logger.Warn("unknown stage in pipeline config dropped", "stage", stage.Name)
			continue
		}
		steps = append(steps, Step{
			Name:           name,
			Worker:         worker,
			RequiredStatus: domain.DocumentStatus(stage.Status),
		})
	}

	if len(steps) == 0 {
		o.logger.Warn("pipeline config named no known stages, using default order")
		return o.defaultSteps()
	}

	return steps
}

// resetStatusForIndex maps a pipeline index to the status a document must be
// reset to before reprocessing from that index.
func resetStatusForIndex(index int) domain.DocumentStatus {
	switch index {
	case 0:
		return domain.DocUploaded
	case 1:
		return domain.DocIngested
	case 2:
		return domain.DocExtracted
	case 3:
		return domain.DocClassified
	default:
		return domain.DocUploaded
	}
}
