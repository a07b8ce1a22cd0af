// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"log/slog"

	"docpipe/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PipelineConfigRepository stores the single pipeline definition row.
type PipelineConfigRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPipelineConfigRepository(pool *pgxpool.Pool, logger *slog.Logger) *PipelineConfigRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PipelineConfigRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *PipelineConfigRepository) GetPipelineConfig(ctx context.Context) (domain.PipelineConfig, error) {
	var stages []domain.PipelineStageConfig

	err := r.pool.QueryRow(ctx, `SELECT stages FROM pipeline_config WHERE id=1`).Scan(&stages)
	if err != nil {
		r.logger.Error("get pipeline config failed", "error", err)
		return domain.PipelineConfig{}, err
	}

	return domain.PipelineConfig{Stages: stages}, nil
}

func (r *PipelineConfigRepository) SavePipelineConfig(ctx context.Context, cfg domain.PipelineConfig) error {
	stages := cfg.Stages
	if stages == nil {
		stages = []domain.PipelineStageConfig{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO pipeline_config (id, stages, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET stages = EXCLUDED.stages, updated_at = NOW()`,
		stages,
	)
	if err != nil {
		r.logger.Error("save pipeline config failed", "error", err)
		return err
	}

	r.logger.Info("pipeline config updated", "stages", len(stages))
	return nil
}
