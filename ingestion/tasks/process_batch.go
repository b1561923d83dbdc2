// Package tasks defines the background jobs that drive ingestion:
// the asynq task that processes an uploaded batch and the cron
// sweepers that keep batches and report artifacts healthy.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sellthrough-backend/ingestion/pipeline"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeProcessBatch = "ingestion:process"

	// QueueIngestion keeps batch processing off the default queue so
	// sweeps and other housekeeping never starve uploads.
	QueueIngestion = "ingestion"

	processMaxRetry = 3
)

// ProcessBatchPayload is the serialized body of an ingestion:process task.
type ProcessBatchPayload struct {
	BatchID      uuid.UUID `json:"batch_id"`
	FileLocation string    `json:"file_location"`
}

// NewProcessBatchTask builds the asynq task that runs a batch through
// the ingestion pipeline.
func NewProcessBatchTask(batchID uuid.UUID, fileLocation string) (*asynq.Task, error) {
	payload, err := json.Marshal(ProcessBatchPayload{
		BatchID:      batchID,
		FileLocation: fileLocation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize process payload: %w", err)
	}
	return asynq.NewTask(TypeProcessBatch, payload,
		asynq.Queue(QueueIngestion),
		asynq.MaxRetry(processMaxRetry),
	), nil
}

// BatchProcessor handles ingestion:process tasks by driving the
// pipeline for the batch named in the payload.
type BatchProcessor struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

func NewBatchProcessor(p *pipeline.Pipeline, logger *zap.Logger) *BatchProcessor {
	return &BatchProcessor{pipeline: p, logger: logger}
}

// ProcessTask implements asynq.Handler. Validation and detection
// failures are terminal for the batch, so they are not retried; only
// infrastructure errors are surfaced to asynq for retry.
func (h *BatchProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ProcessBatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid process payload: %v: %w", err, asynq.SkipRetry)
	}

	h.logger.Info("processing batch",
		zap.String("batch_id", payload.BatchID.String()),
		zap.String("file", payload.FileLocation))

	result, err := h.pipeline.Process(ctx, payload.BatchID, payload.FileLocation)
	if err != nil {
		var perr *pipeline.PipelineError
		if errors.As(err, &perr) && perr.Kind != pipeline.FatalPipelineFailure {
			// The batch is already marked failed with its report
			// generated; retrying would re-run a terminal outcome.
			h.logger.Warn("batch failed terminally",
				zap.String("batch_id", payload.BatchID.String()),
				zap.String("kind", string(perr.Kind)),
				zap.Error(perr.Err))
			return nil
		}
		return fmt.Errorf("batch %s: %w", payload.BatchID, err)
	}

	h.logger.Info("batch processed",
		zap.String("batch_id", payload.BatchID.String()),
		zap.String("status", string(result.Status)),
		zap.Int("inserted", result.InsertionStats.Inserted),
		zap.Int("duplicate", result.InsertionStats.Duplicate),
		zap.Int("failed", result.InsertionStats.Failed))
	return nil
}
