package tasks_test

import (
	"encoding/json"
	"testing"

	"sellthrough-backend/ingestion/tasks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewProcessBatchTask(t *testing.T) {
	batchID := uuid.New()
	task, err := tasks.NewProcessBatchTask(batchID, "./uploads/batches/file.xlsx")

	assert.NoError(t, err)
	assert.Equal(t, tasks.TypeProcessBatch, task.Type())

	var payload tasks.ProcessBatchPayload
	assert.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, batchID, payload.BatchID)
	assert.Equal(t, "./uploads/batches/file.xlsx", payload.FileLocation)
}
