package controllers_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"sellthrough-backend/batches/controllers"
	"sellthrough-backend/config"
	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/inserter"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// stubBatchRepo serves a fixed set of batches; unknown ids resolve to
// nil without error, matching the repository's not-found contract.
type stubBatchRepo struct {
	batches map[uuid.UUID]*models.UploadBatch
}

func (s *stubBatchRepo) CreateBatch(batch *models.UploadBatch) error { return nil }

func (s *stubBatchRepo) GetBatch(id uuid.UUID) (*models.UploadBatch, error) {
	return s.batches[id], nil
}

func (s *stubBatchRepo) UpdateBatchStatus(id uuid.UUID, status models.BatchStatus) error { return nil }
func (s *stubBatchRepo) UpdateBatchCounters(id uuid.UUID, total, valid, inserted, duplicate, failed int) error {
	return nil
}
func (s *stubBatchRepo) MarkProcessingStarted(id uuid.UUID) error                    { return nil }
func (s *stubBatchRepo) MarkCompleted(id uuid.UUID, status models.BatchStatus) error { return nil }
func (s *stubBatchRepo) GetFilteredBatches(pageSize int, offset int, filters map[string]string) ([]models.UploadBatch, int64, error) {
	return nil, 0, nil
}
func (s *stubBatchRepo) SweepStuckBatches(olderThan time.Duration) (int64, error) { return 0, nil }
func (s *stubBatchRepo) CreateStagingRecord(record *models.StagingRecord) error   { return nil }
func (s *stubBatchRepo) GetStagingRecord(batchID uuid.UUID) (*models.StagingRecord, error) {
	return nil, nil
}
func (s *stubBatchRepo) UpdateStagingStage(batchID uuid.UUID, stage models.PipelineStage) error {
	return nil
}
func (s *stubBatchRepo) UpdateStagingDetection(batchID uuid.UUID, vendor string, confidence float64, metadata datatypes.JSON) error {
	return nil
}
func (s *stubBatchRepo) UpdateStagingValidationErrors(batchID uuid.UUID, payload datatypes.JSON) error {
	return nil
}
func (s *stubBatchRepo) GetReseller(id uuid.UUID) (*models.Reseller, error)      { return nil, nil }
func (s *stubBatchRepo) GetResellerByCode(code string) (*models.Reseller, error) { return nil, nil }

type stubFactRepo struct{}

func (s *stubFactRepo) BulkCreate(facts []*models.SalesFact) error     { return nil }
func (s *stubFactRepo) CreateOne(fact *models.SalesFact) error         { return nil }
func (s *stubFactRepo) DeleteByBatch(batchID uuid.UUID) (int64, error) { return 0, nil }

type stubStoreRepo struct{}

func (s *stubStoreRepo) GetByResellerAndCode(resellerID uuid.UUID, storeCode string) (*models.Store, error) {
	return nil, nil
}
func (s *stubStoreRepo) GetByID(id uuid.UUID) (*models.Store, error) { return nil, nil }
func (s *stubStoreRepo) Create(store *models.Store) error            { return nil }
func (s *stubStoreRepo) Deactivate(id uuid.UUID) error               { return nil }
func (s *stubStoreRepo) Exists(id uuid.UUID) (bool, error)           { return true, nil }

func newTestApp(t *testing.T, repo *stubBatchRepo) *fiber.App {
	t.Helper()
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	bc := &controllers.BatchController{
		BatchRepo: repo,
		Inserter:  inserter.New(&stubFactRepo{}, repo, &stubStoreRepo{}, zap.NewNop()),
	}
	app := fiber.New()
	app.Get("/batches/:id/statistics", bc.GetBatchStatistics)
	app.Post("/batches/:id/retry", bc.RetryBatch)
	app.Post("/batches/:id/rollback", bc.RollbackBatch)
	return app
}

func TestUnknownBatchIDReturnsNotFound(t *testing.T) {
	app := newTestApp(t, &stubBatchRepo{})
	missing := uuid.NewString()

	cases := []struct {
		method string
		path   string
	}{
		{"GET", "/batches/" + missing + "/statistics"},
		{"POST", "/batches/" + missing + "/retry"},
		{"POST", "/batches/" + missing + "/rollback"},
	}

	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestRetryRejectsBatchesThatDidNotFail(t *testing.T) {
	batch := &models.UploadBatch{ID: uuid.New(), Status: models.CompletedBatchStatus}
	app := newTestApp(t, &stubBatchRepo{batches: map[uuid.UUID]*models.UploadBatch{batch.ID: batch}})

	resp, err := app.Test(httptest.NewRequest("POST", "/batches/"+batch.ID.String()+"/retry", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}
