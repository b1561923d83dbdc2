package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/inserter"
	"sellthrough-backend/ingestion/pipeline"
	"sellthrough-backend/ingestion/reports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ---- stateful batch repository mock ----

type fakeBatchRepo struct {
	batch   *models.UploadBatch
	staging *models.StagingRecord

	stages         []models.PipelineStage
	statuses       []models.BatchStatus
	detectedVendor string
	counters       []int
	completedAs    models.BatchStatus
}

func (f *fakeBatchRepo) CreateBatch(batch *models.UploadBatch) error { return nil }

// GetBatch resolves unknown ids to nil without error, matching the
// repository's not-found contract.
func (f *fakeBatchRepo) GetBatch(id uuid.UUID) (*models.UploadBatch, error) {
	return f.batch, nil
}

func (f *fakeBatchRepo) UpdateBatchStatus(id uuid.UUID, status models.BatchStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeBatchRepo) UpdateBatchCounters(id uuid.UUID, total, valid, inserted, duplicate, failed int) error {
	f.counters = []int{total, valid, inserted, duplicate, failed}
	return nil
}

func (f *fakeBatchRepo) MarkProcessingStarted(id uuid.UUID) error { return nil }

func (f *fakeBatchRepo) MarkCompleted(id uuid.UUID, status models.BatchStatus) error {
	f.completedAs = status
	return nil
}

func (f *fakeBatchRepo) GetFilteredBatches(pageSize int, offset int, filters map[string]string) ([]models.UploadBatch, int64, error) {
	return nil, 0, nil
}
func (f *fakeBatchRepo) SweepStuckBatches(olderThan time.Duration) (int64, error) { return 0, nil }

func (f *fakeBatchRepo) CreateStagingRecord(record *models.StagingRecord) error {
	f.staging = record
	return nil
}

func (f *fakeBatchRepo) GetStagingRecord(batchID uuid.UUID) (*models.StagingRecord, error) {
	return f.staging, nil
}

func (f *fakeBatchRepo) UpdateStagingStage(batchID uuid.UUID, stage models.PipelineStage) error {
	f.stages = append(f.stages, stage)
	return nil
}

func (f *fakeBatchRepo) UpdateStagingDetection(batchID uuid.UUID, vendor string, confidence float64, metadata datatypes.JSON) error {
	f.detectedVendor = vendor
	return nil
}

func (f *fakeBatchRepo) UpdateStagingValidationErrors(batchID uuid.UUID, payload datatypes.JSON) error {
	return nil
}

func (f *fakeBatchRepo) GetReseller(id uuid.UUID) (*models.Reseller, error)      { return nil, nil }
func (f *fakeBatchRepo) GetResellerByCode(code string) (*models.Reseller, error) { return nil, nil }

// ---- remaining repository mocks ----

type fakeStoreRepo struct {
	stores map[string]uuid.UUID
}

func (f *fakeStoreRepo) GetByResellerAndCode(resellerID uuid.UUID, storeCode string) (*models.Store, error) {
	return nil, nil
}
func (f *fakeStoreRepo) GetByID(id uuid.UUID) (*models.Store, error) { return nil, nil }

func (f *fakeStoreRepo) Create(store *models.Store) error {
	store.ID = uuid.New()
	if f.stores == nil {
		f.stores = make(map[string]uuid.UUID)
	}
	f.stores[store.StoreCode] = store.ID
	return nil
}

func (f *fakeStoreRepo) Deactivate(id uuid.UUID) error     { return nil }
func (f *fakeStoreRepo) Exists(id uuid.UUID) (bool, error) { return true, nil }

type fakeMappingRepo struct {
	knownProducts map[string]bool
}

func (f *fakeMappingRepo) GetByNormalizedCode(resellerID uuid.UUID, normalizedCode string) (*models.ProductMapping, error) {
	return nil, nil
}
func (f *fakeMappingRepo) ListActiveByReseller(resellerID uuid.UUID) ([]models.ProductMapping, error) {
	return nil, nil
}
func (f *fakeMappingRepo) Create(mapping *models.ProductMapping) error { return nil }
func (f *fakeMappingRepo) Update(mapping *models.ProductMapping) error { return nil }
func (f *fakeMappingRepo) Delete(id uuid.UUID) error                   { return nil }

func (f *fakeMappingRepo) ProductExists(ean string) (bool, error) {
	return f.knownProducts[ean], nil
}

func (f *fakeMappingRepo) ResellerExists(id uuid.UUID) (bool, error) { return true, nil }

// fakeFactRepo mimics the composite unique index on the fact table:
// a chunk carrying an already-seen dedup tuple, within the chunk or
// across calls, fails whole with a duplicate-key error.
type fakeFactRepo struct {
	committed map[string]struct{}
	failEAN   string
}

func factKey(fact *models.SalesFact) string {
	store := ""
	if fact.StoreID != nil {
		store = fact.StoreID.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		fact.ResellerID, fact.ProductEAN, fact.SaleDate.Format("2006-01-02"), store, fact.Quantity)
}

func (f *fakeFactRepo) BulkCreate(facts []*models.SalesFact) error {
	seen := make(map[string]struct{})
	for _, fact := range facts {
		key := factKey(fact)
		if _, ok := f.committed[key]; ok {
			return gorm.ErrDuplicatedKey
		}
		if _, ok := seen[key]; ok {
			return gorm.ErrDuplicatedKey
		}
		seen[key] = struct{}{}
	}
	if f.failEAN != "" {
		for _, fact := range facts {
			if fact.ProductEAN == f.failEAN {
				return errors.New("value too long for column")
			}
		}
	}
	for _, fact := range facts {
		if f.committed == nil {
			f.committed = make(map[string]struct{})
		}
		f.committed[factKey(fact)] = struct{}{}
	}
	return nil
}

func (f *fakeFactRepo) CreateOne(fact *models.SalesFact) error {
	if f.failEAN != "" && fact.ProductEAN == f.failEAN {
		return errors.New("value too long for column")
	}
	key := factKey(fact)
	if _, ok := f.committed[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if f.committed == nil {
		f.committed = make(map[string]struct{})
	}
	f.committed[key] = struct{}{}
	return nil
}

func (f *fakeFactRepo) DeleteByBatch(batchID uuid.UUID) (int64, error) { return 0, nil }

type fakeReportRepo struct {
	created []*models.ErrorReportLog
}

func (f *fakeReportRepo) Create(log *models.ErrorReportLog) error { f.created = append(f.created, log); return nil }
func (f *fakeReportRepo) GetLatestByBatch(batchID uuid.UUID) (*models.ErrorReportLog, error) {
	return nil, nil
}
func (f *fakeReportRepo) ListOlderThan(cutoff time.Time) ([]models.ErrorReportLog, error) {
	return nil, nil
}
func (f *fakeReportRepo) Delete(id uuid.UUID) error { return nil }

// ---- fixtures ----

func newPipeline(t *testing.T, batches *fakeBatchRepo, mappings *fakeMappingRepo, facts *fakeFactRepo) *pipeline.Pipeline {
	t.Helper()
	stores := &fakeStoreRepo{}
	ins := inserter.New(facts, batches, stores, zap.NewNop())
	reporter := reports.NewReporter(&fakeReportRepo{}, zap.NewNop())
	reporter.SetArtifactDir(t.TempDir())
	return pipeline.New(batches, stores, mappings, ins, reporter, zap.NewNop())
}

func saveWorkbook(t *testing.T, filename string, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	_, err := f.NewSheet(sheet)
	assert.NoError(t, err)
	assert.NoError(t, f.DeleteSheet("Sheet1"))
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			assert.NoError(t, err)
			assert.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}
	path := filepath.Join(t.TempDir(), filename)
	assert.NoError(t, f.SaveAs(path))
	assert.NoError(t, f.Close())
	return path
}

func testBatch(filename string) *models.UploadBatch {
	return &models.UploadBatch{
		ID:             uuid.New(),
		ResellerID:     uuid.New(),
		SourceFilename: filename,
		Status:         models.PendingBatchStatus,
		CompanyID:      1,
	}
}

func TestProcessFailsWhenFileCannotBeOpened(t *testing.T) {
	batches := &fakeBatchRepo{batch: testBatch("missing.xlsx")}
	p := newPipeline(t, batches, &fakeMappingRepo{}, &fakeFactRepo{})

	result, err := p.Process(context.Background(), batches.batch.ID, "/nonexistent/missing.xlsx")

	assert.Error(t, err)
	var perr *pipeline.PipelineError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.ExtractionFailure, perr.Kind)
	assert.Equal(t, models.FailedBatchStatus, result.Status)
	assert.Equal(t, models.FailedBatchStatus, batches.completedAs)
}

func TestProcessFailsOnUnrecognizedFormat(t *testing.T) {
	path := saveWorkbook(t, "mystery.xlsx", "Data", [][]interface{}{
		{"Column A", "Column B"},
		{"1", "2"},
	})
	batches := &fakeBatchRepo{batch: testBatch("mystery.xlsx")}
	p := newPipeline(t, batches, &fakeMappingRepo{}, &fakeFactRepo{})

	result, err := p.Process(context.Background(), batches.batch.ID, path)

	var perr *pipeline.PipelineError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.DetectionFailure, perr.Kind)
	assert.Equal(t, models.FailedBatchStatus, result.Status)

	// The staging record captured the workbook structure before the abort.
	assert.NotNil(t, batches.staging)
	assert.Equal(t, 2, batches.staging.RowCount)
	assert.Contains(t, batches.stages, models.FailedStage)
}

func TestProcessFailsWhenNoRowSurvivesValidation(t *testing.T) {
	// A recognizable Ingram Micro file whose only product is unknown to
	// the catalogue: extraction succeeds, referential validation rejects
	// everything, insertion is never attempted.
	path := saveWorkbook(t, "ingram_export.xlsx", "Sell Through", [][]interface{}{
		{"EAN", "Store Code", "Quantity", "Sales Value", "Date"},
		{"4006381333931", "NYC-01", "3", "29.97", "2024-03-15"},
		{"4006381333931", "NYC-01", "1", "9.99", "2024-03-16"},
	})
	batches := &fakeBatchRepo{batch: testBatch("ingram_export.xlsx")}
	p := newPipeline(t, batches, &fakeMappingRepo{knownProducts: map[string]bool{}}, &fakeFactRepo{})

	result, err := p.Process(context.Background(), batches.batch.ID, path)

	var perr *pipeline.PipelineError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.ValidationFailure, perr.Kind)

	assert.Equal(t, "ingrammicro", result.Vendor)
	assert.Equal(t, "ingrammicro", batches.detectedVendor)
	assert.Equal(t, 2, result.ValidationStats.Total)
	assert.Zero(t, result.ValidationStats.Valid)
	assert.Equal(t, 2, result.ValidationStats.Invalid)
	assert.Equal(t, models.FailedBatchStatus, result.Status)
	assert.NotEmpty(t, result.ReportLink)

	// Stage trail: detection and processing ran, insertion never did.
	assert.Contains(t, batches.stages, models.VendorDetectedStage)
	assert.Contains(t, batches.stages, models.ProcessedStage)
	assert.Contains(t, batches.stages, models.StoresResolvedStage)
	assert.Contains(t, batches.stages, models.ValidationFailedStage)
	assert.NotContains(t, batches.stages, models.InsertedStage)

	// Counters: total persisted, nothing valid or inserted.
	assert.Equal(t, []int{2, 0, 0, 0, 0}, batches.counters)
	assert.Equal(t, models.FailedBatchStatus, batches.completedAs)
}

func TestProcessCompletesOnFullyValidFile(t *testing.T) {
	path := saveWorkbook(t, "ingram_export.xlsx", "Sell Through", [][]interface{}{
		{"EAN", "Store Code", "Quantity", "Sales Value", "Date"},
		{"4006381333931", "NYC-01", "3", "29.97", "2024-03-15"},
		{"4006381333931", "NYC-01", "1", "9.99", "2024-03-16"},
	})
	batches := &fakeBatchRepo{batch: testBatch("ingram_export.xlsx")}
	facts := &fakeFactRepo{}
	mappings := &fakeMappingRepo{knownProducts: map[string]bool{"4006381333931": true}}
	p := newPipeline(t, batches, mappings, facts)

	result, err := p.Process(context.Background(), batches.batch.ID, path)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.CompletedBatchStatus, result.Status)
	assert.Equal(t, "ingrammicro", result.Vendor)
	assert.Equal(t, 2, result.ValidationStats.Valid)
	assert.Equal(t, 2, result.InsertionStats.Inserted)
	assert.Zero(t, result.InsertionStats.Duplicate)
	assert.Zero(t, result.InsertionStats.Failed)
	assert.Len(t, facts.committed, 2)

	assert.Equal(t, []int{2, 2, 2, 0, 0}, batches.counters)
	assert.Equal(t, models.CompletedBatchStatus, batches.completedAs)
	assert.Contains(t, batches.stages, models.InsertedStage)
	assert.Contains(t, batches.stages, models.CompletedStage)
	assert.NotContains(t, batches.stages, models.FailedStage)
}

func TestProcessPartialRunClassifiesEveryOutcome(t *testing.T) {
	// Ten data rows: row 5 carries a malformed product code, rows 8 and 9
	// are the same dedup tuple, and the 555... product trips a
	// non-constraint insert error. Everything else lands.
	rows := [][]interface{}{
		{"EAN", "Store Code", "Quantity", "Sales Value", "Date"},
		{"4006381333931", "NYC-01", "1", "9.99", "2024-03-01"},
		{"4006381333931", "NYC-01", "2", "19.98", "2024-03-02"},
		{"4006381333931", "NYC-01", "3", "29.97", "2024-03-03"},
		{"not-a-code", "NYC-01", "4", "39.96", "2024-03-04"},
		{"4006381333931", "NYC-02", "5", "49.95", "2024-03-05"},
		{"4006381333931", "NYC-02", "6", "59.94", "2024-03-06"},
		{"4006381333931", "NYC-02", "7", "69.93", "2024-03-07"},
		{"4006381333931", "NYC-02", "7", "69.93", "2024-03-07"},
		{"5555555555555", "NYC-01", "8", "79.92", "2024-03-08"},
		{"4006381333931", "NYC-01", "9", "89.91", "2024-03-09"},
	}
	path := saveWorkbook(t, "ingram_export.xlsx", "Sell Through", rows)
	batches := &fakeBatchRepo{batch: testBatch("ingram_export.xlsx")}
	facts := &fakeFactRepo{failEAN: "5555555555555"}
	mappings := &fakeMappingRepo{knownProducts: map[string]bool{
		"4006381333931": true,
		"5555555555555": true,
	}}
	p := newPipeline(t, batches, mappings, facts)

	result, err := p.Process(context.Background(), batches.batch.ID, path)

	assert.NoError(t, err)
	assert.Equal(t, 10, result.ValidationStats.Total)
	assert.Equal(t, 9, result.ValidationStats.Valid)
	assert.Equal(t, 1, result.ValidationStats.Invalid)

	assert.Equal(t, 7, result.InsertionStats.Inserted)
	assert.Equal(t, 1, result.InsertionStats.Duplicate)
	assert.Equal(t, 1, result.InsertionStats.Failed)

	assert.Equal(t, models.PartialBatchStatus, result.Status)
	assert.Equal(t, models.PartialBatchStatus, batches.completedAs)
	assert.Equal(t, []int{10, 9, 7, 1, 1}, batches.counters)
	assert.NotEmpty(t, result.ReportLink, "rejected and failed rows belong in the error report")
	assert.Contains(t, batches.stages, models.CompletedStage)
}

func TestProcessFailsWhenBatchDoesNotExist(t *testing.T) {
	batches := &fakeBatchRepo{}
	p := newPipeline(t, batches, &fakeMappingRepo{}, &fakeFactRepo{})

	_, err := p.Process(context.Background(), uuid.New(), "irrelevant.xlsx")

	var perr *pipeline.PipelineError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.FatalPipelineFailure, perr.Kind)
}
