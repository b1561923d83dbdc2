// Package pipeline sequences the ingestion stages for one batch:
// staging, vendor detection, extraction/transform, store resolution,
// validation, insertion and reporting. Every transition is persisted on
// the staging record before advancing so an interrupted run leaves a
// diagnosable trail.
package pipeline

import (
	"context"
	"encoding/json"

	"sellthrough-backend/db/models"
	"sellthrough-backend/ingestion/detector"
	"sellthrough-backend/ingestion/inserter"
	"sellthrough-backend/ingestion/reports"
	"sellthrough-backend/ingestion/repositories"
	"sellthrough-backend/ingestion/resolvers"
	"sellthrough-backend/ingestion/validator"
	"sellthrough-backend/ingestion/vendors"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Result reports what one pipeline run did, stage by stage.
type Result struct {
	Success bool   `json:"success"`
	Vendor  string `json:"vendor"`

	ProcessingStats struct {
		TotalRows       int `json:"total_rows"`
		TransformErrors int `json:"transform_errors"`
		StoresResolved  int `json:"stores_resolved"`
	} `json:"processing_stats"`

	ValidationStats struct {
		Total   int `json:"total"`
		Valid   int `json:"valid"`
		Invalid int `json:"invalid"`
	} `json:"validation_stats"`

	InsertionStats inserter.Stats `json:"insertion_stats"`

	Status     models.BatchStatus `json:"status"`
	ReportLink string             `json:"report_link,omitempty"`
}

type Pipeline struct {
	batches  repositories.BatchRepository
	stores   repositories.StoreRepository
	mappings repositories.ProductMappingRepository
	inserter *inserter.Inserter
	reporter *reports.Reporter
	logger   *zap.Logger

	fuzzyMatching bool
}

func New(
	batches repositories.BatchRepository,
	stores repositories.StoreRepository,
	mappings repositories.ProductMappingRepository,
	ins *inserter.Inserter,
	reporter *reports.Reporter,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		batches:       batches,
		stores:        stores,
		mappings:      mappings,
		inserter:      ins,
		reporter:      reporter,
		logger:        logger,
		fuzzyMatching: true,
	}
}

// referenceChecker adapts the repositories to the validator's
// existence-check surface.
type referenceChecker struct {
	mappings repositories.ProductMappingRepository
	stores   repositories.StoreRepository
}

func (rc *referenceChecker) ProductExists(ean string) (bool, error) {
	return rc.mappings.ProductExists(ean)
}

func (rc *referenceChecker) ResellerExists(id uuid.UUID) (bool, error) {
	return rc.mappings.ResellerExists(id)
}

func (rc *referenceChecker) StoreExists(id uuid.UUID) (bool, error) {
	return rc.stores.Exists(id)
}

// Process runs one batch end to end against its stored file. Per-row
// failures are collected and reported; whole-file and fatal failures
// mark the batch failed with the trail preserved.
func (p *Pipeline) Process(ctx context.Context, batchID uuid.UUID, fileLocation string) (result *Result, err error) {
	result = &Result{}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panicked",
				zap.String("batch_id", batchID.String()), zap.Any("panic", r))
			p.failBatch(batchID, failure(FatalPipelineFailure, "unexpected pipeline failure: %v", r))
			result.Status = models.FailedBatchStatus
			err = failure(FatalPipelineFailure, "unexpected pipeline failure: %v", r)
		}
	}()

	batch, loadErr := p.batches.GetBatch(batchID)
	if loadErr != nil {
		return result, loadErr
	}
	if batch == nil {
		return result, failure(FatalPipelineFailure, "upload batch %s not found", batchID)
	}
	if err := p.batches.MarkProcessingStarted(batchID); err != nil {
		return result, err
	}

	log := p.logger.With(
		zap.String("batch_id", batchID.String()),
		zap.String("filename", batch.SourceFilename))

	// Stage: staged
	f, openErr := excelize.OpenFile(fileLocation)
	if openErr != nil {
		perr := failure(ExtractionFailure, "failed to open spreadsheet: %v", openErr)
		p.failBatch(batchID, perr)
		result.Status = models.FailedBatchStatus
		return result, perr
	}
	defer f.Close()

	if err := p.stageFile(batch, f); err != nil {
		return result, err
	}
	log.Info("batch staged")

	// Stage: vendor_detected
	detection := detector.Detect(f, batch.SourceFilename)
	p.persistDetection(batchID, detection)
	if detection.VendorID == "" {
		perr := failure(DetectionFailure, "no vendor fingerprint above threshold (best confidence %.2f)", detection.Confidence)
		p.failBatch(batchID, perr)
		result.Status = models.FailedBatchStatus
		return result, perr
	}
	result.Vendor = detection.VendorID
	p.advance(batchID, models.VendorDetectedStage)
	log.Info("vendor detected",
		zap.String("vendor", detection.VendorID),
		zap.Float64("confidence", detection.Confidence))

	// Per-run services; caches live and die with this invocation.
	mapper := resolvers.NewProductMapper(p.mappings, p.logger, p.fuzzyMatching)
	storeResolver := resolvers.NewStoreResolver(p.stores, p.logger)
	registry := vendors.NewRegistry(vendors.Deps{
		ResellerID: batch.ResellerID,
		Products:   mapper,
		Prices:     mapper,
	})

	vendor, vendErr := registry.Get(detection.VendorID)
	if vendErr != nil {
		perr := failure(DetectionFailure, "%v", vendErr)
		p.failBatch(batchID, perr)
		result.Status = models.FailedBatchStatus
		return result, perr
	}

	// Stage: processed
	extraction, extErr := vendors.ProcessFile(f, vendor, batchID, batch.ResellerID)
	if extErr != nil {
		perr := failure(ExtractionFailure, "%v", extErr)
		p.failBatch(batchID, perr)
		result.Status = models.FailedBatchStatus
		return result, perr
	}
	result.ProcessingStats.TotalRows = extraction.TotalRows
	result.ProcessingStats.TransformErrors = len(extraction.RowErrors)
	p.advance(batchID, models.ProcessedStage)
	log.Info("rows extracted",
		zap.Int("total_rows", extraction.TotalRows),
		zap.Int("transform_errors", len(extraction.RowErrors)))

	// Stage: stores_resolved
	resolvedStores := storeResolver.BulkGetOrCreate(batch.ResellerID, extraction.Stores)
	for i := range extraction.Rows {
		if code := extraction.Rows[i].StoreCode; code != "" {
			if storeID, ok := resolvedStores[code]; ok {
				id := storeID
				extraction.Rows[i].Fact.StoreID = &id
			}
		}
	}
	result.ProcessingStats.StoresResolved = len(resolvedStores)
	p.advance(batchID, models.StoresResolvedStage)

	// Stage: validated / validation_failed
	v := validator.New(&referenceChecker{mappings: p.mappings, stores: p.stores})
	validation := v.Validate(extraction.Rows, extraction.RowErrors)
	result.ValidationStats.Total = validation.Total
	result.ValidationStats.Valid = validation.Valid
	result.ValidationStats.Invalid = validation.Invalid
	p.persistValidationErrors(batchID, validation.Rejected)

	if validation.Valid == 0 {
		// Nothing to insert; the batch is failed outright and insertion
		// is never attempted.
		p.advance(batchID, models.ValidationFailedStage)
		p.batches.UpdateBatchCounters(batchID, validation.Total, 0, 0, 0, 0)
		p.batches.MarkCompleted(batchID, models.FailedBatchStatus)
		result.Status = models.FailedBatchStatus
		result.ReportLink = p.generateReport(batchID, validation.Total, validation.Rejected)
		return result, failure(ValidationFailure, "no rows survived validation (%d rejected)", validation.Invalid)
	}
	p.advance(batchID, models.ValidatedStage)
	p.advance(batchID, models.ForeignKeyCheckedStage)
	log.Info("rows validated",
		zap.Int("valid", validation.Valid), zap.Int("invalid", validation.Invalid))

	// Stage: inserted
	stats := p.inserter.Insert(validation.Accepted, batch)
	result.InsertionStats = stats
	p.advance(batchID, models.InsertedStage)

	status, finErr := p.inserter.Finalize(batchID, validation.Total, validation.Valid, stats)
	if finErr != nil {
		log.Error("failed to finalize batch counters", zap.Error(finErr))
	}
	result.Status = status
	result.Success = status != models.FailedBatchStatus

	allErrors := append(append([]models.RowError{}, validation.Rejected...), stats.Errors...)
	result.ReportLink = p.generateReport(batchID, validation.Total, allErrors)

	if status == models.FailedBatchStatus {
		p.advance(batchID, models.FailedStage)
	} else {
		p.advance(batchID, models.CompletedStage)
	}

	log.Info("batch finished",
		zap.String("status", string(status)),
		zap.Int("inserted", stats.Inserted),
		zap.Int("duplicate", stats.Duplicate),
		zap.Int("failed", stats.Failed))
	return result, nil
}

// stageFile captures the raw structure of the workbook on the staging
// record, creating the record if the upload intake has not yet.
func (p *Pipeline) stageFile(batch *models.UploadBatch, f *excelize.File) error {
	sheets := f.GetSheetList()
	sheetNames, _ := json.Marshal(sheets)

	rowCount := 0
	columnCount := 0
	var headerSample []string
	if len(sheets) > 0 {
		if rows, err := f.GetRows(sheets[0]); err == nil && len(rows) > 0 {
			rowCount = len(rows)
			columnCount = len(rows[0])
			headerSample = rows[0]
		}
	}
	headerJSON, _ := json.Marshal(headerSample)

	existing, err := p.batches.GetStagingRecord(batch.ID)
	if err != nil || existing == nil {
		record := &models.StagingRecord{
			BatchID:       batch.ID,
			SheetNames:    datatypes.JSON(sheetNames),
			RowCount:      rowCount,
			ColumnCount:   columnCount,
			HeaderSample:  datatypes.JSON(headerJSON),
			PipelineStage: models.StagedStage,
			CompanyID:     batch.CompanyID,
		}
		if err := p.batches.CreateStagingRecord(record); err != nil {
			return err
		}
	} else {
		p.advance(batch.ID, models.StagedStage)
	}

	return p.batches.UpdateBatchStatus(batch.ID, models.StagedBatchStatus)
}

func (p *Pipeline) persistDetection(batchID uuid.UUID, detection detector.Result) {
	metadata, err := json.Marshal(detection.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}
	if err := p.batches.UpdateStagingDetection(batchID, detection.VendorID, detection.Confidence, datatypes.JSON(metadata)); err != nil {
		p.logger.Warn("failed to persist detection result",
			zap.String("batch_id", batchID.String()), zap.Error(err))
	}
}

func (p *Pipeline) persistValidationErrors(batchID uuid.UUID, rejected []models.RowError) {
	if len(rejected) == 0 {
		return
	}
	payload, err := json.Marshal(rejected)
	if err != nil {
		p.logger.Warn("failed to serialize validation errors", zap.Error(err))
		return
	}
	if err := p.batches.UpdateStagingValidationErrors(batchID, datatypes.JSON(payload)); err != nil {
		p.logger.Warn("failed to persist validation errors",
			zap.String("batch_id", batchID.String()), zap.Error(err))
	}
}

// advance records a one-directional stage transition on the staging
// record before the pipeline moves on.
func (p *Pipeline) advance(batchID uuid.UUID, stage models.PipelineStage) {
	if err := p.batches.UpdateStagingStage(batchID, stage); err != nil {
		p.logger.Warn("failed to persist pipeline stage",
			zap.String("batch_id", batchID.String()),
			zap.String("stage", string(stage)), zap.Error(err))
	}
}

func (p *Pipeline) failBatch(batchID uuid.UUID, perr *PipelineError) {
	p.logger.Error("batch failed",
		zap.String("batch_id", batchID.String()),
		zap.String("kind", string(perr.Kind)),
		zap.Error(perr.Err))
	p.advance(batchID, models.FailedStage)
	if err := p.batches.MarkCompleted(batchID, models.FailedBatchStatus); err != nil {
		p.logger.Error("failed to mark batch failed",
			zap.String("batch_id", batchID.String()), zap.Error(err))
	}
}

func (p *Pipeline) generateReport(batchID uuid.UUID, totalRows int, rowErrors []models.RowError) string {
	link, err := p.reporter.Generate(batchID, totalRows, rowErrors)
	if err != nil {
		p.logger.Warn("failed to generate error report",
			zap.String("batch_id", batchID.String()), zap.Error(err))
		return ""
	}
	return link
}
