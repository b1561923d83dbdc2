package pipeline

import "fmt"

// FailureKind classifies where in the pipeline a batch died. Per-row
// failures never carry one of these: they are collected and the batch
// continues.
type FailureKind string

const (
	DetectionFailure     FailureKind = "detection_failure"
	ExtractionFailure    FailureKind = "extraction_failure"
	ValidationFailure    FailureKind = "validation_failure"
	FatalPipelineFailure FailureKind = "fatal_pipeline_error"
)

// PipelineError is a whole-batch failure with its taxonomy kind.
type PipelineError struct {
	Kind FailureKind
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func failure(kind FailureKind, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
