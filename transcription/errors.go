package transcription

import (
	stderrors "errors"
	"fmt"

	apperrors "github.com/lifemap/memorymap/errors"
)

// ToolNotFoundError means the conversion tool could not be resolved.
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("transcription: %s not found: %v", e.Tool, e.Err)
}

func (e *ToolNotFoundError) Unwrap() error { return e.Err }

// ConversionError means the conversion tool exited non-zero.
type ConversionError struct {
	ExitCode int
	// Output is the tool's diagnostic output.
	Output string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("transcription: audio conversion failed (exit %d): %s", e.ExitCode, e.Output)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ModelLoadError means a model could not be fetched or initialized.
type ModelLoadError struct {
	Key ModelKey
	Err error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("transcription: load model %s: %v", e.Key, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InferenceError wraps an unexpected failure during decoding.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("transcription: inference failed: %v", e.Err) }

func (e *InferenceError) Unwrap() error { return e.Err }

// AppError maps a pipeline error onto the API error envelope.
func AppError(err error) *apperrors.AppError {
	var (
		toolErr  *ToolNotFoundError
		convErr  *ConversionError
		loadErr  *ModelLoadError
		inferErr *InferenceError
	)
	switch {
	case stderrors.As(err, &toolErr):
		return apperrors.ToolNotFound(toolErr.Tool, err)
	case stderrors.As(err, &convErr):
		return apperrors.ConversionFailed(convErr.Output, err)
	case stderrors.As(err, &loadErr):
		return apperrors.ModelLoadFailed(loadErr.Key.Model, err)
	case stderrors.As(err, &inferErr):
		return apperrors.InferenceFailed(err)
	}
	return apperrors.From(err)
}
