package errors

import (
	"context"
	"errors"
)

// ErrorCategory groups errors by the part of the pipeline that rejected the input.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategorySample        ErrorCategory = "sample"
	CategoryAssembler     ErrorCategory = "assembler"
	CategoryReport        ErrorCategory = "report"
	CategoryWorkflow      ErrorCategory = "workflow"
	CategoryCanceled      ErrorCategory = "canceled"
	CategoryUnknown       ErrorCategory = "unknown"
)

// ClassifiedError attaches a category, a process exit code and a hint for the user.
// None of these errors are retryable: they all come from static input.
type ClassifiedError struct {
	Err      error
	Category ErrorCategory
	ExitCode int
	UserMsg  string
}

func (e *ClassifiedError) Error() string {
	return e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// ClassifyError classifies an error based on its type
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case IsSampleConfigError(err):
		return &ClassifiedError{
			Err:      err,
			Category: CategorySample,
			ExitCode: 2,
			UserMsg:  "Sample configuration is invalid. Check the read paths and settings of the named sample.",
		}

	case IsAssemblerConfigError(err):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryAssembler,
			ExitCode: 2,
			UserMsg:  "Assembler configuration is invalid. Check the algorithm, arguments and samples of the named assembler.",
		}

	case IsConfigurationError(err):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryConfiguration,
			ExitCode: 2,
			UserMsg:  "Configuration document is invalid. Run 'yeat init' for an example.",
		}

	case IsReportParseError(err):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryReport,
			ExitCode: 3,
			UserMsg:  "A QC report needed for downsampling is missing or unreadable; the upstream QC step likely failed.",
		}

	case errors.Is(err, ErrWorkflowFailed):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryWorkflow,
			ExitCode: 4,
			UserMsg:  "Workflow execution failed. See the workflow engine output above.",
		}

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryCanceled,
			ExitCode: 130,
			UserMsg:  "Operation was canceled.",
		}

	default:
		return &ClassifiedError{
			Err:      err,
			Category: CategoryUnknown,
			ExitCode: 1,
			UserMsg:  "An unexpected error occurred.",
		}
	}
}

// GetExitCode returns the process exit code for err; 0 for nil
func GetExitCode(err error) int {
	classified := ClassifyError(err)
	if classified == nil {
		return 0
	}
	return classified.ExitCode
}

// GetUserMessage returns a hint suitable for printing after the error itself
func GetUserMessage(err error) string {
	classified := ClassifyError(err)
	if classified == nil {
		return ""
	}
	return classified.UserMsg
}

// FormatErrorForLogging flattens an error into logger key/value pairs
func FormatErrorForLogging(err error) []interface{} {
	if err == nil {
		return nil
	}

	classified := ClassifyError(err)
	kv := []interface{}{
		"error", err.Error(),
		"category", string(classified.Category),
	}

	if label, ok := GetSampleLabel(err); ok {
		kv = append(kv, "sample", label)
	}
	if label, ok := GetAssemblerLabel(err); ok {
		kv = append(kv, "assembler", label)
	}
	if found, ok := GetReadCount(err); ok {
		kv = append(kv, "found", found)
	}

	return kv
}

// LogError logs an error with its classification
func LogError(logger interface{ Error(string, ...interface{}) }, err error, msg string) {
	if err == nil {
		return
	}
	logger.Error(msg, FormatErrorForLogging(err)...)
}
