// Package errors provides the structured error types used by yeat.
// Every configuration failure carries the offending label and key so callers
// can match on the kind of error instead of parsing message strings.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Document-level errors
	ErrMissingSection = errors.New("missing required section")
	ErrUnexpectedKey  = errors.New("unexpected key")
	ErrInvalidValue   = errors.New("invalid value")
	ErrInvalidLabel   = errors.New("invalid label")
	ErrNoSamples      = errors.New("configuration must define at least one sample")
	ErrNoAssemblers   = errors.New("configuration must define at least one assembler")

	// Sample errors
	ErrNoReadTypes   = errors.New("sample must have at least one read type")
	ErrReadCount     = errors.New("unexpected number of read files")
	ErrReadNotFound  = errors.New("read file not found")
	ErrDuplicateRead = errors.New("duplicate read file")
	ErrReadTypeCount = errors.New("too many read types")

	// Assembler errors
	ErrMissingAlgorithm    = errors.New("missing assembly algorithm")
	ErrUnknownAlgorithm    = errors.New("unknown assembly algorithm")
	ErrMissingArgument     = errors.New("missing required argument")
	ErrInsufficientThreads = errors.New("insufficient threads")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrSampleNotFound      = errors.New("sample not found")
	ErrNoCompatibleSamples = errors.New("no samples compatible with this assembler")

	// Report errors
	ErrReportMissing   = errors.New("report not found")
	ErrReportMalformed = errors.New("malformed report")
	ErrZeroReads       = errors.New("no reads after filtering")

	// Engine errors
	ErrWorkflowFailed = errors.New("workflow execution failed")
)

// ConfigurationError represents a malformed or incomplete configuration document
type ConfigurationError struct {
	Section string
	Key     string
	Err     error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Section != "" && e.Key != "":
		return fmt.Sprintf("configuration %s.%s: %v", e.Section, e.Key, e.Err)
	case e.Section != "":
		return fmt.Sprintf("configuration %s: %v", e.Section, e.Err)
	case e.Key != "":
		return fmt.Sprintf("configuration key '%s': %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// SampleConfigError represents invalid read or setting data for one sample.
// Found is the number of files observed when Err wraps ErrReadCount.
type SampleConfigError struct {
	Label string
	Key   string
	Path  string
	Found int
	Err   error
}

func (e *SampleConfigError) Error() string {
	msg := fmt.Sprintf("sample '%s'", e.Label)
	if e.Key != "" {
		msg += fmt.Sprintf(": %s", e.Key)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(": '%s'", e.Path)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *SampleConfigError) Unwrap() error {
	return e.Err
}

// AssemblerConfigError represents an invalid assembler definition
type AssemblerConfigError struct {
	Label     string
	Algorithm string
	Sample    string
	Err       error
}

func (e *AssemblerConfigError) Error() string {
	msg := fmt.Sprintf("assembler '%s'", e.Label)
	if e.Algorithm != "" {
		msg += fmt.Sprintf(" (%s)", e.Algorithm)
	}
	if e.Sample != "" {
		msg += fmt.Sprintf(": sample '%s'", e.Sample)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *AssemblerConfigError) Unwrap() error {
	return e.Err
}

// ReportParseError represents a QC report that is missing or cannot be parsed
type ReportParseError struct {
	Path  string
	Field string
	Err   error
}

func (e *ReportParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("report %s: field %s: %v", e.Path, e.Field, e.Err)
	}
	return fmt.Sprintf("report %s: %v", e.Path, e.Err)
}

func (e *ReportParseError) Unwrap() error {
	return e.Err
}

// Error wrapping constructors
func WrapConfigurationError(section, key string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigurationError{Section: section, Key: key, Err: err}
}

func WrapSampleError(label, key string, err error) error {
	if err == nil {
		return nil
	}
	return &SampleConfigError{Label: label, Key: key, Err: err}
}

func WrapAssemblerError(label, algorithm string, err error) error {
	if err == nil {
		return nil
	}
	return &AssemblerConfigError{Label: label, Algorithm: algorithm, Err: err}
}

func WrapReportError(path, field string, err error) error {
	if err == nil {
		return nil
	}
	return &ReportParseError{Path: path, Field: field, Err: err}
}

// Error classification functions
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func IsSampleConfigError(err error) bool {
	var se *SampleConfigError
	return errors.As(err, &se)
}

func IsAssemblerConfigError(err error) bool {
	var ae *AssemblerConfigError
	return errors.As(err, &ae)
}

func IsReportParseError(err error) bool {
	var re *ReportParseError
	return errors.As(err, &re)
}

// Error extraction helpers
func GetSampleLabel(err error) (string, bool) {
	var se *SampleConfigError
	if errors.As(err, &se) {
		return se.Label, true
	}
	return "", false
}

func GetAssemblerLabel(err error) (string, bool) {
	var ae *AssemblerConfigError
	if errors.As(err, &ae) {
		return ae.Label, true
	}
	return "", false
}

// GetReadCount returns the observed file count of a read-count failure
func GetReadCount(err error) (int, bool) {
	var se *SampleConfigError
	if errors.As(err, &se) && errors.Is(se.Err, ErrReadCount) {
		return se.Found, true
	}
	return 0, false
}

// Convenience functions for common error patterns
func NewUnexpectedKeyError(section, key string) error {
	return WrapConfigurationError(section, key, ErrUnexpectedKey)
}

func NewReadCountError(label, key string, found int) error {
	return &SampleConfigError{
		Label: label,
		Key:   key,
		Found: found,
		Err:   fmt.Errorf("%w: expected 1 or 2 files, found %d", ErrReadCount, found),
	}
}

func NewDuplicateReadError(label, key, path string) error {
	return &SampleConfigError{Label: label, Key: key, Path: path, Err: ErrDuplicateRead}
}

func NewSampleNotFoundError(assembler, algorithm, sample string) error {
	return &AssemblerConfigError{Label: assembler, Algorithm: algorithm, Sample: sample, Err: ErrSampleNotFound}
}
