package errors

import (
	"context"
	stderr "errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		expectedCategory ErrorCategory
		expectedExitCode int
	}{
		{
			name:             "SampleConfigError",
			err:              NewReadCountError("s1", "illumina", 0),
			expectedCategory: CategorySample,
			expectedExitCode: 2,
		},
		{
			name:             "AssemblerConfigError",
			err:              WrapAssemblerError("a1", "canu", ErrMissingArgument),
			expectedCategory: CategoryAssembler,
			expectedExitCode: 2,
		},
		{
			name:             "ConfigurationError",
			err:              WrapConfigurationError("samples", "", ErrMissingSection),
			expectedCategory: CategoryConfiguration,
			expectedExitCode: 2,
		},
		{
			name:             "ReportParseError",
			err:              WrapReportError("fastp.json", "", ErrReportMissing),
			expectedCategory: CategoryReport,
			expectedExitCode: 3,
		},
		{
			name:             "WorkflowFailed",
			err:              fmt.Errorf("snakemake: %w", ErrWorkflowFailed),
			expectedCategory: CategoryWorkflow,
			expectedExitCode: 4,
		},
		{
			name:             "Canceled",
			err:              context.Canceled,
			expectedCategory: CategoryCanceled,
			expectedExitCode: 130,
		},
		{
			name:             "Unknown",
			err:              stderr.New("boom"),
			expectedCategory: CategoryUnknown,
			expectedExitCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			if classified.Category != tt.expectedCategory {
				t.Errorf("Category = %v, want %v", classified.Category, tt.expectedCategory)
			}
			if classified.ExitCode != tt.expectedExitCode {
				t.Errorf("ExitCode = %v, want %v", classified.ExitCode, tt.expectedExitCode)
			}
			if classified.UserMsg == "" {
				t.Error("UserMsg should not be empty")
			}
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	if ClassifyError(nil) != nil {
		t.Error("ClassifyError(nil) should be nil")
	}
	if GetExitCode(nil) != 0 {
		t.Error("GetExitCode(nil) should be 0")
	}
	if GetUserMessage(nil) != "" {
		t.Error("GetUserMessage(nil) should be empty")
	}
}

func TestClassifyError_AlreadyClassified(t *testing.T) {
	original := &ClassifiedError{Err: stderr.New("x"), Category: CategoryReport, ExitCode: 9}
	wrapped := fmt.Errorf("outer: %w", original)

	if got := ClassifyError(wrapped); got != original {
		t.Errorf("ClassifyError() = %v, want the original classification", got)
	}
}

type recordingLogger struct {
	msg string
	kv  []interface{}
}

func (r *recordingLogger) Error(msg string, kv ...interface{}) {
	r.msg = msg
	r.kv = kv
}

func TestLogError(t *testing.T) {
	rec := &recordingLogger{}
	LogError(rec, NewReadCountError("s1", "illumina", 3), "load failed")

	if rec.msg != "load failed" {
		t.Errorf("msg = %q", rec.msg)
	}

	fields := map[string]interface{}{}
	for i := 0; i+1 < len(rec.kv); i += 2 {
		fields[rec.kv[i].(string)] = rec.kv[i+1]
	}
	if fields["category"] != "sample" {
		t.Errorf("category = %v, want sample", fields["category"])
	}
	if fields["sample"] != "s1" {
		t.Errorf("sample = %v, want s1", fields["sample"])
	}
	if fields["found"] != 3 {
		t.Errorf("found = %v, want 3", fields["found"])
	}

	rec = &recordingLogger{}
	LogError(rec, nil, "nothing")
	if rec.msg != "" {
		t.Error("LogError(nil) should not log")
	}
}
