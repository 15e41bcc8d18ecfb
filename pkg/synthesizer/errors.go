package synthesizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation marks attribute or column problems found before any request.
	ErrValidation = errors.New("synthesizer: invalid dataset attributes")
	// ErrAlreadyFitted is returned when a handle is submitted twice.
	ErrAlreadyFitted = errors.New("synthesizer: already fitted")
	// ErrNotInitialized is returned by operations that need a submitted job.
	ErrNotInitialized = errors.New("synthesizer: not initialized, fit a new synthesizer or get an existing one")
	// ErrJobFailed marks a job the service reported as FAILED.
	ErrJobFailed = errors.New("synthesizer: training failed")
	// ErrSamplingFailed marks a sample attempt the service reported as failed.
	ErrSamplingFailed = errors.New("synthesizer: sampling failed")
	// ErrInvalidInput reports bad sample parameters.
	ErrInvalidInput = errors.New("synthesizer: invalid input")
)

// ValidationError lists the attribute fields that reference unknown columns, plus
// any other reasons the job specification was rejected.
type ValidationError struct {
	// Fields maps an attribute name (sort_by, exclude, dtypes, ...) to the
	// columns it names that the datasource does not have.
	Fields  map[string][]string
	Reasons []string
}

func (e *ValidationError) Error() string {
	msgs := append([]string(nil), e.Reasons...)
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("field %q: columns %s do not exist", field, strings.Join(e.Fields[field], ", ")))
	}
	if len(msgs) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0 && len(e.Reasons) == 0
}

func (e *ValidationError) addReason(format string, args ...any) {
	e.Reasons = append(e.Reasons, fmt.Sprintf(format, args...))
}

func (e *ValidationError) addMissing(field string, columns []string) {
	if len(columns) == 0 {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], columns...)
}

// FittingError carries the last status of a job that ended FAILED.
type FittingError struct {
	UID    string
	Status Status
}

func (e *FittingError) Error() string {
	return fmt.Sprintf("%s: synthesizer %s (%s)", ErrJobFailed.Error(), e.UID, e.Status)
}

func (e *FittingError) Unwrap() error { return ErrJobFailed }

// SamplingError identifies the failed sample attempt.
type SamplingError struct {
	SynthesizerUID string
	SampleUID      string
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("%s: synthesizer %s sample %s", ErrSamplingFailed.Error(), e.SynthesizerUID, e.SampleUID)
}

func (e *SamplingError) Unwrap() error { return ErrSamplingFailed }
