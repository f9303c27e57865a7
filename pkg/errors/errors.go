package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeSource represents a retailer or lookup source that could not be reached
	ErrorTypeSource ErrorType = "source"
	// ErrorTypeParse represents markup or price text that did not match the expected shape
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeEnrichment represents a failed coupon or cashback lookup
	ErrorTypeEnrichment ErrorType = "enrichment"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an error raised by a pipeline stage. Source and
// parse errors are swallowed at the adapter/verifier boundary and become
// "no result from this source"; they never abort a session.
type PipelineError struct {
	Type     ErrorType
	Retailer string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Retailer, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Retailer, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New creates a new PipelineError
func New(errType ErrorType, retailer, message string, err error) *PipelineError {
	return &PipelineError{
		Type:     errType,
		Retailer: retailer,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewSource creates a new source-unreachable error
func NewSource(retailer, message string, err error) *PipelineError {
	return New(ErrorTypeSource, retailer, message, err)
}

// NewParse creates a new unparseable-content error
func NewParse(retailer, message string, err error) *PipelineError {
	return New(ErrorTypeParse, retailer, message, err)
}

// NewEnrichment creates a new enrichment-unavailable error
func NewEnrichment(retailer, message string, err error) *PipelineError {
	return New(ErrorTypeEnrichment, retailer, message, err)
}

// NewValidation creates a new validation error
func NewValidation(retailer, message string) *PipelineError {
	return New(ErrorTypeValidation, retailer, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}
