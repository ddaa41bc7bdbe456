package model

import (
	"errors"
	"fmt"
)

// ScrapeError means the content fetcher failed or returned no usable HTML.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("scrape %s: no HTML content", e.URL)
	}
	return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// UpstreamAnalysisError means the model pipeline itself reported a failure,
// either through the "Error" sentinel category or by a failed model call.
type UpstreamAnalysisError struct {
	Message string
	Err     error
}

func (e *UpstreamAnalysisError) Error() string {
	return "analysis service error: " + e.Message
}

func (e *UpstreamAnalysisError) Unwrap() error { return e.Err }

// MalformedReportError means the model output was not parseable JSON after
// fence stripping. Raw carries the cleaned text.
type MalformedReportError struct {
	Raw string
	Err error
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed analysis report: %v", e.Err)
}

func (e *MalformedReportError) Unwrap() error { return e.Err }

// ReportSchemaError means the parsed JSON did not have the report structure.
type ReportSchemaError struct {
	Reason string
	Err    error
}

func (e *ReportSchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid analysis report: %s: %v", e.Reason, e.Err)
	}
	return "invalid analysis report: " + e.Reason
}

func (e *ReportSchemaError) Unwrap() error { return e.Err }

// UnexpectedError wraps every failure that fits no other class, including
// recovered panics.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// ErrorKind names an error class for logs and machine-readable results.
type ErrorKind string

const (
	KindScrape          ErrorKind = "scrape"
	KindUpstream        ErrorKind = "upstream"
	KindMalformedReport ErrorKind = "malformed_report"
	KindReportSchema    ErrorKind = "report_schema"
	KindUnexpected      ErrorKind = "unexpected"
)

// Classify returns err unchanged when it already belongs to the taxonomy,
// and wraps it in an UnexpectedError otherwise. A nil error stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != KindUnexpected {
		return err
	}
	var unexpected *UnexpectedError
	if errors.As(err, &unexpected) {
		return err
	}
	return &UnexpectedError{Err: err}
}

// Kind returns the class of err. Unclassified errors are KindUnexpected.
func Kind(err error) ErrorKind {
	var (
		scrape    *ScrapeError
		upstream  *UpstreamAnalysisError
		malformed *MalformedReportError
		schema    *ReportSchemaError
	)
	switch {
	case errors.As(err, &scrape):
		return KindScrape
	case errors.As(err, &upstream):
		return KindUpstream
	case errors.As(err, &malformed):
		return KindMalformedReport
	case errors.As(err, &schema):
		return KindReportSchema
	default:
		return KindUnexpected
	}
}

// ErrorDetail renders the human-readable detail shown to API clients and in
// terminal error events.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	var (
		scrape     *ScrapeError
		upstream   *UpstreamAnalysisError
		malformed  *MalformedReportError
		schema     *ReportSchemaError
		unexpected *UnexpectedError
	)
	switch {
	case errors.As(err, &scrape):
		return "Failed to scrape the website or critical content (HTML) is missing."
	case errors.As(err, &upstream):
		return "Analysis service error: " + upstream.Message
	case errors.As(err, &malformed):
		return "Failed to parse the analysis report from AI service. Raw output: " + malformed.Raw
	case errors.As(err, &schema):
		return "Failed to structure the analysis report. Error: " + schemaReason(schema)
	case errors.As(err, &unexpected):
		return fmt.Sprintf("An unexpected server error occurred: %v", unexpected.Err)
	default:
		return fmt.Sprintf("An unexpected server error occurred: %v", err)
	}
}

func schemaReason(e *ReportSchemaError) string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}
