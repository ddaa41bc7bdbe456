// Package model defines the core data structures used throughout accessdoc.
//
// This package contains the following main types:
//   - ScrapeResult: HTML and optional screenshot returned by a content fetcher
//   - CategoryScore and AnalysisReport: the canonical report returned to callers
//   - ProgressEvent: one incremental status update of a streamed analysis
//   - Analysis: the per-request working state threaded through the pipeline
//   - AuditFacts: static accessibility facts extracted from the page HTML
//
// It also defines the error taxonomy shared by the pipeline, the streamer and
// the HTTP layer. Every failure leaving the pipeline is one of ScrapeError,
// UpstreamAnalysisError, MalformedReportError, ReportSchemaError or
// UnexpectedError.
//
// Models live in their own package so that fetch, pipeline, stream, server and
// report can share them without import cycles.
package model
