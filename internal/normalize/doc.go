// Package normalize turns the synthesis model's text output into a canonical
// model.AnalysisReport.
//
// Model output is not contractually valid JSON. Normalize strips code fences,
// parses the remainder, recognizes the "Error" sentinel category, injects
// default feedback, coerces scores into [0,100] and maps category labels onto
// the fixed category set. Both the request-response path and the streaming
// path call this one implementation.
package normalize
