// Package pipeline runs the accessibility analysis: fetch the page, critique
// its HTML and its screenshot with the model, synthesize a scored report and
// normalize it.
//
// Each stage is a Step operating on a shared *model.Analysis. Pipeline runs
// steps in order and stops at the first failure; every failure leaving a step
// is classified into the model error taxonomy. Analyzer wires the fixed step
// sequence from a fetch.Fetcher and an llm.Invoker, and BatchProcessor runs
// many analyses with bounded concurrency.
package pipeline
