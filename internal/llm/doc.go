// Package llm invokes the text and vision language model used by the
// analysis pipeline.
//
// The pipeline depends only on the Invoker interface. OpenAIInvoker talks to
// any OpenAI-compatible chat completions endpoint. Calls are single-shot and
// never retried.
package llm
