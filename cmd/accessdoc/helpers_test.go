package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/nao1215/accessdoc/internal/model"
	"github.com/nao1215/accessdoc/internal/pipeline"
)

const testReportJSON = `{
  "scores": [
    {"category": "Structure & Semantics", "score": 80, "feedback": "Good landmarks."},
    {"category": "Readability", "score": 65, "feedback": "Low contrast in footer."},
    {"category": "Navigability", "score": 70, "feedback": "Some vague links."},
    {"category": "Forms & Inputs", "score": 40, "feedback": "Inputs lack labels."},
    {"category": "Media", "score": 90, "feedback": "Alt text present."}
  ],
  "implementation_plan": "1. Label inputs.\n2. Raise footer contrast."
}`

const testPage = `<!DOCTYPE html><html lang="en"><head><title>Shop</title></head>
<body><main><h1>Welcome</h1><img src="a.png"><a href="/more">click here</a>
<form><input type="email"></form></main></body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubFetcher serves testPage for every URL except those in fail.
type stubFetcher struct {
	html string
	fail map[string]bool
}

func (f *stubFetcher) Fetch(_ context.Context, pageURL string) (*model.ScrapeResult, error) {
	if f.fail[pageURL] {
		return nil, errors.New("connection refused")
	}
	html := f.html
	if html == "" {
		html = testPage
	}
	return &model.ScrapeResult{URL: pageURL, HTML: html}, nil
}

// stubInvoker answers the critique prompts with text and the synthesis
// prompt with testReportJSON.
type stubInvoker struct {
	mu    sync.Mutex
	calls int
}

func (s *stubInvoker) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if strings.HasPrefix(prompt, "You are a lead web accessibility consultant") {
		return testReportJSON, nil
	}
	return "HTML critique: email input has no label.", nil
}

func (s *stubInvoker) CompleteWithImage(_ context.Context, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return "Visual critique: fine.", nil
}

func newTestAnalyzer(fetcher *stubFetcher) *pipeline.Analyzer {
	return pipeline.NewAnalyzer(fetcher, &stubInvoker{}, pipeline.WithAnalyzerLogger(discardLogger()))
}
