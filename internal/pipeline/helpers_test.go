package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/nao1215/accessdoc/internal/model"
)

const validReportJSON = "```json\n" + `{
  "scores": [
    {"category": "Structure & Semantics", "score": 80, "feedback": "Good landmarks."},
    {"category": "Readability", "score": 65, "feedback": "Low contrast in footer."},
    {"category": "Navigability", "score": 70, "feedback": "Some vague links."},
    {"category": "Forms & Inputs", "score": 40, "feedback": "Inputs lack labels."},
    {"category": "Media", "score": 90, "feedback": "Alt text present."}
  ],
  "implementation_plan": "1. Label inputs.\n2. Raise footer contrast."
}` + "\n```"

const testPage = `<!DOCTYPE html><html lang="en"><head><title>Shop</title>
<script>var x = 1;</script></head>
<body><main><h1>Welcome</h1><img src="a.png"><a href="/more">click here</a></main></body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, analysis *model.Analysis) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, analysis *model.Analysis) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, analysis)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

type fakeFetcher struct {
	result *model.ScrapeResult
	err    error
	panics bool
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*model.ScrapeResult, error) {
	if f.panics {
		panic("fetcher exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.URL = pageURL
	return &r, nil
}

// fakeInvoker answers each prompt kind with a canned response.
type fakeInvoker struct {
	mu sync.Mutex

	htmlOut      string
	visualOut    string
	synthesisOut string
	err          error
	errOn        string

	prompts []string
	images  []string
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{
		htmlOut:      "HTML critique: missing label on email input.",
		visualOut:    "Visual critique: footer contrast too low.",
		synthesisOut: validReportJSON,
	}
}

func (f *fakeInvoker) kind(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "You are a lead web accessibility consultant"):
		return "synthesis"
	case strings.HasPrefix(prompt, "You are a UI accessibility analyst"):
		return "visual"
	default:
		return "html"
	}
}

func (f *fakeInvoker) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	kind := f.kind(prompt)
	if f.err != nil && (f.errOn == "" || f.errOn == kind) {
		return "", f.err
	}
	if kind == "synthesis" {
		return f.synthesisOut, nil
	}
	return f.htmlOut, nil
}

func (f *fakeInvoker) CompleteWithImage(_ context.Context, prompt, image string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, image)
	if f.err != nil && (f.errOn == "" || f.errOn == "visual") {
		return "", f.err
	}
	return f.visualOut, nil
}

func (f *fakeInvoker) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
