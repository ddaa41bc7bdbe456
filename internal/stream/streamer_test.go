package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/accessdoc/internal/model"
	"github.com/nao1215/accessdoc/internal/pipeline"
)

const reportJSON = `{
  "scores": [
    {"category": "Structure & Semantics", "score": 80, "feedback": "ok"},
    {"category": "Readability", "score": 60, "feedback": "ok"},
    {"category": "Navigability", "score": 70, "feedback": "ok"},
    {"category": "Forms & Inputs", "score": 50, "feedback": "ok"},
    {"category": "Media", "score": 90, "feedback": "ok"}
  ],
  "implementation_plan": "1. Add alt text."
}`

type stubFetcher struct {
	html       string
	screenshot string
	err        error
	calls      atomic.Int32
}

func (f *stubFetcher) Fetch(_ context.Context, pageURL string) (*model.ScrapeResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &model.ScrapeResult{URL: pageURL, HTML: f.html, Screenshot: f.screenshot}, nil
}

type stubInvoker struct {
	synthesis string
	err       error
	panics    bool
}

func (s *stubInvoker) Complete(_ context.Context, prompt string) (string, error) {
	if s.panics {
		panic("invoker exploded")
	}
	if s.err != nil {
		return "", s.err
	}
	if strings.HasPrefix(prompt, "You are a lead web accessibility consultant") {
		return s.synthesis, nil
	}
	return "html critique", nil
}

func (s *stubInvoker) CompleteWithImage(_ context.Context, _, _ string) (string, error) {
	return "visual critique", nil
}

func newStreamer(f *stubFetcher, inv *stubInvoker) *Streamer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(pipeline.NewAnalyzer(f, inv, pipeline.WithAnalyzerLogger(logger)), WithLogger(logger))
}

func collect(s *Streamer, ctx context.Context, url string) []model.ProgressEvent {
	var events []model.ProgressEvent
	for ev := range s.Stream(ctx, url) {
		events = append(events, ev)
	}
	return events
}

func TestStreamSuccess(t *testing.T) {
	t.Parallel()

	t.Run("emits every milestone in order", func(t *testing.T) {
		t.Parallel()

		s := newStreamer(
			&stubFetcher{html: `<html lang="en"><body><img src="x"></body></html>`, screenshot: "aW1n"},
			&stubInvoker{synthesis: reportJSON},
		)
		events := collect(s, context.Background(), "https://example.com")

		wantSteps := []string{
			model.StepInit,
			model.StepScrapeStart,
			model.StepScrapeComplete,
			model.StepScreenshotStatus,
			model.StepAIAnalysis,
			model.StepReportProcessing,
			model.StepComplete,
		}
		wantProgress := []int{0, 17, 33, 50, 67, 83, 100}
		if len(events) != len(wantSteps) {
			t.Fatalf("expected %d events, got %d: %+v", len(wantSteps), len(events), events)
		}
		for i, ev := range events {
			if ev.StepName != wantSteps[i] {
				t.Errorf("event %d: step %q, want %q", i, ev.StepName, wantSteps[i])
			}
			if ev.Progress != wantProgress[i] {
				t.Errorf("event %d: progress %d, want %d", i, ev.Progress, wantProgress[i])
			}
			if ev.Error {
				t.Errorf("event %d: unexpected error flag", i)
			}
			if i < len(events)-1 && ev.Data != nil {
				t.Errorf("event %d: only the final event carries data", i)
			}
		}

		last := events[len(events)-1]
		if last.Type != model.EventReport || last.Data == nil || len(last.Data.Scores) != 5 {
			t.Errorf("unexpected final event %+v", last)
		}
		if !strings.Contains(events[2].Message, "1 images (1 missing alt)") {
			t.Errorf("scrape_complete should summarize static checks: %q", events[2].Message)
		}
	})

	t.Run("continues without screenshot", func(t *testing.T) {
		t.Parallel()

		s := newStreamer(&stubFetcher{html: `<html><img src=x></html>`}, &stubInvoker{synthesis: reportJSON})
		events := collect(s, context.Background(), "https://example.com")

		if len(events) != 7 {
			t.Fatalf("expected 7 events, got %d", len(events))
		}
		status := events[3]
		if status.Error || !strings.Contains(status.Message, "not available") {
			t.Errorf("expected informational screenshot event, got %+v", status)
		}
		if events[6].Data == nil || len(events[6].Data.Scores) != 5 {
			t.Errorf("expected full report, got %+v", events[6])
		}
	})
}

func TestStreamFailures(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>hi</p></body></html>`
	tests := []struct {
		name         string
		url          string
		fetcher      *stubFetcher
		invoker      *stubInvoker
		wantStep     string
		wantProgress int
		wantPrefix   string
	}{
		{
			name:         "invalid url",
			url:          "ftp://example.com/file",
			fetcher:      &stubFetcher{html: page},
			invoker:      &stubInvoker{synthesis: reportJSON},
			wantStep:     model.StepInit,
			wantProgress: 0,
			wantPrefix:   "Failed to scrape",
		},
		{
			name:         "scrape failure",
			url:          "https://example.com",
			fetcher:      &stubFetcher{err: errors.New("dns failure")},
			invoker:      &stubInvoker{synthesis: reportJSON},
			wantStep:     model.StepScrapeStart,
			wantProgress: 17,
			wantPrefix:   "Failed to scrape",
		},
		{
			name:         "missing html",
			url:          "https://example.com",
			fetcher:      &stubFetcher{},
			invoker:      &stubInvoker{synthesis: reportJSON},
			wantStep:     model.StepScrapeStart,
			wantProgress: 17,
			wantPrefix:   "Failed to scrape",
		},
		{
			name:         "model failure",
			url:          "https://example.com",
			fetcher:      &stubFetcher{html: page},
			invoker:      &stubInvoker{err: errors.New("401 unauthorized")},
			wantStep:     model.StepAIAnalysis,
			wantProgress: 67,
			wantPrefix:   "Analysis service error: model call failed",
		},
		{
			name:         "model panic",
			url:          "https://example.com",
			fetcher:      &stubFetcher{html: page},
			invoker:      &stubInvoker{panics: true},
			wantStep:     model.StepAIAnalysis,
			wantProgress: 67,
			wantPrefix:   "An unexpected server error occurred",
		},
		{
			name:         "sentinel report",
			url:          "https://example.com",
			fetcher:      &stubFetcher{html: page},
			invoker:      &stubInvoker{synthesis: `{"scores":[{"category":"Error","score":0,"feedback":"boom"}],"implementation_plan":"..."}`},
			wantStep:     model.StepReportProcessing,
			wantProgress: 83,
			wantPrefix:   "Analysis service error: boom",
		},
		{
			name:         "malformed report",
			url:          "https://example.com",
			fetcher:      &stubFetcher{html: page},
			invoker:      &stubInvoker{synthesis: "Sorry, I cannot help."},
			wantStep:     model.StepReportProcessing,
			wantProgress: 83,
			wantPrefix:   "Failed to parse the analysis report",
		},
		{
			name:         "schema violation",
			url:          "https://example.com",
			fetcher:      &stubFetcher{html: page},
			invoker:      &stubInvoker{synthesis: `{"scores":[],"implementation_plan":"x"}`},
			wantStep:     model.StepReportProcessing,
			wantProgress: 83,
			wantPrefix:   "Failed to structure the analysis report",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			events := collect(newStreamer(tt.fetcher, tt.invoker), context.Background(), tt.url)
			if len(events) == 0 {
				t.Fatal("expected events")
			}

			last := events[len(events)-1]
			if !last.Error {
				t.Fatalf("expected terminal error event, got %+v", last)
			}
			if last.StepName != tt.wantStep {
				t.Errorf("step = %q, want %q", last.StepName, tt.wantStep)
			}
			if last.Progress != tt.wantProgress {
				t.Errorf("progress = %d, want %d", last.Progress, tt.wantProgress)
			}
			if !strings.HasPrefix(last.Message, tt.wantPrefix) {
				t.Errorf("message = %q, want prefix %q", last.Message, tt.wantPrefix)
			}
			for i, ev := range events[:len(events)-1] {
				if ev.Error || ev.Data != nil {
					t.Errorf("event %d should be informational: %+v", i, ev)
				}
			}
			for i := 1; i < len(events); i++ {
				if events[i].Progress < events[i-1].Progress {
					t.Errorf("progress decreased at event %d", i)
				}
			}
		})
	}
}

func TestStreamStops(t *testing.T) {
	t.Parallel()

	t.Run("consumer break stops the analysis", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{html: "<html></html>"}
		s := newStreamer(f, &stubInvoker{synthesis: reportJSON})

		n := 0
		for range s.Stream(context.Background(), "https://example.com") {
			n++
			break
		}
		if n != 1 {
			t.Fatalf("expected 1 event, got %d", n)
		}
		if f.calls.Load() != 0 {
			t.Error("fetch must not run after the consumer stopped")
		}
	})

	t.Run("cancelled context yields nothing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := &stubFetcher{html: "<html></html>"}
		events := collect(newStreamer(f, &stubInvoker{synthesis: reportJSON}), ctx, "https://example.com")
		if len(events) != 0 {
			t.Errorf("expected no events, got %+v", events)
		}
		if f.calls.Load() != 0 {
			t.Error("fetch must not run")
		}
	})

	t.Run("sequence is lazy", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{html: "<html></html>"}
		_ = newStreamer(f, &stubInvoker{synthesis: reportJSON}).Stream(context.Background(), "https://example.com")
		if f.calls.Load() != 0 {
			t.Error("nothing should run before iteration")
		}
	})
}
