package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// chatRequest mirrors the fields of the chat completions request we assert on.
type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, reply string, inspect func(chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		if reply == "" {
			_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestInvoker(srv *httptest.Server, opts ...Option) *OpenAIInvoker {
	opts = append([]Option{
		WithBaseURL(srv.URL + "/v1"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return NewOpenAIInvoker("sk-test", opts...)
}

func TestOpenAIInvokerComplete(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := newChatServer(t, "critique text", func(r chatRequest) { got = r })

	out, err := newTestInvoker(srv).Complete(context.Background(), "audit this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "critique text" {
		t.Errorf("expected %q, got %q", "critique text", out)
	}
	if got.Model != DefaultModel {
		t.Errorf("expected model %q, got %q", DefaultModel, got.Model)
	}
	if got.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected max tokens %d, got %d", DefaultMaxTokens, got.MaxTokens)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	if string(got.Messages[0].Content) != `"audit this"` {
		t.Errorf("unexpected content %s", got.Messages[0].Content)
	}
}

func TestOpenAIInvokerCompleteWithImage(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := newChatServer(t, "visual critique", func(r chatRequest) { got = r })

	inv := newTestInvoker(srv, WithModel("gpt-4o-mini"), WithMaxTokens(256))
	out, err := inv.CompleteWithImage(context.Background(), "look", "aGVsbG8=")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "visual critique" {
		t.Errorf("expected %q, got %q", "visual critique", out)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens != 256 {
		t.Errorf("options not applied: %+v", got)
	}

	content := string(got.Messages[0].Content)
	if !strings.Contains(content, `"type":"image_url"`) {
		t.Errorf("expected an image part, got %s", content)
	}
	if !strings.Contains(content, "data:image/jpeg;base64,aGVsbG8=") {
		t.Errorf("expected inline data URI, got %s", content)
	}
	if !strings.Contains(content, `"text":"look"`) {
		t.Errorf("expected text part, got %s", content)
	}
}

func TestOpenAIInvokerErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty choices", func(t *testing.T) {
		t.Parallel()
		srv := newChatServer(t, "", nil)
		_, err := newTestInvoker(srv).Complete(context.Background(), "x")
		if !errors.Is(err, ErrEmptyCompletion) {
			t.Errorf("expected ErrEmptyCompletion, got %v", err)
		}
	})

	t.Run("API error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
		}))
		defer srv.Close()

		if _, err := newTestInvoker(srv).Complete(context.Background(), "x"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty image", func(t *testing.T) {
		t.Parallel()
		srv := newChatServer(t, "unused", func(chatRequest) {
			t.Error("no request expected")
		})
		if _, err := newTestInvoker(srv).CompleteWithImage(context.Background(), "x", ""); err == nil {
			t.Error("expected error")
		}
	})
}
